// Package motion implements the per-bone skeletal animation codec from
// spec.md section 4.11 (component C11): a versioned header followed by
// one track per bone, each track a name and a sequence of translation/
// rotation frames. No original_source file names this container
// directly (see DESIGN.md); its versioned-header shape follows the
// archive package's Version tag, its fixed ascii name field follows
// types.AsciiToStrPadded, and its fixed-size-record-then-array shape
// follows gamez's mesh/light record conventions.
package motion

import (
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/internal/xlog"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/types"
)

const (
	boneNameSize     = 32
	containerHdrSize = 8  // version(4) + bone_count(4)
	boneHdrSize      = 36 // name[32] + frame_count(4)
	frameSize        = 28 // translation Vec3(12) + rotation Quaternion(16)
)

// Vec3 and Quaternion are the frame's fixed-layout value types, mirrored
// from the same records animevent and gamez each carry their own copy
// of (spec.md section 4.3's value types have no canonical shared home
// across packages; every codec declares the ones it needs).
type Vec3 struct{ X, Y, Z float32 }

type Quaternion struct{ W, X, Y, Z float32 }

// Frame is one animation sample for a single bone (spec.md section
// 4.11: "frames of Vec3 translation and Quaternion rotation").
type Frame struct {
	Translation Vec3
	Rotation    Quaternion
}

// Bone is one bone's animation track: a name and its frame sequence.
// Frame counts are per-bone (spec.md section 4.11): distinct bones may
// carry distinct track lengths, each stored once ahead of that bone's
// frames rather than repeated per frame.
type Bone struct {
	Name   string
	Frames []Frame
}

// Motion is the neutral form of one decoded motion container (spec.md
// section 4.11).
type Motion struct {
	Version uint32
	Bones   []Bone
}

type boneHeaderC struct {
	Name       [boneNameSize]byte
	FrameCount uint32
}

// ReadMotion decodes a complete motion container. log receives non-fatal
// anomalies; a nil log discards them.
func ReadMotion(r *stream.Reader, log *xlog.Helper) (Motion, error) {
	if log == nil {
		log = xlog.Discard()
	}
	version, err := r.ReadU32()
	if err != nil {
		return Motion{}, err
	}
	if err := assert.Ge[uint32]("motion version", 1, version, r.Prev); err != nil {
		return Motion{}, err
	}
	boneCount, err := r.ReadU32()
	if err != nil {
		return Motion{}, err
	}

	bones := make([]Bone, boneCount)
	for i := range bones {
		var hdr boneHeaderC
		if err := r.ReadStruct(&hdr, boneHdrSize); err != nil {
			return Motion{}, err
		}
		name, err := types.AsciiToStrPadded(hdr.Name[:])
		if err != nil {
			return Motion{}, err
		}
		frames := make([]Frame, hdr.FrameCount)
		for j := range frames {
			var translation Vec3
			if err := r.ReadStruct(&translation, 12); err != nil {
				return Motion{}, err
			}
			var rotation Quaternion
			if err := r.ReadStruct(&rotation, 16); err != nil {
				return Motion{}, err
			}
			frames[j] = Frame{Translation: translation, Rotation: rotation}
		}
		bones[i] = Bone{Name: name, Frames: frames}
	}

	return Motion{Version: version, Bones: bones}, nil
}

// WriteMotion inverts ReadMotion exactly (spec.md section 8).
func WriteMotion(w *stream.Writer, data Motion, log *xlog.Helper) error {
	if log == nil {
		log = xlog.Discard()
	}
	if data.Version == 0 {
		return merr.Protocolf("motion version must be >= 1")
	}
	if err := w.WriteU32(data.Version); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(len(data.Bones))); err != nil {
		return err
	}
	for _, bone := range data.Bones {
		var hdr boneHeaderC
		if len(bone.Name) >= boneNameSize {
			return merr.Protocolf("bone name %q too long for a %d-byte field", bone.Name, boneNameSize)
		}
		types.AsciiFromStrPadded(hdr.Name[:], bone.Name)
		hdr.FrameCount = uint32(len(bone.Frames))
		if err := w.WriteStruct(&hdr); err != nil {
			return err
		}
		for _, f := range bone.Frames {
			if err := w.WriteStruct(&f.Translation); err != nil {
				return err
			}
			if err := w.WriteStruct(&f.Rotation); err != nil {
				return err
			}
		}
	}
	return nil
}

// SizeMotion computes the on-disk byte size of data without writing it,
// matching spec.md section 4.10's "writers size their outputs
// analytically" discipline carried over to this container.
func SizeMotion(data Motion) uint32 {
	size := uint32(containerHdrSize)
	for _, bone := range data.Bones {
		size += boneHdrSize + frameSize*uint32(len(bone.Frames))
	}
	return size
}
