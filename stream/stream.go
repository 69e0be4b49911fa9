// Package stream is the positional I/O substrate from spec.md section 4.1
// (component C1): counted, typed byte readers and writers with absolute
// offset tracking, used for error reporting by every codec downstream. It
// is grounded on the original project's CountingReader
// (mech3ax-common/src/io_ext, referenced throughout original_source/src
// and crates/mech3ax-lib/src/read.rs), adapted to Go's io.Reader/io.Writer
// composition the way the teacher composes bytes.Reader + binary.Read in
// structUnpack (saferwall/pe helper.go).
package stream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader wraps any io.Reader, tracking the absolute byte offset and the
// offset at which the last read began ("prev" in spec.md section 3),
// exactly as the original CountingReader does. Reads are never buffered
// beyond what binary.Read requires; no short reads are tolerated.
type Reader struct {
	r      io.Reader
	Offset uint32
	Prev   uint32
}

// NewReader wraps r for positional reads starting at offset 0.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (cr *Reader) begin() { cr.Prev = cr.Offset }

func (cr *Reader) advance(n uint32) { cr.Offset += n }

// ReadExact reads exactly len(buf) bytes, erroring on any short read
// (spec.md section 4.1: "no short reads").
func (cr *Reader) ReadExact(buf []byte) error {
	cr.begin()
	if _, err := io.ReadFull(cr.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("unexpected end of stream at offset %d reading %d bytes: %w", cr.Offset, len(buf), err)
		}
		return err
	}
	cr.advance(uint32(len(buf)))
	return nil
}

func (cr *Reader) ReadU8() (uint8, error) {
	var buf [1]byte
	if err := cr.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (cr *Reader) ReadI8() (int8, error) {
	v, err := cr.ReadU8()
	return int8(v), err
}

func (cr *Reader) ReadU16() (uint16, error) {
	var buf [2]byte
	if err := cr.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (cr *Reader) ReadI16() (int16, error) {
	v, err := cr.ReadU16()
	return int16(v), err
}

func (cr *Reader) ReadU32() (uint32, error) {
	var buf [4]byte
	if err := cr.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (cr *Reader) ReadI32() (int32, error) {
	v, err := cr.ReadU32()
	return int32(v), err
}

func (cr *Reader) ReadU64() (uint64, error) {
	var buf [8]byte
	if err := cr.ReadExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (cr *Reader) ReadF32() (float32, error) {
	v, err := cr.ReadU32()
	if err != nil {
		return 0, err
	}
	return math32FromBits(v), nil
}

// ReadStruct reads exactly size bytes and decodes them little-endian,
// packed, into out via binary.Read, mirroring structUnpack in
// saferwall/pe helper.go but against the positional Reader instead of a
// byte slice. out must be a pointer to a fixed-layout record per
// spec.md section 3.
func (cr *Reader) ReadStruct(out interface{}, size uint32) error {
	cr.begin()
	lr := io.LimitReader(cr.r, int64(size))
	if err := binary.Read(lr, binary.LittleEndian, out); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("unexpected end of stream at offset %d reading struct of %d bytes: %w", cr.Offset, size, err)
		}
		return err
	}
	cr.advance(size)
	return nil
}

// ReadStructNoLog is identical to ReadStruct; it exists as a distinct call
// site per spec.md section 4.1 ("read_struct_no_log") for decoders that
// must suppress structural trace logging around bulk reads (e.g. dense
// polygon/vertex streams) without altering offset bookkeeping.
func (cr *Reader) ReadStructNoLog(out interface{}, size uint32) error {
	return cr.ReadStruct(out, size)
}

// AssertEnd fails if the underlying reader has any bytes left. It detects
// trailing data by attempting a single-byte read.
func (cr *Reader) AssertEnd() error {
	var buf [1]byte
	n, err := cr.r.Read(buf[:])
	if n > 0 {
		return fmt.Errorf("expected end of stream at offset %d, but data remains", cr.Offset)
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// SeekFrom is the origin a Seek call is relative to.
type SeekFrom int

const (
	// SeekStart seeks relative to the start of the stream.
	SeekStart SeekFrom = iota
	// SeekEnd seeks relative to the end of the stream (spec.md section 3:
	// "seeking is permitted only for archive trailers and table reads").
	SeekEnd
)

// Seek repositions an underlying io.Seeker and resyncs the offset
// counters. It is used by the archive trailer and table reads and by the
// messages resource-directory walk.
func (cr *Reader) Seek(from SeekFrom, delta int64) error {
	seeker, ok := cr.r.(io.Seeker)
	if !ok {
		return fmt.Errorf("underlying stream does not support seeking")
	}
	var whence int
	switch from {
	case SeekStart:
		whence = io.SeekStart
	case SeekEnd:
		whence = io.SeekEnd
	}
	pos, err := seeker.Seek(delta, whence)
	if err != nil {
		return err
	}
	cr.Offset = uint32(pos)
	cr.Prev = cr.Offset
	return nil
}

// Writer mirrors Reader for the encode direction (spec.md section 4.1:
// "Writer operations mirror the reader").
type Writer struct {
	w      io.Writer
	Offset uint32
}

// NewWriter wraps w for positional writes starting at offset 0.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (cw *Writer) WriteExact(buf []byte) error {
	n, err := cw.w.Write(buf)
	if err != nil {
		return err
	}
	cw.Offset += uint32(n)
	return nil
}

func (cw *Writer) WriteU8(v uint8) error { return cw.WriteExact([]byte{v}) }

func (cw *Writer) WriteI8(v int8) error { return cw.WriteU8(uint8(v)) }

func (cw *Writer) WriteU16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return cw.WriteExact(buf[:])
}

func (cw *Writer) WriteI16(v int16) error { return cw.WriteU16(uint16(v)) }

func (cw *Writer) WriteU32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return cw.WriteExact(buf[:])
}

func (cw *Writer) WriteI32(v int32) error { return cw.WriteU32(uint32(v)) }

func (cw *Writer) WriteU64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return cw.WriteExact(buf[:])
}

func (cw *Writer) WriteF32(v float32) error { return cw.WriteU32(math32ToBits(v)) }

// WriteStruct emits exactly binary.Size(in) bytes of in's little-endian,
// packed memory image (spec.md section 4.1: "write_struct<T> emits
// exactly sizeof(T) bytes").
func (cw *Writer) WriteStruct(in interface{}) error {
	before := cw.Offset
	if err := binary.Write(structCountWriter{cw}, binary.LittleEndian, in); err != nil {
		return err
	}
	want := uint32(binary.Size(in))
	if cw.Offset-before != want {
		return fmt.Errorf("write_struct wrote %d bytes, expected %d", cw.Offset-before, want)
	}
	return nil
}

// structCountWriter adapts Writer to io.Writer for binary.Write while
// keeping the offset counter in sync.
type structCountWriter struct{ cw *Writer }

func (s structCountWriter) Write(p []byte) (int, error) {
	if err := s.cw.WriteExact(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
