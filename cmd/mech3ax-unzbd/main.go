// Command mech3ax-unzbd is the decode-side CLI front-end (spec.md
// section 6: "a decoder CLI and an encoder CLI"), named after the real
// project's own `unzbd` binary (original_source/crates/unzbd,
// original_source/src/bin/unzbd). Its command tree follows the
// teacher's spf13/cobra usage in cmd/pedumper.go (a root command with
// PersistentFlags plus one subcommand per thing it can dump); the
// subcommands here mirror original_source/crates/unzbd/src/commands.rs
// and original_source/src/bin/unzbd/commands.rs, one per container this
// repo implements a decoder for. It contains no decoding logic of its
// own: every subcommand opens --input, calls the matching package's
// top-level Read function, and writes the result as JSON (or, for
// archive, a zip of the recovered entries), matching pedumper.go's own
// "decode, then json.Marshal" shape.
package main

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mech3archive "github.com/TerranMechworks/mech3ax-sub002/archive"
	"github.com/TerranMechworks/mech3ax-sub002/game"
	"github.com/TerranMechworks/mech3ax-sub002/gamez"
	"github.com/TerranMechworks/mech3ax-sub002/interp"
	"github.com/TerranMechworks/mech3ax-sub002/internal/assert"
	"github.com/TerranMechworks/mech3ax-sub002/internal/merr"
	"github.com/TerranMechworks/mech3ax-sub002/motion"
	"github.com/TerranMechworks/mech3ax-sub002/reader"
	"github.com/TerranMechworks/mech3ax-sub002/stream"
	"github.com/TerranMechworks/mech3ax-sub002/texture"
)

var (
	inputPath   string
	outputPath  string
	gameFlavor  string
	skipCRC     bool
	texturesArg string
)

// exitCode maps the error taxonomy in spec.md section 7 to the exit
// codes spec.md section 6 names: 0 success, 1 parse/validation error,
// 2 I/O failure.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch err.(type) {
	case *assert.Error, *merr.SizeOverflowError, *merr.LookupError, *merr.ProtocolError, *merr.UnsupportedError:
		fmt.Fprintln(os.Stderr, err)
		return 1
	default:
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
}

func resolveGame() (game.Variant, error) {
	v, ok := game.Parse(gameFlavor)
	if !ok {
		return 0, merr.Protocolf("unrecognized --game %q, want one of mw, pm, rc, cs", gameFlavor)
	}
	return v, nil
}

func openInput() (*os.File, error) { return os.Open(inputPath) }

func writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}

func runArchive(cmd *cobra.Command, args []string) error {
	f, err := openInput()
	if err != nil {
		return err
	}
	defer f.Close()

	mode := mech3archive.Sounds
	version := mech3archive.Version{Kind: mech3archive.VersionOne}
	if skipCRC {
		version = mech3archive.Version{Kind: mech3archive.VersionTwo, Mode: mode}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	zw := zip.NewWriter(out)

	save := func(name string, data []byte, offset uint32) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	entries, err := mech3archive.ReadArchive(f, version, save, nil)
	if err != nil {
		zw.Close()
		return err
	}
	manifestData, err := json.MarshalIndent(entries, "", "\t")
	if err != nil {
		zw.Close()
		return err
	}
	mw, err := zw.Create("manifest.json")
	if err != nil {
		zw.Close()
		return err
	}
	if _, err := mw.Write(manifestData); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func runTexture(cmd *cobra.Command, args []string) error {
	f, err := openInput()
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(f)
	manifest, err := texture.ReadTextures(r, nil)
	if err != nil {
		return err
	}
	return writeJSON(manifest)
}

func runInterp(cmd *cobra.Command, args []string) error {
	f, err := openInput()
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(f)
	scripts, err := interp.ReadScripts(r, nil)
	if err != nil {
		return err
	}
	return writeJSON(scripts)
}

func runMotion(cmd *cobra.Command, args []string) error {
	f, err := openInput()
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(f)
	m, err := motion.ReadMotion(r, nil)
	if err != nil {
		return err
	}
	return writeJSON(m)
}

func runReader(cmd *cobra.Command, args []string) error {
	f, err := openInput()
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(f)
	v, err := reader.ReadValue(r)
	if err != nil {
		return err
	}
	return writeJSON(v)
}

func runGamez(cmd *cobra.Command, args []string) error {
	variant, err := resolveGame()
	if err != nil {
		return err
	}
	var textures []string
	if texturesArg != "" {
		data, err := os.ReadFile(texturesArg)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &textures); err != nil {
			return err
		}
	}
	f, err := openInput()
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(f)
	g, err := gamez.ReadGamez(r, variant, textures, nil)
	if err != nil {
		return err
	}
	return writeJSON(g)
}

func wrap(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		if err := run(cmd, args); err != nil {
			os.Exit(exitCode(err))
		}
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mech3ax-unzbd",
		Short: "Decode mech3ax asset containers to JSON",
		Long:  "Decodes MechWarrior 3 / Pirate's Moon / Recoil / Crimson Skies asset containers into JSON (or a zip of recovered entries, for archive).",
	}
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "input container path")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "output path")
	rootCmd.PersistentFlags().StringVarP(&gameFlavor, "game", "g", "mw", "game flavor: mw, pm, rc, cs")
	rootCmd.PersistentFlags().BoolVar(&skipCRC, "skip-crc", false, "read a version-two sounds-mode archive trailer (checksum must be zero) instead of version one")
	rootCmd.MarkPersistentFlagRequired("input")
	rootCmd.MarkPersistentFlagRequired("output")

	archiveCmd := &cobra.Command{Use: "archive", Short: "Decode a sounds-mode archive to a zip", Run: wrap(runArchive)}
	textureCmd := &cobra.Command{Use: "texture", Short: "Decode a texture directory to JSON", Run: wrap(runTexture)}
	interpCmd := &cobra.Command{Use: "interp", Short: "Decode an interpreter script table to JSON", Run: wrap(runInterp)}
	motionCmd := &cobra.Command{Use: "motion", Short: "Decode a bone motion container to JSON", Run: wrap(runMotion)}
	readerCmd := &cobra.Command{Use: "reader", Short: "Decode a reader value tree to JSON", Run: wrap(runReader)}
	gamezCmd := &cobra.Command{Use: "gamez", Short: "Decode a scene-graph container to JSON", Run: wrap(runGamez)}
	gamezCmd.Flags().StringVar(&texturesArg, "textures", "", "path to a JSON array of texture names, resolved from the texture directory")

	rootCmd.AddCommand(archiveCmd, textureCmd, interpCmd, motionCmd, readerCmd, gamezCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
