// Command mech3ax-rezbd is the encode-side CLI front-end (spec.md
// section 6), named after the real project's own `rezbd` binary
// (original_source/crates/mech3ax/src/bin/rezbd,
// original_source/crates/rezbd). It mirrors mech3ax-unzbd exactly:
// same cobra command tree shape, same persistent flags, one subcommand
// per container this repo implements an encoder for, each reading
// --input as JSON and calling the matching package's top-level Write
// function. It contains no encoding logic of its own.
package main

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
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

func readJSON(v interface{}) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func createOutput() (*os.File, error) { return os.Create(outputPath) }

// runArchive re-encodes the zip mech3ax-unzbd's own archive subcommand
// produces: manifest.json alongside one file per entry, keyed by name.
func runArchive(cmd *cobra.Command, args []string) error {
	zr, err := zip.OpenReader(inputPath)
	if err != nil {
		return err
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	var manifest *zip.File
	for _, f := range zr.File {
		if f.Name == "manifest.json" {
			manifest = f
			continue
		}
		files[f.Name] = f
	}
	if manifest == nil {
		return merr.Protocolf("archive zip %q has no manifest.json", inputPath)
	}
	mf, err := manifest.Open()
	if err != nil {
		return err
	}
	defer mf.Close()
	manifestData, err := io.ReadAll(mf)
	if err != nil {
		return err
	}
	var entries []mech3archive.Entry
	if err := json.Unmarshal(manifestData, &entries); err != nil {
		return err
	}

	mode := mech3archive.Sounds
	version := mech3archive.Version{Kind: mech3archive.VersionOne}
	if skipCRC {
		version = mech3archive.Version{Kind: mech3archive.VersionTwo, Mode: mode}
	}
	out, err := createOutput()
	if err != nil {
		return err
	}
	defer out.Close()

	load := func(name string, offset uint32) ([]byte, error) {
		f, ok := files[name]
		if !ok {
			return nil, merr.Protocolf("archive zip %q has no entry named %q", inputPath, name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return mech3archive.WriteArchive(out, entries, version, load, nil)
}

func runTexture(cmd *cobra.Command, args []string) error {
	var manifest texture.Manifest
	if err := readJSON(&manifest); err != nil {
		return err
	}
	out, err := createOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	w := stream.NewWriter(out)
	return texture.WriteTextures(w, manifest, nil)
}

func runInterp(cmd *cobra.Command, args []string) error {
	var scripts []interp.Script
	if err := readJSON(&scripts); err != nil {
		return err
	}
	out, err := createOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	w := stream.NewWriter(out)
	return interp.WriteScripts(w, scripts, nil)
}

func runMotion(cmd *cobra.Command, args []string) error {
	var m motion.Motion
	if err := readJSON(&m); err != nil {
		return err
	}
	out, err := createOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	w := stream.NewWriter(out)
	return motion.WriteMotion(w, m, nil)
}

func runReader(cmd *cobra.Command, args []string) error {
	var v reader.Value
	if err := readJSON(&v); err != nil {
		return err
	}
	out, err := createOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	w := stream.NewWriter(out)
	return reader.WriteValue(w, v)
}

func runGamez(cmd *cobra.Command, args []string) error {
	if _, err := resolveGame(); err != nil {
		return err
	}
	var g gamez.Gamez
	if err := readJSON(&g); err != nil {
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
	out, err := createOutput()
	if err != nil {
		return err
	}
	defer out.Close()
	w := stream.NewWriter(out)
	return gamez.WriteGamez(w, g, textures, nil)
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
		Use:   "mech3ax-rezbd",
		Short: "Encode JSON back into mech3ax asset containers",
		Long:  "Re-encodes the JSON this repo's mech3ax-unzbd produces back into byte-exact MechWarrior 3 / Pirate's Moon / Recoil / Crimson Skies asset containers.",
	}
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "", "input JSON path")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "output container path")
	rootCmd.PersistentFlags().StringVarP(&gameFlavor, "game", "g", "mw", "game flavor: mw, pm, rc, cs")
	rootCmd.PersistentFlags().BoolVar(&skipCRC, "skip-crc", false, "omit CRC32 (Version Two, Mode Sounds bypass)")
	rootCmd.MarkPersistentFlagRequired("input")
	rootCmd.MarkPersistentFlagRequired("output")

	archiveCmd := &cobra.Command{Use: "archive", Short: "Re-encode a sounds archive manifest", Run: wrap(runArchive)}
	textureCmd := &cobra.Command{Use: "texture", Short: "Re-encode a texture directory", Run: wrap(runTexture)}
	interpCmd := &cobra.Command{Use: "interp", Short: "Re-encode an interpreter script table", Run: wrap(runInterp)}
	motionCmd := &cobra.Command{Use: "motion", Short: "Re-encode a bone motion container", Run: wrap(runMotion)}
	readerCmd := &cobra.Command{Use: "reader", Short: "Re-encode a reader value tree", Run: wrap(runReader)}
	gamezCmd := &cobra.Command{Use: "gamez", Short: "Re-encode a scene-graph container", Run: wrap(runGamez)}
	gamezCmd.Flags().StringVar(&texturesArg, "textures", "", "path to a JSON array of texture names")

	rootCmd.AddCommand(archiveCmd, textureCmd, interpCmd, motionCmd, readerCmd, gamezCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
