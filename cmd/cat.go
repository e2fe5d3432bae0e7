package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/riftline/cryptvfs/internal/crypt"
	"github.com/riftline/cryptvfs/internal/cryptcfg"
	"github.com/riftline/cryptvfs/internal/rawsource"
)

var (
	catPatch  bool
	catOffset int64
	catLength int64
)

var catCmd = &cobra.Command{
	Use:   "cat [path]",
	Short: "Decrypt a byte range and write it to stdout",
	Long: `Decrypt bytes [offset, offset+length) of a file's plaintext and write them
to stdout. length of 0 (the default) reads to the end of the file.

Examples:
  cryptvfs cat --patch update.patch > update.raw
  cryptvfs cat --patch --offset 4096 --length 4096 update.patch`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCat(args[0])
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().BoolVar(&catPatch, "patch", false, "treat the input as a patch (secret-keyed) file")
	catCmd.Flags().Int64Var(&catOffset, "offset", 0, "plaintext offset to start reading at")
	catCmd.Flags().Int64Var(&catLength, "length", 0, "number of plaintext bytes to read (0 means to EOF)")
}

func runCat(path string) error {
	cfg, err := cryptcfg.Load()
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	source, err := rawsource.Open(fs, path)
	if err != nil {
		return err
	}
	defer source.Close()

	secret := ""
	if catPatch {
		secret = cfg.PatchSecret
	}

	f, err := crypt.Open(path, source, crypt.OpenConfig{Secret: secret, Cache: crypt.NewKeyCache(), Verbose: GetVerbose()})
	if err != nil {
		return err
	}
	defer f.Close()

	f.Seek(catOffset)

	length := catLength
	if length == 0 {
		length = f.Size() - catOffset
	}
	if length <= 0 {
		return nil
	}

	buf := make([]byte, length)
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			if total > 0 {
				break
			}
			return fmt.Errorf("cat: %w", err)
		}
		if n == 0 {
			break
		}
	}

	_, err = os.Stdout.Write(buf[:total])
	return err
}
