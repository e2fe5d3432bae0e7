package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/riftline/cryptvfs/internal/crypt"
	"github.com/riftline/cryptvfs/internal/cryptcfg"
	"github.com/riftline/cryptvfs/internal/rawsource"
)

var verifyPatch bool

var verifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Run the key-verification handshake without decrypting the body",
	Long: `Open a file, derive its AES key, and run the verify-block handshake.
Reports "ok" if the derived key decrypts the verify block to the expected
":D" prefix, or the specific error otherwise: bad magic, short read, or key
mismatch.`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerify(args[0])
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyPatch, "patch", false, "treat the input as a patch (secret-keyed) file")
}

func runVerify(path string) error {
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
	if verifyPatch {
		secret = cfg.PatchSecret
	}

	f, err := crypt.Open(path, source, crypt.OpenConfig{Secret: secret, Cache: crypt.NewKeyCache(), Verbose: GetVerbose()})
	if err != nil {
		fmt.Printf("%s: FAIL: %v\n", path, err)
		return err
	}
	defer f.Close()

	if !GetQuiet() {
		fmt.Printf("%s: ok\n", path)
	}
	return nil
}
