package cmd

import (
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/riftline/cryptvfs/internal/crypt"
	"github.com/riftline/cryptvfs/internal/cryptcfg"
	"github.com/riftline/cryptvfs/internal/rawsource"
)

var (
	batchPatch       bool
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch [path...]",
	Short: "Verify many files concurrently and report a combined result",
	Long: `Run the key-verification handshake against every path concurrently,
bounded by --concurrency workers, sharing a single KeyCache keyed by path so
a path given more than once only derives its key once. Exits non-zero and lists
every failure if one or more files fail verification.`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(args)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVar(&batchPatch, "patch", false, "treat inputs as patch (secret-keyed) files")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 8, "maximum concurrent verifications")
}

func runBatch(paths []string) error {
	cfg, err := cryptcfg.Load()
	if err != nil {
		return err
	}

	secret := ""
	if batchPatch {
		secret = cfg.PatchSecret
	}

	fs := afero.NewOsFs()
	cache := crypt.NewKeyCache()

	p := pool.New().WithMaxGoroutines(batchConcurrency)

	var mu sync.Mutex
	var combined error

	verbose := GetVerbose()
	for _, path := range paths {
		path := path
		p.Go(func() {
			err := verifyOne(fs, path, secret, cache, verbose)
			mu.Lock()
			combined = multierr.Append(combined, err)
			mu.Unlock()
		})
	}
	p.Wait()

	if !GetQuiet() {
		hits, derivations := cache.Stats()
		fmt.Printf("verified %d files (%d cache hits, %d derivations)\n", len(paths), hits, derivations)
	}

	return combined
}

func verifyOne(fs afero.Fs, path, secret string, cache *crypt.KeyCache, verbose bool) error {
	source, err := rawsource.Open(fs, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer source.Close()

	f, err := crypt.Open(path, source, crypt.OpenConfig{Secret: secret, Cache: cache, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()
	return nil
}
