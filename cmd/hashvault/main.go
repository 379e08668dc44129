// Hashvault generates, searches and verifies sorted hash/nonce datasets.
//
// Usage:
//
//	hashvault -k 26 -f output -a gen
//	hashvault -f output -a search -q 3 -s 1000
//	hashvault -f output -a verify
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tamirms/hashvault/internal/config"
	logpkg "github.com/tamirms/hashvault/internal/logger"
)

func main() {
	cmd := newRootCmd(os.Stdout)
	if len(os.Args) < 2 {
		_ = cmd.Usage()
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state of one invocation.
type app struct {
	cfg        *config.Config
	configPath string
	out        io.Writer
	log        *logpkg.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{cfg: config.NewConfig(), out: out}

	cmd := &cobra.Command{
		Use:   "hashvault",
		Short: "Generate and search sorted hash/nonce datasets",
		Long: `Hashvault enumerates every nonce in [0, 2^k), stores the hash prefix of each
nonce next to the nonce, sorts the records globally by hash prefix and saves
them. The search action counts how many stored records start with any of a
batch of random target prefixes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.applyConfigFile(cmd); err != nil {
				return err
			}
			return a.run(cmd.Context())
		},
	}

	cfg := a.cfg
	flags := cmd.Flags()
	flags.IntVarP(&cfg.Exponent, "exponent", "k", cfg.Exponent, "Generate 2^k records")
	flags.StringVarP(&cfg.Path, "path", "f", cfg.Path, "Dataset directory")
	flags.StringVarP(&cfg.Action, "action", "a", cfg.Action, "Action: gen, search or verify")
	flags.IntVarP(&cfg.Difficulty, "difficulty", "q", cfg.Difficulty, "Target prefix length in bytes (1-10)")
	flags.IntVarP(&cfg.Searches, "searches", "s", cfg.Searches, "Number of random targets to search for")
	flags.IntVarP(&cfg.Partitions, "partitions", "p", cfg.Partitions, "Number of generation partitions")
	flags.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")
	flags.StringVar(&cfg.Hash, "hash", cfg.Hash, "Digest: blake3, blake2b or sha3")
	flags.StringVarP(&cfg.Compression, "compression", "z", cfg.Compression, "Shard compression: none or zstd")
	flags.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for search targets (0 = random)")
	flags.StringVarP(&a.configPath, "config", "c", "", "TOML or YAML config file; explicit flags take precedence")
	flags.StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file (default: stdout)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

// applyConfigFile loads the --config file into the configuration without
// overriding flags given on the command line.
func (a *app) applyConfigFile(cmd *cobra.Command) error {
	if a.configPath == "" {
		return nil
	}
	explicit := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := a.cfg.LoadFile(a.configPath); err != nil {
		return err
	}
	for name, value := range explicit {
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("restore flag --%s: %w", name, err)
		}
	}
	return nil
}

func (a *app) run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.setupLogging()
	defer a.log.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch a.cfg.Action {
	case config.ActionGenerate:
		err = a.runGenerate(ctx)
	case config.ActionSearch:
		err = a.runSearch(ctx)
	case config.ActionVerify:
		err = a.runVerify(ctx)
	}
	if err != nil {
		a.log.Errorf("%s failed: %v", a.cfg.Action, err)
	}
	return err
}

func (a *app) setupLogging() {
	if a.cfg.LogFile != "" {
		a.log = logpkg.NewFile(a.cfg.LogFile, a.cfg.LogMaxSizeMB, a.cfg.LogMaxAgeDays)
	} else {
		a.log = logpkg.NewWriter(os.Stderr)
	}
	a.log.SetVerbose(a.cfg.Verbose)
}
