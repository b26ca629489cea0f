// Command dodecaphony searches for a well-formed twelve-tone fragment and
// renders the best candidates it finds.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/katalvlaran/dodecaphony/config"
	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/render"
	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/katalvlaran/dodecaphony/vns"
)

var (
	configPath string
	outputDir  string
	nFragments int
	seed       int64
	workers    int
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dodecaphony",
	Short: "Algorithmic composition of dodecaphonic music",
	Long: `dodecaphony searches the space of twelve-tone fragments with a variable
neighborhood beam search, scoring candidates with the configured set of
harmony, melody and rhythm functions, and renders the winners as MIDI,
TSV event sheets, Lilypond scores and YAML content snapshots.

The run is fully driven by a YAML configuration file; see the config
package documentation for the schema.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		if logger, err = cfg.Build(); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the run configuration file")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "results", "directory for rendered fragments")
	rootCmd.Flags().IntVarP(&nFragments, "fragments", "n", 1, "number of beam fragments to render")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "override the configured seed")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "override the configured worker count")
	_ = rootCmd.MarkFlagRequired("config")
}

func run(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	compiled, err := c.Build()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		compiled.Search.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		compiled.Search.Workers = workers
	}
	compiled.Search.Logger = logger

	// The initializer shares the run seed, normalized the same way the
	// optimizer normalizes it, so one seed reproduces the whole run.
	initSeed := compiled.Search.Seed
	if initSeed == 0 {
		initSeed = 1
	}
	frag, err := fragment.Initialize(compiled.Fragment, rand.New(rand.NewSource(initSeed)))
	if err != nil {
		return fmt.Errorf("initialize fragment: %w", err)
	}

	res, err := vns.Optimize(cmd.Context(), frag, compiled.Sets, compiled.Search)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	n := nFragments
	if n > len(res.Beam) {
		n = len(res.Beam)
	}

	fmt.Println("\nEvaluation of selected fragments:")
	for i, member := range res.Beam {
		breakdown := res.Breakdown
		if i > 0 {
			if _, breakdown, err = scoring.Evaluate(member.Fragment, compiled.Sets); err != nil {
				return fmt.Errorf("evaluate beam member %d: %w", i, err)
			}
		}
		fmt.Printf("\nFragment %d:\n%s", i+1, scoring.Report(breakdown, member.Score))
	}
	fmt.Println()

	for i := 0; i < n; i++ {
		dir, err := renderFragment(res.Beam[i].Fragment, compiled.Render, i+1)
		if err != nil {
			return err
		}
		logger.Info("fragment rendered",
			zap.Int("rank", i+1),
			zap.Float64("score", res.Beam[i].Score),
			zap.String("dir", dir))
	}

	return nil
}

// renderFragment writes every rendition of f into its own subdirectory of
// the output directory and returns that subdirectory.
func renderFragment(f *fragment.Fragment, opts render.Options, rank int) (string, error) {
	dir := filepath.Join(outputDir, fmt.Sprintf("fragment_%02d", rank))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	if err := writeFile(filepath.Join(dir, "events.tsv"), func(w io.Writer) error {
		return render.WriteTSV(w, f, opts)
	}); err != nil {
		return "", err
	}
	if err := render.WriteMIDIFile(filepath.Join(dir, "music.mid"), f, opts); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(dir, "content.yml"), func(w io.Writer) error {
		return render.WriteContentYAML(w, f)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(dir, "sheet_music.ly"), func(w io.Writer) error {
		return render.WriteLilypond(w, f)
	}); err != nil {
		return "", err
	}

	return dir, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()

		return fmt.Errorf("write %s: %w", path, err)
	}

	return file.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
