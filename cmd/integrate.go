package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/galindo-legaria/alite/pkg/complement"
	"github.com/galindo-legaria/alite/pkg/embedding"
	"github.com/galindo-legaria/alite/pkg/embedding/openai"
	"github.com/galindo-legaria/alite/pkg/fd"
	"github.com/galindo-legaria/alite/pkg/ingest"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Compute the full disjunction of a set of CSV tables",
	Long: `Loads one CSV file per source table, clusters equivalent columns,
and computes their full disjunction: the minimal set of tuples that carries
every fact present in any input table, with no information loss.

Example:
  alite integrate --file employees.csv --file contractors.csv --out merged.csv`,
	RunE: runIntegrate,
}

func init() {
	rootCmd.AddCommand(integrateCmd)

	integrateCmd.Flags().StringArrayP("file", "f", nil, "path to a source CSV table (repeatable, required)")
	integrateCmd.Flags().StringP("out", "o", "", "output CSV path (default: stdout)")
	integrateCmd.Flags().Int("k-min", 1, "minimum candidate cluster count")
	integrateCmd.Flags().Int("k-max", 0, "exclusive upper bound on candidate cluster count (0 = total column count)")
	integrateCmd.Flags().Int("sample-size", 100, "values sampled per column for embedding")
	integrateCmd.Flags().Int64("seed", 0, "random seed for column sampling (0 = deterministic default)")
	integrateCmd.Flags().Int("max-complement-iterations", complement.DefaultMaxIterations, "fixed-point iteration cap for complementation")
	integrateCmd.Flags().Int("embedding-cache-size", 10000, "max entries in the in-process text-embedding cache")
	addVectorStoreFlags(integrateCmd)
	addTracingFlags(integrateCmd)

	_ = integrateCmd.MarkFlagRequired("file")

	_ = viper.BindPFlag("integrate.sample_size", integrateCmd.Flags().Lookup("sample-size"))
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	files, _ := cmd.Flags().GetStringArray("file")
	out, _ := cmd.Flags().GetString("out")
	kMin, _ := cmd.Flags().GetInt("k-min")
	kMax, _ := cmd.Flags().GetInt("k-max")
	sampleSize, _ := cmd.Flags().GetInt("sample-size")
	seed, _ := cmd.Flags().GetInt64("seed")
	maxIter, _ := cmd.Flags().GetInt("max-complement-iterations")
	embeddingCacheSize, _ := cmd.Flags().GetInt("embedding-cache-size")
	verbose := viper.GetBool("verbose")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	apiKey := viper.GetString("openai_api_key")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required to embed columns")
	}
	openaiClient, err := openai.NewClient(openai.Config{APIKey: apiKey})
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	encoder := embedding.NewCachedProvider(openaiClient, embeddingCacheSize)

	store, err := buildVectorStore(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	tracer, err := buildTracer(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = tracer.Shutdown(ctx) }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Loading %d source tables...\n", len(files))
	}

	loader := ingest.NewLoader(ingest.DefaultConfig())
	raw, _, err := loader.LoadFiles(ctx, files, nil)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	cfg := fd.DefaultConfig()
	cfg.Assign.KMin = kMin
	cfg.Assign.KMax = kMax
	cfg.Assign.SampleSize = sampleSize
	cfg.Assign.Seed = seed
	cfg.Complement.MaxIterations = maxIter
	cfg.Store = store
	cfg.Tracer = tracer

	bar := progressbar.NewOptions(len(raw),
		progressbar.OptionSetDescription("integrating"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	_ = bar.Add(len(raw))

	engine := fd.New(cfg, encoder)
	result, stats, err := engine.Integrate(ctx, raw)
	if err != nil {
		return fmt.Errorf("integration failed: %w", err)
	}

	if out == "" {
		if err := ingest.WriteCSV(os.Stdout, result); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	} else {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		if err := ingest.WriteCSV(f, result); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	printIntegrationReport(stats, time.Now())
	return nil
}

func printIntegrationReport(stats *fd.Statistics, at time.Time) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "=== Full Disjunction Report ===")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Input tables:            %d\n", stats.InputTables)
	fmt.Fprintf(os.Stderr, "Input columns:           %d\n", stats.InputColumns)
	fmt.Fprintf(os.Stderr, "Input tuples:            %d\n", stats.InputTuples)
	fmt.Fprintf(os.Stderr, "Clusters formed (k):     %d\n", stats.AchievedK)
	fmt.Fprintf(os.Stderr, "Silhouette score:        %.3f\n", stats.SilhouetteScore)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Output columns:          %d\n", stats.OutputColumns)
	fmt.Fprintf(os.Stderr, "Output tuples:           %d\n", stats.OutputTuples)
	fmt.Fprintln(os.Stderr)

	if len(stats.Warnings) > 0 {
		fmt.Fprintln(os.Stderr, "Warnings:")
		for _, w := range stats.Warnings {
			fmt.Fprintf(os.Stderr, "  - %s\n", w)
		}
	} else {
		fmt.Fprintln(os.Stderr, "No warnings.")
	}
}
