package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/galindo-legaria/alite/pkg/embedding"
	"github.com/galindo-legaria/alite/pkg/embedding/openai"
	"github.com/galindo-legaria/alite/pkg/fd"
	"github.com/galindo-legaria/alite/pkg/ingest"
	"github.com/galindo-legaria/alite/pkg/metrics"
	"github.com/galindo-legaria/alite/pkg/telemetry"
	"github.com/galindo-legaria/alite/pkg/types"
	"github.com/galindo-legaria/alite/pkg/vectorstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the alite HTTP integration server",
	Long: `Starts an HTTP server that computes full disjunctions of
posted tables on demand.

Example:
  alite serve --port 8080

The server exposes:
  POST /v1/integrate - Integrate a set of tables and return the result
  GET  /health       - Health check
  GET  /metrics      - Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "HTTP server port")
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().String("openai-key", "", "OpenAI API key for embeddings (or use OPENAI_API_KEY)")
	serveCmd.Flags().String("embedding-model", "text-embedding-3-small", "OpenAI embedding model")
	serveCmd.Flags().String("api-keys", "", "Comma-separated list of valid API keys (or use ALITE_API_KEYS)")
	serveCmd.Flags().Int("k-min", 1, "minimum candidate cluster count")
	serveCmd.Flags().Int("k-max", 0, "exclusive upper bound on candidate cluster count (0 = total column count)")
	serveCmd.Flags().Int("sample-size", 100, "values sampled per column for embedding")
	serveCmd.Flags().Int("embedding-cache-size", 10000, "max entries in the in-process text-embedding cache")
	addVectorStoreFlags(serveCmd)
	addTracingFlags(serveCmd)

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("embedding.model", serveCmd.Flags().Lookup("embedding-model"))
	_ = viper.BindPFlag("integrate.sample_size", serveCmd.Flags().Lookup("sample-size"))
}

// Server holds the HTTP server state.
type Server struct {
	encoder   embedding.Provider
	cfg       fd.Config
	metrics   *metrics.Metrics
	validKeys map[string]bool
	hasAuth   bool
	store     vectorstore.Store
	tracer    *telemetry.Provider
}

// IntegrateRequest is the JSON request body for /v1/integrate: one entry
// per source table, each shaped like a parsed CSV file (header + string
// rows, empty string meaning null).
type IntegrateRequest struct {
	Tables []IntegrateTable `json:"tables"`
}

// IntegrateTable is one source table in an IntegrateRequest.
type IntegrateTable struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// IntegrateResponse is the JSON response for /v1/integrate.
type IntegrateResponse struct {
	Columns []string            `json:"columns"`
	Rows    [][]string          `json:"rows"`
	Stats   IntegrateStatsReply `json:"stats"`
}

// IntegrateStatsReply mirrors fd.Statistics for the wire.
type IntegrateStatsReply struct {
	InputTables     int      `json:"input_tables"`
	InputColumns    int      `json:"input_columns"`
	InputTuples     int      `json:"input_tuples"`
	AchievedK       int      `json:"achieved_k"`
	SilhouetteScore float64  `json:"silhouette_score"`
	OutputColumns   int      `json:"output_columns"`
	OutputTuples    int      `json:"output_tuples"`
	Warnings        []string `json:"warnings,omitempty"`
	LatencyMs       int64    `json:"latency_ms"`
}

func runServe(cmd *cobra.Command, args []string) error {
	port := viper.GetInt("server.port")
	host := viper.GetString("server.host")
	openaiKey, _ := cmd.Flags().GetString("openai-key")
	embeddingModel := viper.GetString("embedding.model")
	apiKeysStr, _ := cmd.Flags().GetString("api-keys")
	kMin, _ := cmd.Flags().GetInt("k-min")
	kMax, _ := cmd.Flags().GetInt("k-max")
	sampleSize := viper.GetInt("integrate.sample_size")
	embeddingCacheSize, _ := cmd.Flags().GetInt("embedding-cache-size")

	if openaiKey == "" {
		openaiKey = viper.GetString("openai_api_key")
	}
	if apiKeysStr == "" {
		apiKeysStr = os.Getenv("ALITE_API_KEYS")
	}

	validKeys := make(map[string]bool)
	if apiKeysStr != "" {
		for _, key := range strings.Split(apiKeysStr, ",") {
			key = strings.TrimSpace(key)
			if key != "" {
				validKeys[key] = true
			}
		}
	}

	if openaiKey == "" {
		return fmt.Errorf("OpenAI API key required (--openai-key or OPENAI_API_KEY)")
	}
	openaiClient, err := openai.NewClient(openai.Config{APIKey: openaiKey, Model: embeddingModel})
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	encoder := embedding.NewCachedProvider(openaiClient, embeddingCacheSize)

	ctx := context.Background()

	store, err := buildVectorStore(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}

	tracer, err := buildTracer(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	cfg := fd.DefaultConfig()
	cfg.Assign.KMin = kMin
	cfg.Assign.KMax = kMax
	cfg.Assign.SampleSize = sampleSize
	cfg.Store = store
	cfg.Tracer = tracer

	m := metrics.New()

	server := &Server{
		encoder:   encoder,
		cfg:       cfg,
		metrics:   m,
		validKeys: validKeys,
		hasAuth:   len(validKeys) > 0,
		store:     store,
		tracer:    tracer,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/integrate", m.Middleware("/v1/integrate", server.handleIntegrate))
	mux.HandleFunc("/health", server.handleHealth)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m.Handler().ServeHTTP(w, r)
	})

	handler := corsMiddleware(mux)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Fprintln(os.Stderr, "\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Server shutdown error: %v\n", err)
		}
		if server.store != nil {
			_ = server.store.Close()
		}
		_ = server.tracer.Shutdown(ctx)
		close(done)
	}()

	fmt.Printf("alite server starting on %s\n", addr)
	fmt.Printf("  Embedding model: %s\n", embeddingModel)
	fmt.Printf("  Auth: %v (%d keys)\n", server.hasAuth, len(validKeys))
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Printf("  POST http://%s/v1/integrate\n", addr)
	fmt.Printf("  GET  http://%s/health\n", addr)
	fmt.Printf("  GET  http://%s/metrics\n", addr)
	fmt.Println()

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	fmt.Println("Server stopped")
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIntegrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.hasAuth {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if !s.validKeys[token] {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
	}

	var req IntegrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Tables) == 0 {
		http.Error(w, "At least one table is required", http.StatusBadRequest)
		return
	}

	start := time.Now()

	ctx, reqSpan := s.tracer.StartRequest(r.Context(), "/v1/integrate")
	defer reqSpan.End()

	raw := make([]*types.RawTable, len(req.Tables))
	for i, t := range req.Tables {
		if t.Name == "" {
			http.Error(w, fmt.Sprintf("table %d is missing a name", i), http.StatusBadRequest)
			return
		}
		rendered := renderCSV(t)
		table, err := ingest.ReadCSV(t.Name, strings.NewReader(rendered))
		if err != nil {
			http.Error(w, fmt.Sprintf("table %q: %v", t.Name, err), http.StatusBadRequest)
			return
		}
		raw[i] = table
	}

	engine := fd.New(s.cfg, s.encoder)
	result, stats, err := engine.Integrate(ctx, raw)
	if err != nil {
		telemetry.RecordError(reqSpan, err)
		http.Error(w, fmt.Sprintf("Integration failed: %v", err), http.StatusInternalServerError)
		return
	}

	latency := time.Since(start)
	telemetry.RecordResult(reqSpan, stats.InputTuples, stats.OutputTuples, stats.AchievedK, latency)

	cols := result.SortedColumns()
	header := make([]string, len(cols))
	for i, id := range cols {
		header[i] = result.ColumnNames[id]
	}

	rows := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		record := make([]string, len(cols))
		for j, id := range cols {
			record[j] = row[id].String()
		}
		rows[i] = record
	}

	resp := IntegrateResponse{
		Columns: header,
		Rows:    rows,
		Stats: IntegrateStatsReply{
			InputTables:     stats.InputTables,
			InputColumns:    stats.InputColumns,
			InputTuples:     stats.InputTuples,
			AchievedK:       stats.AchievedK,
			SilhouetteScore: stats.SilhouetteScore,
			OutputColumns:   stats.OutputColumns,
			OutputTuples:    stats.OutputTuples,
			Warnings:        stats.Warnings,
			LatencyMs:       latency.Milliseconds(),
		},
	}

	complementWarnings := 0
	for _, w := range stats.Warnings {
		if strings.HasPrefix(w, "complement:") {
			complementWarnings++
		}
	}
	s.metrics.RecordIntegration("/v1/integrate", stats.InputTuples, stats.OutputTuples, stats.AchievedK, stats.SilhouetteScore, complementWarnings)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// renderCSV re-encodes a posted IntegrateTable as CSV text so the handler
// can share ingest.ReadCSV's column-type inference with the CLI path
// instead of duplicating it.
func renderCSV(t IntegrateTable) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, ","))
	b.WriteString("\n")
	for _, row := range t.Rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
