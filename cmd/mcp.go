package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/galindo-legaria/alite/pkg/embedding"
	"github.com/galindo-legaria/alite/pkg/embedding/openai"
	"github.com/galindo-legaria/alite/pkg/fd"
	"github.com/galindo-legaria/alite/pkg/ingest"
	"github.com/galindo-legaria/alite/pkg/telemetry"
	"github.com/galindo-legaria/alite/pkg/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start alite as an MCP server",
	Long: `Starts alite as a Model Context Protocol (MCP) server.

This allows AI assistants like Claude, Amp, and Cursor to compute full
disjunctions of tables they hold in context, without shelling out to the CLI.

Transports:
  stdio (default) - For local desktop apps (Claude Desktop, Cursor)
  http            - For remote/cloud deployments (hosted MCP server)

Tools exposed:
  integrate_tables - Compute the full disjunction of a set of tables

Resources exposed:
  alite://config - Current integration defaults

Example:
  # Local stdio server (Claude Desktop, Cursor, Amp)
  alite mcp

  # Remote HTTP server (hosted deployment)
  alite mcp --transport http --port 8081

Configure in Claude Desktop (claude_desktop_config.json):
  {
    "mcpServers": {
      "alite": {
        "command": "alite",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport type: stdio or http")
	mcpCmd.Flags().Int("port", 8081, "HTTP server port (for http transport)")
	mcpCmd.Flags().String("host", "0.0.0.0", "HTTP server host (for http transport)")

	mcpCmd.Flags().String("openai-key", "", "OpenAI API key for embeddings (or use OPENAI_API_KEY)")
	mcpCmd.Flags().String("embedding-model", "text-embedding-3-small", "OpenAI embedding model")

	mcpCmd.Flags().Int("k-min", 1, "default minimum candidate cluster count")
	mcpCmd.Flags().Int("k-max", 0, "default exclusive upper bound on candidate cluster count (0 = total column count)")
	mcpCmd.Flags().Int("sample-size", 100, "default values sampled per column for embedding")
	mcpCmd.Flags().Int("embedding-cache-size", 10000, "max entries in the in-process text-embedding cache")
	addVectorStoreFlags(mcpCmd)
	addTracingFlags(mcpCmd)
}

// MCPServer wraps the MCP server with alite's integration capability.
type MCPServer struct {
	encoder embedding.Provider
	cfg     fd.Config
	tracer  *telemetry.Provider
}

func runMCP(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	openaiKey, _ := cmd.Flags().GetString("openai-key")
	embeddingModel, _ := cmd.Flags().GetString("embedding-model")
	kMin, _ := cmd.Flags().GetInt("k-min")
	kMax, _ := cmd.Flags().GetInt("k-max")
	sampleSize, _ := cmd.Flags().GetInt("sample-size")
	embeddingCacheSize, _ := cmd.Flags().GetInt("embedding-cache-size")

	if openaiKey == "" {
		openaiKey = viper.GetString("openai_api_key")
	}
	if openaiKey == "" {
		return fmt.Errorf("OpenAI API key required (--openai-key or OPENAI_API_KEY)")
	}

	openaiClient, err := openai.NewClient(openai.Config{APIKey: openaiKey, Model: embeddingModel})
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	encoder := embedding.NewCachedProvider(openaiClient, embeddingCacheSize)

	ctx := context.Background()

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

	cfg := fd.DefaultConfig()
	cfg.Assign.KMin = kMin
	cfg.Assign.KMax = kMax
	cfg.Assign.SampleSize = sampleSize
	cfg.Store = store
	cfg.Tracer = tracer

	mcpSrv := &MCPServer{encoder: encoder, cfg: cfg, tracer: tracer}

	s := server.NewMCPServer(
		"alite",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	mcpSrv.registerTools(s)
	mcpSrv.registerResources(s)

	switch transport {
	case "stdio":
		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}

	case "http":
		addr := fmt.Sprintf("%s:%d", host, port)
		fmt.Printf("alite MCP server starting on http://%s\n", addr)
		fmt.Printf("  Endpoint: http://%s/mcp\n", addr)
		fmt.Printf("  Health:   http://%s/health\n", addr)
		fmt.Println()

		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok","server":"alite-mcp"}`))
		})

		mcpHandler := server.NewStreamableHTTPServer(s, server.WithStateful(true))
		mux.Handle("/mcp", mcpHandler)

		httpServer := &http.Server{Addr: addr, Handler: mux}
		if err := httpServer.ListenAndServe(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

	default:
		return fmt.Errorf("unsupported transport: %s (use 'stdio' or 'http')", transport)
	}

	return nil
}

func (m *MCPServer) registerTools(s *server.MCPServer) {
	integrateTool := mcp.NewTool("integrate_tables",
		mcp.WithDescription(`Compute the full disjunction of a set of relational tables.

WHEN TO USE: Call this tool when you have two or more tables that describe
the same entities under different, unaligned schemas (renamed columns,
different subsets of attributes, no shared key) and need one merged table
that loses no information from any input.

INPUT: An array of tables, each with a name, a column header, and rows of
string cells (empty string means null).
OUTPUT: The integrated table's header, rows, and a run report (achieved
cluster count, silhouette score, any complement/subsumption warnings).`),
		mcp.WithArray("tables",
			mcp.Required(),
			mcp.Description("Array of {name, columns, rows} objects. 'rows' is an array of string arrays aligned to 'columns'."),
		),
	)

	s.AddTool(integrateTool, m.handleIntegrateTables)
}

func (m *MCPServer) registerResources(s *server.MCPServer) {
	configResource := mcp.NewResource(
		"alite://config",
		"alite Configuration",
		mcp.WithResourceDescription("Current integration defaults"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(configResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		config := map[string]interface{}{
			"defaults": map[string]interface{}{
				"k_min":       m.cfg.Assign.KMin,
				"k_max":       m.cfg.Assign.KMax,
				"sample_size": m.cfg.Assign.SampleSize,
			},
		}
		configJSON, _ := json.MarshalIndent(config, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "alite://config",
				MIMEType: "application/json",
				Text:     string(configJSON),
			},
		}, nil
	})
}

// mcpTableInput mirrors IntegrateTable for MCP tool-call arguments.
type mcpTableInput struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (m *MCPServer) handleIntegrateTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	tablesRaw, ok := args["tables"]
	if !ok {
		return mcp.NewToolResultError("tables parameter is required"), nil
	}

	tablesJSON, err := json.Marshal(tablesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid tables format: %v", err)), nil
	}

	var inputs []mcpTableInput
	if err := json.Unmarshal(tablesJSON, &inputs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse tables: %v", err)), nil
	}
	if len(inputs) == 0 {
		return mcp.NewToolResultError("tables array is empty"), nil
	}

	raw := make([]*types.RawTable, len(inputs))
	for i, t := range inputs {
		if t.Name == "" {
			return mcp.NewToolResultError(fmt.Sprintf("table %d is missing a name", i)), nil
		}
		var b strings.Builder
		b.WriteString(strings.Join(t.Columns, ","))
		b.WriteString("\n")
		for _, row := range t.Rows {
			b.WriteString(strings.Join(row, ","))
			b.WriteString("\n")
		}
		table, err := ingest.ReadCSV(t.Name, strings.NewReader(b.String()))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("table %q: %v", t.Name, err)), nil
		}
		raw[i] = table
	}

	reqCtx, reqSpan := m.tracer.StartRequest(ctx, "integrate_tables")
	defer reqSpan.End()

	engine := fd.New(m.cfg, m.encoder)
	result, stats, err := engine.Integrate(reqCtx, raw)
	if err != nil {
		telemetry.RecordError(reqSpan, err)
		return mcp.NewToolResultError(fmt.Sprintf("integration failed: %v", err)), nil
	}

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

	response := map[string]interface{}{
		"columns": header,
		"rows":    rows,
		"stats": map[string]interface{}{
			"input_tables":     stats.InputTables,
			"input_columns":    stats.InputColumns,
			"input_tuples":     stats.InputTuples,
			"achieved_k":       stats.AchievedK,
			"silhouette_score": stats.SilhouetteScore,
			"output_columns":   stats.OutputColumns,
			"output_tuples":    stats.OutputTuples,
			"warnings":         stats.Warnings,
		},
	}

	resultJSON, _ := json.MarshalIndent(response, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}
