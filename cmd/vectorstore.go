package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/galindo-legaria/alite/pkg/vectorstore"
	"github.com/galindo-legaria/alite/pkg/vectorstore/pinecone"
	"github.com/galindo-legaria/alite/pkg/vectorstore/qdrant"
	"github.com/spf13/cobra"
)

// addVectorStoreFlags registers the flags that select and configure a
// cross-run column-embedding persistence backend. Shared by integrate and
// serve so both build their vectorstore.Store the same way.
func addVectorStoreFlags(c *cobra.Command) {
	c.Flags().String("vector-store", "none", "persist column embeddings between runs: none, pinecone, or qdrant")
	c.Flags().String("vector-store-host", "", "vector store host (qdrant)")
	c.Flags().String("vector-store-api-key", "", "vector store API key (or use ALITE_VECTOR_STORE_API_KEY / PINECONE_API_KEY)")
	c.Flags().String("vector-store-namespace", "", "vector store namespace, scoping table/column keys to one logical project")
	c.Flags().String("vector-store-index", "alite-columns", "Pinecone index name")
	c.Flags().String("vector-store-collection", "alite-columns", "Qdrant collection name")
}

// buildVectorStore constructs the backend selected by --vector-store, or
// returns a nil Store (and nil error) when the flag is left at its "none"
// default. The caller owns the returned Store's lifecycle and must Close it.
func buildVectorStore(ctx context.Context, cmd *cobra.Command) (vectorstore.Store, error) {
	backend, _ := cmd.Flags().GetString("vector-store")
	if backend == "" || backend == "none" {
		return nil, nil
	}

	host, _ := cmd.Flags().GetString("vector-store-host")
	apiKey, _ := cmd.Flags().GetString("vector-store-api-key")
	if apiKey == "" {
		apiKey = os.Getenv("ALITE_VECTOR_STORE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("PINECONE_API_KEY")
	}
	namespace, _ := cmd.Flags().GetString("vector-store-namespace")

	cfg := vectorstore.DefaultConfig()
	cfg.Host = host
	cfg.APIKey = apiKey
	cfg.Namespace = namespace

	switch backend {
	case "pinecone":
		index, _ := cmd.Flags().GetString("vector-store-index")
		return pinecone.NewClient(ctx, index, cfg)
	case "qdrant":
		if cfg.Host == "" {
			cfg.Host = os.Getenv("QDRANT_URL")
		}
		collection, _ := cmd.Flags().GetString("vector-store-collection")
		return qdrant.NewClient(ctx, cfg, qdrant.Options{Collection: collection})
	default:
		return nil, fmt.Errorf("unsupported vector store backend: %q (use none, pinecone, or qdrant)", backend)
	}
}
