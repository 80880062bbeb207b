// Package pinecone adapts the Pinecone gRPC SDK into a vectorstore.Store
// backend for persisted column embeddings.
package pinecone

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/galindo-legaria/alite/pkg/vectorstore"
	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client implements vectorstore.Store using Pinecone as the backend.
type Client struct {
	cfg     vectorstore.Config
	pc      *pinecone.Client
	idxConn *pinecone.IndexConnection
	stats   stats
}

type stats struct {
	upserted int64
	failed   int64
	retries  int64
	batches  int64
}

// NewClient creates a new Pinecone-backed column vector store.
func NewClient(ctx context.Context, indexName string, cfg vectorstore.Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if indexName == "" {
		return nil, fmt.Errorf("index name is required")
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30000
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	idx, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %q: %w", indexName, err)
	}

	idxConn, err := pc.Index(pinecone.NewIndexConnParams{
		Host:      idx.Host,
		Namespace: cfg.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	return &Client{cfg: cfg, pc: pc, idxConn: idxConn}, nil
}

// Upsert writes column vectors with exponential-backoff retry on transient
// failures.
func (c *Client) Upsert(ctx context.Context, vectors []vectorstore.ColumnVector) error {
	if len(vectors) == 0 {
		return nil
	}

	pcVectors := make([]*pinecone.Vector, len(vectors))
	for i, v := range vectors {
		values := v.Values
		pcVectors[i] = &pinecone.Vector{
			Id:     v.Table + "::" + v.Column,
			Values: &values,
			Metadata: mustStruct(map[string]interface{}{
				"table":        v.Table,
				"column":       v.Column,
				"content_hash": v.ContentHash,
			}),
		}
	}

	var lastErr error
	backoff := time.Duration(c.cfg.InitialBackoff) * time.Millisecond
	maxBackoff := time.Duration(c.cfg.MaxBackoff) * time.Millisecond

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if attempt > 0 {
			atomic.AddInt64(&c.stats.retries, 1)
			time.Sleep(backoff)
			backoff = time.Duration(math.Min(float64(backoff*2), float64(maxBackoff)))
		}

		_, err := c.idxConn.UpsertVectors(ctx, pcVectors)
		if err == nil {
			atomic.AddInt64(&c.stats.upserted, int64(len(vectors)))
			atomic.AddInt64(&c.stats.batches, 1)
			return nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	atomic.AddInt64(&c.stats.failed, int64(len(vectors)))
	return fmt.Errorf("upsert failed after %d retries: %w", c.cfg.MaxRetries, lastErr)
}

// Fetch retrieves the stored vector for one table/column key.
func (c *Client) Fetch(ctx context.Context, table, column string) (vectorstore.ColumnVector, error) {
	id := table + "::" + column

	resp, err := c.idxConn.FetchVectors(ctx, []string{id})
	if err != nil {
		return vectorstore.ColumnVector{}, fmt.Errorf("fetch failed: %w", err)
	}

	match, ok := resp.Vectors[id]
	if !ok || match.Values == nil {
		return vectorstore.ColumnVector{}, vectorstore.ErrNotFound
	}

	cv := vectorstore.ColumnVector{
		Table:  table,
		Column: column,
		Values: *match.Values,
	}
	if match.Metadata != nil {
		if h, ok := match.Metadata.AsMap()["content_hash"].(string); ok {
			cv.ContentHash = h
		}
	}
	return cv, nil
}

// Stats returns current operation statistics.
func (c *Client) Stats() vectorstore.Stats {
	return vectorstore.Stats{
		UpsertedVectors: atomic.LoadInt64(&c.stats.upserted),
		FailedVectors:   atomic.LoadInt64(&c.stats.failed),
		RetryCount:      atomic.LoadInt64(&c.stats.retries),
		BatchCount:      atomic.LoadInt64(&c.stats.batches),
	}
}

// Close closes the index connection.
func (c *Client) Close() error {
	if c.idxConn != nil {
		return c.idxConn.Close()
	}
	return nil
}

func mustStruct(m map[string]interface{}) *structpb.Struct {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil
	}
	return s
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "unavailable") ||
		strings.Contains(errStr, "temporarily")
}
