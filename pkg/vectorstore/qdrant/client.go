// Package qdrant adapts the Qdrant gRPC SDK into a vectorstore.Store backend
// for persisted column embeddings.
package qdrant

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/galindo-legaria/alite/pkg/vectorstore"
	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client implements vectorstore.Store using Qdrant as the backend.
type Client struct {
	cfg        vectorstore.Config
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
	useTLS     bool
	grpcPort   int
	stats      stats
}

type stats struct {
	upserted int64
	failed   int64
	batches  int64
}

// Options holds Qdrant-specific connection settings beyond vectorstore.Config.
type Options struct {
	Collection string
	UseTLS     bool
	GRPCPort   int
}

// NewClient creates a new Qdrant-backed column vector store.
func NewClient(ctx context.Context, cfg vectorstore.Config, opts Options) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if opts.GRPCPort <= 0 {
		opts.GRPCPort = 6334
	}

	var dialOpts []grpc.DialOption
	if opts.UseTLS {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, opts.GRPCPort)
	conn, err := grpc.DialContext(ctx, addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}

	return &Client{
		cfg:        cfg,
		conn:       conn,
		points:     pb.NewPointsClient(conn),
		collection: opts.Collection,
		useTLS:     opts.UseTLS,
		grpcPort:   opts.GRPCPort,
	}, nil
}

// Upsert writes column vectors, keyed by a UUID derived deterministically
// from the table/column pair so repeat upserts overwrite the same point.
func (c *Client) Upsert(ctx context.Context, vectors []vectorstore.ColumnVector) error {
	if len(vectors) == 0 {
		return nil
	}

	ctx = c.withAPIKey(ctx)

	points := make([]*pb.PointStruct, len(vectors))
	for i, v := range vectors {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: pointUUID(v.Table, v.Column)}},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: v.Values}},
			},
			Payload: map[string]*pb.Value{
				"table":        {Kind: &pb.Value_StringValue{StringValue: v.Table}},
				"column":       {Kind: &pb.Value_StringValue{StringValue: v.Column}},
				"content_hash": {Kind: &pb.Value_StringValue{StringValue: v.ContentHash}},
			},
		}
	}

	waitUpsert := true
	_, err := c.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: c.collection,
		Points:         points,
		Wait:           &waitUpsert,
	})
	if err != nil {
		c.stats.failed += int64(len(vectors))
		return fmt.Errorf("upsert failed: %w", err)
	}

	c.stats.upserted += int64(len(vectors))
	c.stats.batches++
	return nil
}

// Fetch retrieves the stored vector for one table/column key.
func (c *Client) Fetch(ctx context.Context, table, column string) (vectorstore.ColumnVector, error) {
	ctx = c.withAPIKey(ctx)

	resp, err := c.points.Get(ctx, &pb.GetPoints{
		CollectionName: c.collection,
		Ids: []*pb.PointId{
			{PointIdOptions: &pb.PointId_Uuid{Uuid: pointUUID(table, column)}},
		},
		WithPayload: &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors: &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return vectorstore.ColumnVector{}, fmt.Errorf("get point failed: %w", err)
	}
	if len(resp.Result) == 0 {
		return vectorstore.ColumnVector{}, vectorstore.ErrNotFound
	}

	point := resp.Result[0]
	var values []float32
	if point.Vectors != nil {
		if vec := point.Vectors.GetVector(); vec != nil {
			values = vec.Data
		}
	}
	if len(values) == 0 {
		return vectorstore.ColumnVector{}, vectorstore.ErrNotFound
	}

	cv := vectorstore.ColumnVector{Table: table, Column: column, Values: values}
	if point.Payload != nil {
		if h, ok := point.Payload["content_hash"]; ok {
			cv.ContentHash = h.GetStringValue()
		}
	}
	return cv, nil
}

// Stats returns current operation statistics.
func (c *Client) Stats() vectorstore.Stats {
	return vectorstore.Stats{
		UpsertedVectors: c.stats.upserted,
		FailedVectors:   c.stats.failed,
		BatchCount:      c.stats.batches,
	}
}

// Close releases the gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) withAPIKey(ctx context.Context) context.Context {
	if c.cfg.APIKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", c.cfg.APIKey)
}

// pointUUID derives a stable, deterministic Qdrant point id from a
// table/column pair so repeat upserts of the same column always land on
// the same point instead of accumulating duplicates.
func pointUUID(table, column string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(table+"::"+column)).String()
}
