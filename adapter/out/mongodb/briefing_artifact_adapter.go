// Package mongodb implements MongoDB adapters for the application.
package mongodb

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
)

const (
	collectionArtifacts = "briefing_artifacts"

	// Artifacts above this size are stored gzip-compressed.
	artifactCompressionThreshold = 512
)

// ArtifactAdapter implements out.ArtifactStorePort using MongoDB.
type ArtifactAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
	ttl        time.Duration
}

var _ out.ArtifactStorePort = (*ArtifactAdapter)(nil)

// NewArtifactAdapter creates a new MongoDB artifact adapter.
func NewArtifactAdapter(db *mongo.Database, ttl time.Duration) *ArtifactAdapter {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &ArtifactAdapter{
		db:         db,
		collection: db.Collection(collectionArtifacts),
		ttl:        ttl,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ArtifactAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "generated_at", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// artifactDocument represents the MongoDB document structure.
type artifactDocument struct {
	RunID       string    `bson:"run_id"`
	GeneratedAt time.Time `bson:"generated_at"`

	// Content (potentially compressed JSON)
	Content      []byte `bson:"content"`
	IsCompressed bool   `bson:"is_compressed"`

	// Summary fields queryable without decompressing Content
	ThreadsAnalyzed int `bson:"threads_analyzed"`
	TasksCreated    int `bson:"tasks_created"`

	OriginalSize   int64 `bson:"original_size"`
	CompressedSize int64 `bson:"compressed_size"`

	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Persist stores the artifact, replacing any document for the same run.
func (a *ArtifactAdapter) Persist(ctx context.Context, artifact *domain.RunArtifact) error {
	doc, err := a.toDocument(artifact)
	if err != nil {
		return fmt.Errorf("failed to convert artifact to document: %w", err)
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"run_id": artifact.Result.RunID}

	if _, err := a.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// GetByRunID retrieves an artifact by run ID. Missing artifacts return
// nil without error.
func (a *ArtifactAdapter) GetByRunID(ctx context.Context, runID string) (*domain.RunArtifact, error) {
	var doc artifactDocument
	err := a.collection.FindOne(ctx, bson.M{"run_id": runID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a.toArtifact(&doc)
}

func (a *ArtifactAdapter) toDocument(artifact *domain.RunArtifact) (*artifactDocument, error) {
	content, err := json.Marshal(artifact)
	if err != nil {
		return nil, err
	}

	doc := &artifactDocument{
		RunID:           artifact.Result.RunID,
		GeneratedAt:     artifact.Result.GeneratedAtUTC,
		ThreadsAnalyzed: artifact.Result.ThreadsAnalyzed,
		TasksCreated:    artifact.Result.TasksCreated,
		OriginalSize:    int64(len(content)),
		CreatedAt:       time.Now().UTC(),
		ExpiresAt:       time.Now().UTC().Add(a.ttl),
	}

	if len(content) > artifactCompressionThreshold {
		compressed, err := compress(content)
		if err != nil {
			return nil, err
		}
		doc.Content = compressed
		doc.IsCompressed = true
		doc.CompressedSize = int64(len(compressed))
	} else {
		doc.Content = content
		doc.CompressedSize = int64(len(content))
	}

	return doc, nil
}

func (a *ArtifactAdapter) toArtifact(doc *artifactDocument) (*domain.RunArtifact, error) {
	content := doc.Content
	if doc.IsCompressed {
		decompressed, err := decompress(content)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress artifact: %w", err)
		}
		content = decompressed
	}

	var artifact domain.RunArtifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}
	return &artifact, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
