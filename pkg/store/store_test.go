package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
)

// testStore connects to the database named by DATABASE_URL. Tests are
// skipped when it is unset so the suite runs without Postgres.
func testStore(t *testing.T) *Store {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set, skipping store tests")
	}

	s, err := NewWithConfig(context.Background(), StoreConfig{
		ConnString: connString,
		VectorDim:  4,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func testEmbedding(seed float32) []float32 {
	return []float32{seed, 1 - seed, 0.5, 0.1}
}

func insertTestDocument(t *testing.T, s *Store, ownerID string, chunks int) models.Document {
	t.Helper()

	doc := models.Document{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        "recall-notice.pdf",
		MediaType:   "application/pdf",
		SizeBytes:   2048,
		StoragePath: "s3://test/" + uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
	}

	var cs []models.Chunk
	for i := 0; i < chunks; i++ {
		cs = append(cs, models.Chunk{
			DocID:     doc.ID,
			Ordinal:   i,
			PageNo:    i + 1,
			Content:   fmt.Sprintf("chunk %d content", i),
			Embedding: testEmbedding(float32(i) / 10),
		})
	}

	require.NoError(t, s.InsertDocumentWithChunks(context.Background(), doc, cs))
	return doc
}

func TestDocumentLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	doc := insertTestDocument(t, s, owner, 3)

	got, err := s.GetDocument(ctx, doc.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)

	// A different owner must not see the document.
	_, err = s.GetDocument(ctx, doc.ID, "someone-else")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))

	count, err := s.CountDocuments(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	chunks, err := s.ListChunks(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 2, chunks[2].Ordinal)

	require.NoError(t, s.DeleteDocument(ctx, doc.ID, owner))

	// Chunks cascade with the document.
	chunks, err = s.ListChunks(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	err = s.DeleteDocument(ctx, doc.ID, owner)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestSearchChunks_ScopedToDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	owner := "owner-" + uuid.NewString()

	docA := insertTestDocument(t, s, owner, 2)
	docB := insertTestDocument(t, s, owner, 2)
	t.Cleanup(func() {
		_ = s.DeleteDocument(ctx, docA.ID, owner)
		_ = s.DeleteDocument(ctx, docB.ID, owner)
	})

	results, err := s.SearchChunks(ctx, docA.ID, testEmbedding(0), 0.0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, docA.ID, r.DocID)
	}
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestSourceStateMachine(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	url := "https://example.test/" + uuid.NewString()

	got, err := s.GetSourceByURL(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got, "unseen source must come back nil")

	require.NoError(t, s.InsertSource(ctx, models.TrackedSource{
		Authority:   "FDA",
		URL:         url,
		Selector:    ".main-content",
		ContentHash: "hash-v1",
		LastContent: "first version",
	}))

	got, err = s.GetSourceByURL(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash-v1", got.ContentHash)

	require.NoError(t, s.UpdateSourceContent(ctx, url, "hash-v2", "second version"))

	got, err = s.GetSourceByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "hash-v2", got.ContentHash)
	assert.Equal(t, "second version", got.LastContent)
}

func TestAlerts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertAlert(ctx, models.Alert{
		Authority: "EMA",
		Title:     "Update detected on EMA",
		Summary:   "New safety communication published.",
		URL:       "https://example.test/ema",
	}))

	alerts, err := s.ListAlerts(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.LessOrEqual(t, len(alerts), 5)
	assert.NotZero(t, alerts[0].CreatedAt)
}
