package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmintel/core/internal/apperr"
	"github.com/pharmintel/core/internal/models"
	"github.com/pharmintel/core/pkg/processor"
)

type fakeDocStore struct {
	count     int
	countErr  error
	insertErr error

	insertedDoc    *models.Document
	insertedChunks []models.Chunk
}

func (f *fakeDocStore) InsertDocumentWithChunks(ctx context.Context, doc models.Document, chunks []models.Chunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertedDoc = &doc
	f.insertedChunks = chunks
	return nil
}

func (f *fakeDocStore) GetDocument(ctx context.Context, id, ownerID string) (*models.Document, error) {
	return nil, apperr.New(apperr.NotFound, "not implemented")
}

func (f *fakeDocStore) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	return nil, nil
}

func (f *fakeDocStore) DeleteDocument(ctx context.Context, id, ownerID string) error { return nil }

func (f *fakeDocStore) CountDocuments(ctx context.Context, ownerID string) (int, error) {
	return f.count, f.countErr
}

func (f *fakeDocStore) ListChunks(ctx context.Context, docID string, limit int) ([]models.Chunk, error) {
	return nil, nil
}

func (f *fakeDocStore) SearchChunks(ctx context.Context, docID string, embedding []float32, threshold float32, limit int) ([]models.RetrievedChunk, error) {
	return nil, nil
}

type fakeObjStore struct {
	calls int
	err   error
	path  string
}

func (f *fakeObjStore) Store(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	f.calls++
	f.path = path
	if f.err != nil {
		return "", f.err
	}
	return "s3://test-bucket/" + path, nil
}

type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) Supported(mediaType string) bool {
	return mediaType == "text/plain" || mediaType == "application/pdf"
}

func (f *fakeExtractor) Extract(data []byte, mediaType string) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, f.pages, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func testService(docs *fakeDocStore, objects *fakeObjStore, ext *fakeExtractor, emb *fakeEmbedder) *Service {
	proc := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 10, ChunkOverlap: 2})
	return New(Config{
		MaxFileBytes:  1 << 20,
		FreeTierLimit: 5,
	}, docs, objects, ext, emb, &proc, nil)
}

func TestIngest_HappyPath(t *testing.T) {
	docs := &fakeDocStore{}
	objects := &fakeObjStore{}
	ext := &fakeExtractor{text: words(26), pages: 2}
	emb := &fakeEmbedder{}
	svc := testService(docs, objects, ext, emb)

	doc, chunks, err := svc.Ingest(context.Background(), "user-1", "notice.txt", "text/plain", []byte("payload"))
	require.NoError(t, err)

	// 26 words, size 10, step 8 -> windows at 0, 8, 16, 24.
	assert.Equal(t, 4, chunks)
	require.NotNil(t, docs.insertedDoc)
	assert.Equal(t, doc.ID, docs.insertedDoc.ID)
	assert.Equal(t, "user-1", doc.OwnerID)
	assert.Equal(t, "notice.txt", doc.Name)
	assert.Equal(t, int64(7), doc.SizeBytes)
	assert.True(t, strings.HasPrefix(doc.StoragePath, "s3://test-bucket/user-1/"))
	assert.True(t, strings.HasSuffix(objects.path, "/notice.txt"))

	require.Len(t, docs.insertedChunks, 4)
	for i, c := range docs.insertedChunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, doc.ID, c.DocID)
		assert.Len(t, c.Embedding, 3)
	}
	// 4 chunks over 2 pages: first two on page 1, rest on page 2.
	assert.Equal(t, 1, docs.insertedChunks[0].PageNo)
	assert.Equal(t, 1, docs.insertedChunks[1].PageNo)
	assert.Equal(t, 2, docs.insertedChunks[2].PageNo)
	assert.Equal(t, 2, docs.insertedChunks[3].PageNo)
}

func TestIngest_QuotaExceeded(t *testing.T) {
	docs := &fakeDocStore{count: 5}
	objects := &fakeObjStore{}
	svc := testService(docs, objects, &fakeExtractor{text: "hello world", pages: 1}, &fakeEmbedder{})

	_, _, err := svc.Ingest(context.Background(), "user-1", "sixth.txt", "text/plain", []byte("x"))
	assert.True(t, apperr.IsKind(err, apperr.QuotaExceeded))
	assert.Zero(t, objects.calls, "nothing may be stored once the quota is hit")
}

func TestIngest_UnsupportedTypeFailsFast(t *testing.T) {
	objects := &fakeObjStore{}
	svc := testService(&fakeDocStore{}, objects, &fakeExtractor{}, &fakeEmbedder{})

	_, _, err := svc.Ingest(context.Background(), "user-1", "pic.png", "image/png", []byte("x"))
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedFileType))
	assert.Zero(t, objects.calls)
}

func TestIngest_FileTooLarge(t *testing.T) {
	svc := testService(&fakeDocStore{}, &fakeObjStore{}, &fakeExtractor{}, &fakeEmbedder{})

	_, _, err := svc.Ingest(context.Background(), "user-1", "big.txt", "text/plain", make([]byte, 2<<20))
	assert.True(t, apperr.IsKind(err, apperr.InvalidConfiguration))
}

func TestIngest_EmptyTextRejected(t *testing.T) {
	svc := testService(&fakeDocStore{}, &fakeObjStore{}, &fakeExtractor{text: "   \n\t ", pages: 1}, &fakeEmbedder{})

	_, _, err := svc.Ingest(context.Background(), "user-1", "blank.txt", "text/plain", []byte("x"))
	assert.True(t, apperr.IsKind(err, apperr.UnsupportedFileType))
}

func TestIngest_EmbedderFailureKeepsKind(t *testing.T) {
	emb := &fakeEmbedder{err: apperr.New(apperr.ModelUnavailable, "embedding model offline")}
	svc := testService(&fakeDocStore{}, &fakeObjStore{}, &fakeExtractor{text: words(20), pages: 1}, emb)

	_, _, err := svc.Ingest(context.Background(), "user-1", "n.txt", "text/plain", []byte("x"))
	assert.True(t, apperr.IsKind(err, apperr.ModelUnavailable))
}

func TestIngest_InsertFailureIsPartial(t *testing.T) {
	docs := &fakeDocStore{insertErr: errors.New("connection reset")}
	svc := testService(docs, &fakeObjStore{}, &fakeExtractor{text: words(20), pages: 1}, &fakeEmbedder{})

	_, _, err := svc.Ingest(context.Background(), "user-1", "n.txt", "text/plain", []byte("x"))
	assert.True(t, apperr.IsKind(err, apperr.PartialIngestionFailure))
}

func TestPageForChunk(t *testing.T) {
	tests := []struct {
		ordinal, chunks, pages, want int
	}{
		{0, 10, 1, 1},
		{9, 10, 1, 1},
		{0, 10, 5, 1},
		{1, 10, 5, 1},
		{2, 10, 5, 2},
		{9, 10, 5, 5},
		// More pages than chunks: float division still spreads them.
		{0, 3, 10, 1},
		{1, 3, 10, 4},
		{2, 3, 10, 7},
		// Degenerate inputs clamp to page 1.
		{0, 0, 5, 1},
		{0, 5, 0, 1},
	}

	for _, tt := range tests {
		got := pageForChunk(tt.ordinal, tt.chunks, tt.pages)
		assert.Equal(t, tt.want, got, "ordinal %d of %d chunks over %d pages", tt.ordinal, tt.chunks, tt.pages)
	}
}
