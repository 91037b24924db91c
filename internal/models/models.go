package models

import "time"

// Document is an uploaded file owned by exactly one user. Deleting a
// document cascades to its chunks.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	MediaType   string    `json:"media_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chunk is one overlapping window of a document's text, the unit of
// embedding and retrieval. Ordinal ordering within a document is stable
// and determines page attribution.
type Chunk struct {
	DocID     string    `json:"doc_id"`
	Ordinal   int       `json:"ordinal"`
	PageNo    int       `json:"page_no"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// RetrievedChunk is a chunk returned by similarity search together with
// its cosine similarity to the query.
type RetrievedChunk struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

// Source is one monitored regulatory page. The first successful fetch
// records it in the store; later fetches compare against that record.
type Source struct {
	Authority string `json:"authority" yaml:"authority"`
	URL       string `json:"url" yaml:"url"`
	Selector  string `json:"selector" yaml:"selector"`
}

// TrackedSource is the persisted state of a monitored source.
type TrackedSource struct {
	ID          int64
	Authority   string
	URL         string
	Selector    string
	ContentHash string
	LastContent string
	LastChecked time.Time
}

// ChangeEvent is emitted when a tracked source's normalized content hash
// differs from the stored one.
type ChangeEvent struct {
	Authority  string `json:"authority"`
	URL        string `json:"url"`
	OldContent string `json:"-"`
	NewContent string `json:"-"`
}

// Alert is the user-visible record of one detected content change.
// Append-only.
type Alert struct {
	ID        int64     `json:"id"`
	Authority string    `json:"authority"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// AnswerSource points back at the chunk an answer was grounded on.
type AnswerSource struct {
	Page       int     `json:"page"`
	Similarity float32 `json:"similarity"`
	Snippet    string  `json:"snippet"`
}

// Answer is the response to a document question. Not persisted.
type Answer struct {
	Answer  string         `json:"answer"`
	Sources []AnswerSource `json:"sources"`
}

// QuizQuestion is one generated multiple-choice question. Produced per
// request, never stored.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}
