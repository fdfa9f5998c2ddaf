package service

import (
	"context"
	"io"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/recognition"
)

// External collaborators are injected as narrow interfaces so workflows can
// run against fakes in tests (and so storage failures can be simulated
// without touching row-deletion assertions).

// BlobStore is the object-storage contract: put bytes, get a URL back, and
// delete by that URL later.
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, blobURL string) error
}

// ObjectDetector runs image recognition on uploaded bytes.
type ObjectDetector interface {
	Detect(ctx context.Context, imageData []byte, contentType string) ([]recognition.Detection, error)
}

// LanguageModel provides summarization and text embeddings for the RAG
// sidebar.
type LanguageModel interface {
	Summarize(ctx context.Context, text string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// UploadFile is one file from a multipart request.
type UploadFile struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}
