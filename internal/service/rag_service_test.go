package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/cache"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
)

type ragFixture struct {
	svc         *RAGService
	messageRepo *MockMessageRepository
	embedRepo   *MockEmbeddingRepository
	llm         *fakeLanguageModel
	itemID      uint
	threadID    uint
}

func newRAGFixture(t *testing.T) *ragFixture {
	t.Helper()
	groupRepo := NewMockGroupRepository()
	groupRepo.CreateWithPoster(&models.Group{ID: 1, Name: "Family", CreatorID: 1})
	groupRepo.AddMember(1, 2, models.RoleViewer)

	itemRepo := NewMockItemRepository()
	item := &models.Item{UserID: 1, GroupID: 1, Name: "Clock", Status: models.ItemActive}
	if err := itemRepo.CreateWithThread(item); err != nil {
		t.Fatalf("CreateWithThread: %v", err)
	}

	f := &ragFixture{
		messageRepo: NewMockMessageRepository(itemRepo),
		embedRepo:   NewMockEmbeddingRepository(),
		llm:         &fakeLanguageModel{summary: "They discussed the clock."},
		itemID:      item.ID,
		threadID:    item.Thread.ID,
	}
	f.svc = NewRAGService(f.embedRepo, f.messageRepo, itemRepo, groupRepo, f.llm, cache.NewThreadCache(nil))
	return f
}

func (f *ragFixture) seedMessage(t *testing.T, content string) *models.Message {
	t.Helper()
	message := &models.Message{ThreadID: f.threadID, SenderID: 1, Content: content}
	if err := f.messageRepo.Create(message); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return message
}

func TestIndexItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Outsider cannot index", func(t *testing.T) {
		f := newRAGFixture(t)
		_, err := f.svc.IndexItem(ctx, f.itemID, 99)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("IndexItem error = %v, want forbidden", err)
		}
	})

	t.Run("Indexes text messages, skips empty ones", func(t *testing.T) {
		f := newRAGFixture(t)
		f.seedMessage(t, "where did grandpa buy this")
		f.seedMessage(t, "at the market in 1963")
		f.seedMessage(t, "") // attachment-only

		indexed, err := f.svc.IndexItem(ctx, f.itemID, 2)
		if err != nil {
			t.Fatalf("IndexItem: %v", err)
		}
		if indexed != 2 {
			t.Errorf("indexed = %d, want 2", indexed)
		}

		// Re-indexing converges on one row per message.
		if _, err := f.svc.IndexItem(ctx, f.itemID, 2); err != nil {
			t.Fatalf("IndexItem: %v", err)
		}
		hits, _ := f.embedRepo.SearchByItem(f.itemID, pgVectorZero(), 10)
		if len(hits) != 2 {
			t.Errorf("embeddings = %d after re-index, want 2", len(hits))
		}
	})

	t.Run("Embedding failure surfaces as upstream error", func(t *testing.T) {
		f := newRAGFixture(t)
		f.seedMessage(t, "hello")
		f.llm.embedErr = errors.New("quota exceeded")

		_, err := f.svc.IndexItem(ctx, f.itemID, 1)
		if !errors.Is(err, apperr.ErrExternal) {
			t.Errorf("IndexItem error = %v, want external", err)
		}
	})
}

func TestSearchItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Query required", func(t *testing.T) {
		f := newRAGFixture(t)
		_, err := f.svc.SearchItem(ctx, f.itemID, 1, "  ")
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("SearchItem error = %v, want validation", err)
		}
	})

	t.Run("Returns indexed hits", func(t *testing.T) {
		f := newRAGFixture(t)
		f.seedMessage(t, "where did grandpa buy this")
		f.seedMessage(t, "at the market in 1963")
		if _, err := f.svc.IndexItem(ctx, f.itemID, 1); err != nil {
			t.Fatalf("IndexItem: %v", err)
		}

		results, err := f.svc.SearchItem(ctx, f.itemID, 2, "provenance")
		if err != nil {
			t.Fatalf("SearchItem: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("results = %d, want 2", len(results))
		}
		for _, r := range results {
			if r.MessageID == 0 || r.Content == "" {
				t.Errorf("incomplete result: %+v", r)
			}
		}
	})
}

func TestSummarizeItem(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty thread", func(t *testing.T) {
		f := newRAGFixture(t)
		_, err := f.svc.SummarizeItem(ctx, f.itemID, 1)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("SummarizeItem error = %v, want not found", err)
		}
	})

	t.Run("Summarizes the transcript", func(t *testing.T) {
		f := newRAGFixture(t)
		f.seedMessage(t, "where did grandpa buy this")
		f.seedMessage(t, "at the market in 1963")

		summary, err := f.svc.SummarizeItem(ctx, f.itemID, 2)
		if err != nil {
			t.Fatalf("SummarizeItem: %v", err)
		}
		if summary != "They discussed the clock." {
			t.Errorf("summary = %q", summary)
		}
		if len(f.llm.summarized) != 1 {
			t.Fatalf("model calls = %d, want 1", len(f.llm.summarized))
		}
	})

	t.Run("Model failure surfaces as upstream error", func(t *testing.T) {
		f := newRAGFixture(t)
		f.seedMessage(t, "hello")
		f.llm.sumErr = errors.New("model overloaded")

		_, err := f.svc.SummarizeItem(ctx, f.itemID, 1)
		if !errors.Is(err, apperr.ErrExternal) {
			t.Errorf("SummarizeItem error = %v, want external", err)
		}
	})
}
