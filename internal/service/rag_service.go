package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/cache"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// SearchLimit caps how many indexed messages a sidebar search returns.
const SearchLimit = 5

// RAGService powers the item sidebar: it indexes thread messages into the
// vector store, answers similarity searches against them and produces cached
// thread summaries.
type RAGService struct {
	embeddingRepo repository.EmbeddingRepositoryInterface
	messageRepo   repository.MessageRepositoryInterface
	itemRepo      repository.ItemRepositoryInterface
	groupRepo     repository.GroupRepositoryInterface
	llm           LanguageModel
	threadCache   *cache.ThreadCache
}

func NewRAGService(
	embeddingRepo repository.EmbeddingRepositoryInterface,
	messageRepo repository.MessageRepositoryInterface,
	itemRepo repository.ItemRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	llm LanguageModel,
	threadCache *cache.ThreadCache,
) *RAGService {
	return &RAGService{
		embeddingRepo: embeddingRepo,
		messageRepo:   messageRepo,
		itemRepo:      itemRepo,
		groupRepo:     groupRepo,
		llm:           llm,
		threadCache:   threadCache,
	}
}

func (s *RAGService) authorizeItem(itemID, requesterID uint) (*models.Item, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("item")
		}
		return nil, err
	}

	isMember, err := s.groupRepo.IsMember(item.GroupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return item, nil
}

// IndexItem embeds every text message in the item's thread and upserts the
// vectors, so re-indexing after edits or deletions converges on one row per
// surviving message. Attachment-only messages are skipped.
func (s *RAGService) IndexItem(ctx context.Context, itemID, requesterID uint) (int, error) {
	if _, err := s.authorizeItem(itemID, requesterID); err != nil {
		return 0, err
	}
	if s.llm == nil {
		return 0, apperr.External("embedding", errors.New("language model not configured"))
	}

	messages, err := s.messageRepo.ListByItem(itemID)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, message := range messages {
		content := strings.TrimSpace(message.Content)
		if content == "" {
			continue
		}

		vector, err := s.llm.Embed(ctx, content)
		if err != nil {
			return indexed, apperr.External("embedding", err)
		}

		embedding := &models.MessageEmbedding{
			ItemID:    itemID,
			MessageID: message.ID,
			Content:   content,
			Embedding: pgvector.NewVector(vector),
		}
		if err := s.embeddingRepo.Upsert(embedding); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

// SearchResult is one sidebar hit: the indexed message text plus its id so the
// client can jump to it in the thread.
type SearchResult struct {
	MessageID uint   `json:"message_id"`
	Content   string `json:"content"`
}

// SearchItem finds the indexed messages closest to the query within one
// item's thread.
func (s *RAGService) SearchItem(ctx context.Context, itemID, requesterID uint, query string) ([]SearchResult, error) {
	if _, err := s.authorizeItem(itemID, requesterID); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("search query is required")
	}
	if s.llm == nil {
		return nil, apperr.External("embedding", errors.New("language model not configured"))
	}

	vector, err := s.llm.Embed(ctx, query)
	if err != nil {
		return nil, apperr.External("embedding", err)
	}

	hits, err := s.embeddingRepo.SearchByItem(itemID, pgvector.NewVector(vector), SearchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{MessageID: hit.MessageID, Content: hit.Content})
	}
	return results, nil
}

// SummarizeItem returns a summary of the item's thread, cached for a while so
// repeated sidebar opens don't re-run the model.
func (s *RAGService) SummarizeItem(ctx context.Context, itemID, requesterID uint) (string, error) {
	item, err := s.authorizeItem(itemID, requesterID)
	if err != nil {
		return "", err
	}

	if summary, ok := s.threadCache.GetSummary(itemID); ok {
		return summary, nil
	}

	if s.llm == nil {
		return "", apperr.External("summarization", errors.New("language model not configured"))
	}

	messages, err := s.messageRepo.ListByItem(itemID)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", apperr.NotFound("thread messages")
	}

	var transcript strings.Builder
	fmt.Fprintf(&transcript, "Item: %s\n", item.Name)
	for _, message := range messages {
		if strings.TrimSpace(message.Content) == "" {
			continue
		}
		fmt.Fprintf(&transcript, "%s: %s\n", message.Sender.Username, message.Content)
	}

	summary, err := s.llm.Summarize(ctx, transcript.String())
	if err != nil {
		return "", apperr.External("summarization", err)
	}

	_ = s.threadCache.SetSummary(itemID, summary)
	return summary, nil
}
