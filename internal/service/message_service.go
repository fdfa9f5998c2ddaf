package service

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/cache"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/storage"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/validation"
	"gorm.io/gorm"
)

// DefaultMessageWindow is the page size for thread history.
const DefaultMessageWindow = 50

type MessageService struct {
	messageRepo   repository.MessageRepositoryInterface
	itemRepo      repository.ItemRepositoryInterface
	groupRepo     repository.GroupRepositoryInterface
	embeddingRepo repository.EmbeddingRepositoryInterface
	blobs         BlobStore
	threadCache   *cache.ThreadCache
}

func NewMessageService(
	messageRepo repository.MessageRepositoryInterface,
	itemRepo repository.ItemRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	embeddingRepo repository.EmbeddingRepositoryInterface,
	blobs BlobStore,
	threadCache *cache.ThreadCache,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		itemRepo:      itemRepo,
		groupRepo:     groupRepo,
		embeddingRepo: embeddingRepo,
		blobs:         blobs,
		threadCache:   threadCache,
	}
}

// authorizeThread resolves the thread and checks the requester belongs to the
// owning item's group.
func (s *MessageService) authorizeThread(threadID, requesterID uint) (*models.Thread, *models.Item, error) {
	thread, err := s.itemRepo.FindThreadByID(threadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("thread")
		}
		return nil, nil, err
	}

	item, err := s.itemRepo.FindByID(thread.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("item")
		}
		return nil, nil, err
	}

	isMember, err := s.groupRepo.IsMember(item.GroupID, requesterID)
	if err != nil {
		return nil, nil, err
	}
	if !isMember {
		return nil, nil, apperr.Forbidden("not a member of this group")
	}
	return thread, item, nil
}

// CanAccessThread reports whether the user may read the thread. Used by the
// WebSocket layer before accepting a subscription.
func (s *MessageService) CanAccessThread(threadID, userID uint) error {
	_, _, err := s.authorizeThread(threadID, userID)
	return err
}

// PostMessage stores a message with its attachments. Every attachment blob
// must upload before any row is written; an upload failure aborts the post.
// A parent reference must point at an existing message in the same thread at
// post time (later deletion of the parent leaves the reference dangling).
func (s *MessageService) PostMessage(ctx context.Context, threadID, senderID uint, content string, parentID *uint, files []UploadFile) (*models.Message, error) {
	_, item, err := s.authorizeThread(threadID, senderID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if len(content) > validation.MaxMessageLength() {
		return nil, apperr.Validation("message content too long")
	}
	if content == "" && len(files) == 0 {
		return nil, apperr.Validation("message needs content or an attachment")
	}

	if parentID != nil {
		parent, err := s.messageRepo.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation("reply target does not exist")
			}
			return nil, err
		}
		if parent.ThreadID != threadID {
			return nil, apperr.Validation("reply target is in a different thread")
		}
	}

	if s.blobs == nil && len(files) > 0 {
		return nil, apperr.External("blob upload", errors.New("storage not configured"))
	}

	type uploaded struct {
		url         string
		contentType string
		kind        models.AttachmentKind
	}
	var uploads []uploaded
	for _, f := range files {
		ext := strings.TrimPrefix(filepath.Ext(f.Filename), ".")
		if ext == "" {
			ext = "bin"
		}
		key := storage.NewObjectKey("attachments", ext)
		url, err := s.blobs.Upload(ctx, key, f.Reader, f.Size, f.ContentType)
		if err != nil {
			return nil, apperr.External("blob upload", err)
		}
		uploads = append(uploads, uploaded{
			url:         url,
			contentType: f.ContentType,
			kind:        models.KindFromContentType(f.ContentType),
		})
	}

	message := &models.Message{
		ThreadID: threadID,
		SenderID: senderID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	for _, up := range uploads {
		attachment := &models.Attachment{
			MessageID:   message.ID,
			URL:         up.url,
			ContentType: up.contentType,
			Kind:        up.kind,
		}
		if err := s.messageRepo.AddAttachment(attachment); err != nil {
			return nil, err
		}
		message.Attachments = append(message.Attachments, *attachment)
	}

	_ = s.threadCache.InvalidateMessages(threadID)
	_ = s.threadCache.InvalidateSummary(item.ID)

	return s.messageRepo.FindByID(message.ID)
}

// GetThreadMessages returns a page of thread history, newest first. The first
// page (no cursor, default limit) is served from cache when warm.
func (s *MessageService) GetThreadMessages(threadID, requesterID uint, cursor uint, limit int) ([]models.Message, error) {
	if _, _, err := s.authorizeThread(threadID, requesterID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = DefaultMessageWindow
	}

	firstPage := cursor == 0 && limit == DefaultMessageWindow
	if firstPage {
		if messages, ok := s.threadCache.GetMessages(threadID); ok {
			return messages, nil
		}
	}

	messages, err := s.messageRepo.FindThreadMessages(threadID, cursor, limit)
	if err != nil {
		return nil, err
	}

	if firstPage {
		if err := s.threadCache.SetMessages(threadID, messages); err != nil {
			log.Printf("WARNING: failed to cache thread %d window: %v", threadID, err)
		}
	}
	return messages, nil
}

func (s *MessageService) GetMessage(messageID, requesterID uint) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message")
		}
		return nil, err
	}
	if _, _, err := s.authorizeThread(message.ThreadID, requesterID); err != nil {
		return nil, err
	}
	return message, nil
}

// DeleteMessage removes a message, its attachments and its reactions. Blobs
// go first, best effort: a failed blob delete is logged but never blocks the
// row deletion, so no attachment row can outlive its message row. Replies to
// the deleted message keep their dangling parent reference.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, requesterID uint) error {
	message, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("message")
		}
		return err
	}

	_, item, err := s.authorizeThread(message.ThreadID, requesterID)
	if err != nil {
		return err
	}

	if message.SenderID != requesterID {
		role, err := s.groupRepo.GetMemberRole(item.GroupID, requesterID)
		if err != nil || role != models.RolePoster {
			return apperr.Forbidden("only the sender or a poster can delete this message")
		}
	}

	attachments, err := s.messageRepo.GetAttachments(messageID)
	if err != nil {
		return err
	}

	// Phase 1: remote blobs, best effort.
	if s.blobs != nil {
		for _, attachment := range attachments {
			if err := s.blobs.Delete(ctx, attachment.URL); err != nil {
				log.Printf("WARNING: failed to delete blob %s for message %d: %v", attachment.URL, messageID, err)
			}
		}
	}

	// Phase 2: rows, one transaction.
	if err := s.messageRepo.DeleteWithAttachments(messageID); err != nil {
		return err
	}

	if s.embeddingRepo != nil {
		if err := s.embeddingRepo.DeleteByMessage(messageID); err != nil {
			log.Printf("WARNING: failed to drop embedding for message %d: %v", messageID, err)
		}
	}
	_ = s.threadCache.InvalidateMessages(message.ThreadID)
	_ = s.threadCache.InvalidateSummary(item.ID)

	return nil
}
