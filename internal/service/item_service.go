package service

import (
	"bytes"
	"context"
	"errors"
	"log"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/cache"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/recognition"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/repository"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/storage"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/validation"
	"gorm.io/gorm"
)

type ItemService struct {
	itemRepo      repository.ItemRepositoryInterface
	groupRepo     repository.GroupRepositoryInterface
	embeddingRepo repository.EmbeddingRepositoryInterface
	blobs         BlobStore
	detector      ObjectDetector
	threadCache   *cache.ThreadCache
}

func NewItemService(
	itemRepo repository.ItemRepositoryInterface,
	groupRepo repository.GroupRepositoryInterface,
	embeddingRepo repository.EmbeddingRepositoryInterface,
	blobs BlobStore,
	detector ObjectDetector,
	threadCache *cache.ThreadCache,
) *ItemService {
	return &ItemService{
		itemRepo:      itemRepo,
		groupRepo:     groupRepo,
		embeddingRepo: embeddingRepo,
		blobs:         blobs,
		detector:      detector,
		threadCache:   threadCache,
	}
}

type CreateItemInput struct {
	Name          string
	Category      string
	ConditionRank int
}

// CreateItem uploads the images, runs recognition on the first one, and
// inserts the item together with its discussion thread in one transaction.
// Blob upload is a critical step: any upload failure aborts creation. A
// recognition failure is not: the item is created without a label.
func (s *ItemService) CreateItem(ctx context.Context, userID, groupID uint, input CreateItemInput, images []UploadFile) (*models.Item, error) {
	input.Name = validation.TrimAndLimit(input.Name, 255)
	if input.Name == "" {
		return nil, apperr.Validation("item name is required")
	}
	if input.ConditionRank == 0 {
		input.ConditionRank = 3
	}
	if !validation.ValidateConditionRank(input.ConditionRank) {
		return nil, apperr.Validation("condition rank must be between 1 and 5")
	}

	isMember, err := s.groupRepo.IsMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("not a member of this group")
	}
	if s.blobs == nil && len(images) > 0 {
		return nil, apperr.External("blob upload", errors.New("storage not configured"))
	}

	// Normalize and upload every image before any row exists. If an upload
	// fails here the item is never created.
	type uploaded struct {
		url         string
		contentType string
		data        []byte
	}
	var uploads []uploaded
	for _, img := range images {
		jpegBytes, contentType, outSize, err := storage.ProcessImage(img.Reader, storage.DefaultItemImageOptions())
		if err != nil {
			return nil, apperr.Validation("invalid image upload: " + err.Error())
		}
		key := storage.NewObjectKey("items", "jpg")
		url, err := s.blobs.Upload(ctx, key, bytes.NewReader(jpegBytes), outSize, contentType)
		if err != nil {
			return nil, apperr.External("blob upload", err)
		}
		uploads = append(uploads, uploaded{url: url, contentType: contentType, data: jpegBytes})
	}

	item := &models.Item{
		UserID:        userID,
		GroupID:       groupID,
		Name:          input.Name,
		Category:      validation.TrimAndLimit(input.Category, 100),
		ConditionRank: input.ConditionRank,
		Status:        models.ItemActive,
	}

	// Recognition on the first image, best effort.
	if s.detector != nil && len(uploads) > 0 {
		if detections, err := s.detector.Detect(ctx, uploads[0].data, uploads[0].contentType); err != nil {
			log.Printf("WARNING: recognition failed for new item: %v", err)
		} else if best, err := recognition.BestLabel(detections); err == nil {
			item.RecognizedLabel = best.Label
			confidence := best.Confidence
			item.Confidence = &confidence
		}
	}

	if err := s.itemRepo.CreateWithThread(item); err != nil {
		return nil, err
	}

	for _, up := range uploads {
		image := &models.ItemImage{
			ItemID:      item.ID,
			URL:         up.url,
			ContentType: up.contentType,
		}
		if err := s.itemRepo.AddImage(image); err != nil {
			return nil, err
		}
		item.Images = append(item.Images, *image)
	}

	return item, nil
}

func (s *ItemService) GetItem(itemID, requesterID uint) (*models.Item, error) {
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

func (s *ItemService) ListGroupItems(groupID, requesterID uint, status models.ItemStatus) ([]models.Item, error) {
	isMember, err := s.groupRepo.IsMember(groupID, requesterID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return s.itemRepo.ListByGroup(groupID, status)
}

// GetItemImages lists an item's image rows. A missing item yields an empty
// list rather than NotFound, so callers polling after a delete see the
// cascade's end state.
func (s *ItemService) GetItemImages(itemID, requesterID uint) ([]models.ItemImage, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.ItemImage{}, nil
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

	images, err := s.itemRepo.GetImages(itemID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.ItemImage{}
	}
	return images, nil
}

// AnalyzeImage runs recognition on one uploaded image without creating
// anything, returning the highest-confidence detection.
func (s *ItemService) AnalyzeImage(ctx context.Context, file UploadFile) (*recognition.Detection, error) {
	if s.detector == nil {
		return nil, apperr.External("recognition", errors.New("detector not configured"))
	}

	jpegBytes, contentType, _, err := storage.ProcessImage(file.Reader, storage.DefaultItemImageOptions())
	if err != nil {
		return nil, apperr.Validation("invalid image upload: " + err.Error())
	}

	detections, err := s.detector.Detect(ctx, jpegBytes, contentType)
	if err != nil {
		return nil, apperr.External("recognition", err)
	}
	best, err := recognition.BestLabel(detections)
	if err != nil {
		return nil, apperr.NotFound("recognized object")
	}
	return &best, nil
}

func (s *ItemService) ArchiveItem(itemID, requesterID uint) (*models.Item, error) {
	item, err := s.GetItem(itemID, requesterID)
	if err != nil {
		return nil, err
	}
	if item.UserID != requesterID {
		return nil, apperr.Forbidden("only the item owner can archive it")
	}
	if err := s.itemRepo.UpdateStatus(item.ID, models.ItemArchived); err != nil {
		return nil, err
	}
	item.Status = models.ItemArchived
	return item, nil
}

// DeleteItem removes an item and everything it exclusively owns. Blobs are
// enumerated and deleted first, best effort: a storage failure is logged and
// never aborts the row deletion, so a crash mid-way leaves referencing rows
// (retriable) rather than unrecorded blobs. Image rows and the thread are
// removed by DB cascade with the item row.
func (s *ItemService) DeleteItem(ctx context.Context, itemID, requesterID uint) (bool, error) {
	item, err := s.itemRepo.FindByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if item.UserID != requesterID {
		isPoster := false
		if role, err := s.groupRepo.GetMemberRole(item.GroupID, requesterID); err == nil {
			isPoster = role == models.RolePoster
		}
		if !isPoster {
			return false, apperr.Forbidden("only the owner or a poster can delete this item")
		}
	}

	images, err := s.itemRepo.GetImages(itemID)
	if err != nil {
		return false, err
	}

	// Phase 1: remote blobs, best effort.
	if s.blobs != nil {
		for _, image := range images {
			if err := s.blobs.Delete(ctx, image.URL); err != nil {
				log.Printf("WARNING: failed to delete blob %s for item %d: %v", image.URL, itemID, err)
			}
		}
	}

	// Phase 2: authoritative local rows.
	deleted, err := s.itemRepo.Delete(itemID)
	if err != nil {
		return false, err
	}

	if s.embeddingRepo != nil {
		if err := s.embeddingRepo.DeleteByItem(itemID); err != nil {
			log.Printf("WARNING: failed to drop embeddings for item %d: %v", itemID, err)
		}
	}
	if item.Thread != nil {
		_ = s.threadCache.InvalidateMessages(item.Thread.ID)
	}
	_ = s.threadCache.InvalidateSummary(itemID)

	return deleted, nil
}
