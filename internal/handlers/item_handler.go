package handlers

import (
	"mime/multipart"
	"strconv"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	itemService *service.ItemService
}

func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// CreateItem registers an item from a multipart form: text fields plus zero
// or more "images" files. POST /groups/:id/items
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid group ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	input := service.CreateItemInput{
		Name:     c.FormValue("name"),
		Category: c.FormValue("category"),
	}
	if rank := c.FormValue("condition_rank"); rank != "" {
		parsed, err := strconv.Atoi(rank)
		if err != nil {
			return httpx.BadRequest(c, "invalid_condition_rank", "condition_rank must be a number")
		}
		input.ConditionRank = parsed
	}

	var fileHeaders []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		fileHeaders = form.File["images"]
	}

	files, closers, err := openUploads(fileHeaders)
	if err != nil {
		return httpx.BadRequest(c, "invalid_file", "Could not read uploaded file")
	}
	defer closers()

	item, err := h.itemService.CreateItem(c.Context(), userID, groupID, input, files)
	if err != nil {
		return httpx.FromError(c, "item_create_failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListGroupItems returns a group's items, optionally filtered by ?status=.
// GET /groups/:id/items
func (h *ItemHandler) ListGroupItems(c *fiber.Ctx) error {
	groupID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid group ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	status := models.ItemStatus(c.Query("status"))
	if status != "" && status != models.ItemActive && status != models.ItemArchived {
		return httpx.BadRequest(c, "invalid_status", "status must be active or archived")
	}

	items, err := h.itemService.ListGroupItems(groupID, userID, status)
	if err != nil {
		return httpx.FromError(c, "items_fetch_failed", err)
	}
	return c.JSON(items)
}

// GetItem returns one item with its images and thread. GET /items/:id
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	item, err := h.itemService.GetItem(itemID, userID)
	if err != nil {
		return httpx.FromError(c, "item_fetch_failed", err)
	}
	return c.JSON(item)
}

// GetItemImages lists an item's images. After a delete this returns an empty
// array. GET /items/:id/images
func (h *ItemHandler) GetItemImages(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	images, err := h.itemService.GetItemImages(itemID, userID)
	if err != nil {
		return httpx.FromError(c, "item_images_fetch_failed", err)
	}
	return c.JSON(images)
}

// AnalyzeItemImage runs recognition on an uploaded image without creating an
// item, for label preview in the client. POST /items/analyze
func (h *ItemHandler) AnalyzeItemImage(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	header, err := c.FormFile("image")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "An image file is required")
	}
	file, err := header.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_file", "Could not read uploaded file")
	}
	defer file.Close()

	best, err := h.itemService.AnalyzeImage(c.Context(), service.UploadFile{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	})
	if err != nil {
		return httpx.FromError(c, "analyze_failed", err)
	}
	return c.JSON(best)
}

// ArchiveItem marks an item archived. POST /items/:id/archive
func (h *ItemHandler) ArchiveItem(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	item, err := h.itemService.ArchiveItem(itemID, userID)
	if err != nil {
		return httpx.FromError(c, "item_archive_failed", err)
	}
	return c.JSON(item)
}

// DeleteItem removes an item with everything it owns. DELETE /items/:id
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	deleted, err := h.itemService.DeleteItem(c.Context(), itemID, userID)
	if err != nil {
		return httpx.FromError(c, "item_delete_failed", err)
	}
	if !deleted {
		return httpx.Error(c, fiber.StatusNotFound, "item_not_found", "item not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// openUploads opens multipart files as service uploads. The returned closer
// releases all opened files.
func openUploads(headers []*multipart.FileHeader) ([]service.UploadFile, func(), error) {
	var files []service.UploadFile
	var opened []multipart.File

	closers := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closers()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		files = append(files, service.UploadFile{
			Reader:      f,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
		})
	}
	return files, closers, nil
}
