package handlers

import (
	"bytes"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
	blobs       service.BlobStore
}

func NewUserHandler(userService *service.UserService, blobs service.BlobStore) *UserHandler {
	return &UserHandler{userService: userService, blobs: blobs}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	user, err := h.userService.GetByID(userID)
	if err != nil {
		return httpx.FromError(c, "user_fetch_failed", err)
	}
	return c.JSON(user.ToResponse())
}

// UploadPhoto replaces the user's profile photo. The image is normalized to a
// bounded JPEG before upload.
func (h *UserHandler) UploadPhoto(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if h.blobs == nil {
		return httpx.Error(c, fiber.StatusBadGateway, "storage_unavailable", "Storage is not configured")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "photo file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httpx.BadRequest(c, "invalid_file", "Could not read uploaded file")
	}
	defer file.Close()

	jpegBytes, contentType, size, err := storage.ProcessImage(file, storage.DefaultAvatarOptions())
	if err != nil {
		return httpx.BadRequest(c, "invalid_image", err.Error())
	}

	key := storage.NewObjectKey("avatars", "jpg")
	url, err := h.blobs.Upload(c.Context(), key, bytes.NewReader(jpegBytes), size, contentType)
	if err != nil {
		return httpx.Error(c, fiber.StatusBadGateway, "upload_failed", "Upstream service failed")
	}

	user, err := h.userService.UpdatePhotoURL(userID, url)
	if err != nil {
		return httpx.FromError(c, "photo_update_failed", err)
	}
	return c.JSON(user.ToResponse())
}
