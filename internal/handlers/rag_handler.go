package handlers

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/httpx"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type RAGHandler struct {
	ragService *service.RAGService
}

func NewRAGHandler(ragService *service.RAGService) *RAGHandler {
	return &RAGHandler{ragService: ragService}
}

// IndexItem re-embeds the item's thread into the vector store.
// POST /items/:id/index
func (h *RAGHandler) IndexItem(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	indexed, err := h.ragService.IndexItem(c.Context(), itemID, userID)
	if err != nil {
		return httpx.FromError(c, "index_failed", err)
	}
	return c.JSON(fiber.Map{"indexed": indexed})
}

// SearchItem finds thread messages similar to the query.
// GET /items/:id/search?q=
func (h *RAGHandler) SearchItem(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	results, err := h.ragService.SearchItem(c.Context(), itemID, userID, c.Query("q"))
	if err != nil {
		return httpx.FromError(c, "search_failed", err)
	}
	return c.JSON(fiber.Map{"results": results})
}

// SummarizeItem returns the cached or freshly generated thread summary.
// GET /items/:id/summary
func (h *RAGHandler) SummarizeItem(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_id", "Invalid item ID")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	summary, err := h.ragService.SummarizeItem(c.Context(), itemID, userID)
	if err != nil {
		return httpx.FromError(c, "summary_failed", err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}
