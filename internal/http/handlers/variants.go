package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Monetiqai/Monetiq-sub003/internal/http/response"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

type VariantHandler struct {
	log *logger.Logger
	svc services.AdPackService
}

func NewVariantHandler(log *logger.Logger, svc services.AdPackService) *VariantHandler {
	return &VariantHandler{log: log.With("handler", "VariantHandler"), svc: svc}
}

// POST /api/variants/:id/winner
func (h *VariantHandler) MarkWinner(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.MarkWinner(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"packId": view.Pack.ID, "pack": view.Pack, "variants": view.Variants})
}

// POST /api/variants/:id/validate
func (h *VariantHandler) Validate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.ValidateShots(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true, "variant": v})
}

// POST /api/variants/:id/promote
func (h *VariantHandler) Promote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Promote(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"variant": v})
}

// POST /api/variants/:id/render-outcome
func (h *VariantHandler) RenderOutcome(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req services.RenderOutcome
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	v, err := h.svc.ReportRenderOutcome(c.Request.Context(), ownerID(c), id, req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variant": v})
}

// GET /api/variants/:id/assets
func (h *VariantHandler) Assets(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	assets, err := h.svc.ListAssets(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assets": assets})
}
