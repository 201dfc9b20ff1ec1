package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Monetiqai/Monetiq-sub003/internal/http/response"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

type PackHandler struct {
	log *logger.Logger
	svc services.AdPackService
	hub *realtime.SSEHub
}

func NewPackHandler(log *logger.Logger, svc services.AdPackService, hub *realtime.SSEHub) *PackHandler {
	return &PackHandler{log: log.With("handler", "PackHandler"), svc: svc, hub: hub}
}

// POST /api/packs/generate
func (h *PackHandler) Generate(c *gin.Context) {
	var req services.GenerateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	res, err := h.svc.Generate(c.Request.Context(), ownerID(c), req)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/packs
func (h *PackHandler) List(c *gin.Context) {
	packs, err := h.svc.ListPacks(c.Request.Context(), ownerID(c), queryLimit(c, 20, 100))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"packs": packs})
}

// GET /api/packs/:id
func (h *PackHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.GetPack(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"pack": view.Pack, "variants": view.Variants})
}

// GET /api/packs/:id/events streams the pack channel until the client disconnects.
func (h *PackHandler) Events(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	owner := ownerID(c)
	if _, err := h.svc.GetPack(c.Request.Context(), owner, id); err != nil {
		respondDomainError(c, err)
		return
	}
	client := h.hub.NewSSEClient(owner)
	h.hub.AddChannel(client, realtime.PackChannel(id))
	h.log.Debug("pack event stream open", "pack_id", id, "client_id", client.ID)
	defer h.hub.CloseClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
