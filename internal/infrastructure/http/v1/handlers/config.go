package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guillermodiarte/crmsys/internal/domain/config"
)

// ConfigHandler handles system configuration endpoints.
type ConfigHandler struct {
	*BaseHandler
	service *config.Service
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(base *BaseHandler, service *config.Service) *ConfigHandler {
	return &ConfigHandler{BaseHandler: base, service: service}
}

// Get handles GET /config.
func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cfg)
}

// Update handles PUT /config.
func (h *ConfigHandler) Update(c *gin.Context) {
	var cfg config.SystemConfig
	if !h.BindJSON(c, &cfg) {
		return
	}

	updated, err := h.service.Update(c.Request.Context(), &cfg)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}
