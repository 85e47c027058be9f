// Package rest serves the legacy HTTP surface: one POST endpoint per
// tool, plain JSON in and out. It decodes into the same argument types
// the JSON-RPC surface uses.
package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"codegate/cache"
	"codegate/fault"
	"codegate/tools"
)

// Handler serves the legacy endpoints against the cached project model.
type Handler struct {
	cache  *cache.Manager
	logger *slog.Logger
}

func NewHandler(c *cache.Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{cache: c, logger: logger}
}

// Register mounts one route per tool.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/find-references", h.tool(tools.FindReferences))
	r.POST("/rename-symbol", h.tool(tools.RenameSymbol))
	r.POST("/update-import", h.tool(tools.UpdateImport))
	r.POST("/write-file", h.tool(tools.WriteFile))
	r.POST("/mkdir", h.tool(tools.MakeDirectory))
	r.POST("/check-types", h.tool(tools.CheckTypes))
}

func (h *Handler) tool(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			h.fail(c, name, fault.Wrap(fault.KindInvalidParams, "reading request body", err))
			return
		}

		m, err := h.cache.Acquire()
		if err != nil {
			h.fail(c, name, err)
			return
		}
		out, err := tools.Dispatch(name, json.RawMessage(body), m)
		if err != nil {
			h.fail(c, name, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// fail maps fault kinds to status codes: caller mistakes are 400,
// everything else is 500. The body is always {"error": message}.
func (h *Handler) fail(c *gin.Context, name string, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindInvalidParams, fault.KindInvalidRequest:
		status = http.StatusBadRequest
	}
	h.logger.Warn("rest request failed", "tool", name, "status", status, "err", err)
	c.JSON(status, gin.H{"error": err.Error()})
}
