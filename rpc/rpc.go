// Package rpc serves the gateway's JSON-RPC 2.0 endpoint. It owns the
// envelope parsing, the method table and the mapping from fault kinds
// to wire error codes.
package rpc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"codegate/cache"
	"codegate/fault"
	"codegate/tools"
)

// JSON-RPC 2.0 error codes. The reserved range covers protocol faults;
// -32001 is this service's code for symbol resolution failures.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeResolution     = -32001
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// contentItem wraps a tool result the way tool-calling clients expect:
// a content list whose single entry carries the JSON payload.
type contentItem struct {
	Type string `json:"type"`
	JSON any    `json:"json"`
}

type callResult struct {
	Content []contentItem `json:"content"`
}

// Handler serves POST /rpc against the cached project model.
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

// Register mounts the endpoint on a gin router.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/rpc", h.handle)
}

func (h *Handler) handle(c *gin.Context) {
	// Correlation id for logs only. The client's own id, whatever its
	// JSON type, is echoed back verbatim.
	corr := uuid.NewString()

	var req request
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("malformed rpc request", "corr", corr, "err", err)
		c.JSON(http.StatusOK, errorResponse(nil, codeInvalidRequest, "parse error: "+err.Error()))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		h.logger.Warn("invalid rpc envelope", "corr", corr, "method", req.Method)
		c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidRequest, "invalid request"))
		return
	}

	h.logger.Info("rpc request", "corr", corr, "method", req.Method)

	result, err := h.dispatch(req)
	if err != nil {
		code, msg := wireError(err)
		h.logger.Warn("rpc request failed", "corr", corr, "method", req.Method, "code", code, "err", err)
		c.JSON(http.StatusOK, errorResponse(req.ID, code, msg))
		return
	}
	c.JSON(http.StatusOK, response{JSONRPC: "2.0", Result: result, ID: normalizeID(req.ID)})
}

func (h *Handler) dispatch(req request) (any, error) {
	switch req.Method {
	case "tools/list":
		return gin.H{"tools": tools.Descriptors()}, nil
	case "tools/call":
		var p callParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			return nil, fault.New(fault.KindInvalidParams, "tools/call requires a tool name")
		}
		m, err := h.cache.Acquire()
		if err != nil {
			return nil, err
		}
		out, err := tools.Dispatch(p.Name, p.Arguments, m)
		if err != nil {
			return nil, err
		}
		return callResult{Content: []contentItem{{Type: "json", JSON: out}}}, nil
	default:
		return nil, fault.Newf(fault.KindMethodNotFound, "unknown method %q", req.Method)
	}
}

func wireError(err error) (int, string) {
	switch fault.KindOf(err) {
	case fault.KindInvalidRequest:
		return codeInvalidRequest, err.Error()
	case fault.KindMethodNotFound:
		return codeMethodNotFound, err.Error()
	case fault.KindInvalidParams:
		return codeInvalidParams, err.Error()
	case fault.KindResolution:
		return codeResolution, err.Error()
	default:
		return codeInternal, err.Error()
	}
}

func errorResponse(id json.RawMessage, code int, msg string) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: msg}, ID: normalizeID(id)}
}

// normalizeID keeps the client id byte-for-byte; an absent id becomes
// JSON null rather than dropping the field.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(id)) == 0 {
		return json.RawMessage("null")
	}
	return id
}
