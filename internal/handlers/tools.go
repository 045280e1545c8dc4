package handlers

import (
	"errors"
	"net/http"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolcall"
)

// maxBatch bounds the number of invocations accepted by one batch request.
const maxBatch = 100

// ToolsHandler exposes the tool registry and tool execution over JSON.
type ToolsHandler struct {
	caller *toolcall.Caller
	logger *common.Logger
}

// NewToolsHandler creates a tools handler backed by caller.
func NewToolsHandler(caller *toolcall.Caller, logger *common.Logger) *ToolsHandler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &ToolsHandler{caller: caller, logger: logger}
}

type toolList struct {
	Count int            `json:"count"`
	Tools []*models.Tool `json:"tools"`
}

type toolDetail struct {
	Tool     *models.Tool     `json:"tool"`
	Endpoint *models.Endpoint `json:"endpoint"`
}

type callRequest struct {
	Arguments map[string]any `json:"arguments"`
}

type batchRequest struct {
	Calls []toolcall.Invocation `json:"calls"`
}

type batchResponse struct {
	Results []*models.ExecutionResult `json:"results"`
}

// List handles GET /api/tools. Supported query parameters are q, tag,
// method, pattern, field and limit.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit, err := QueryInt(r, "limit", 0)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()
	field := registry.PatternField(q.Get("field"))
	if field == "" {
		field = registry.FieldAll
	}

	tools, err := h.caller.Registry().Query(registry.Filter{
		Method:       q.Get("method"),
		Tag:          q.Get("tag"),
		Query:        q.Get("q"),
		Pattern:      q.Get("pattern"),
		PatternField: field,
		Limit:        limit,
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if tools == nil {
		tools = []*models.Tool{}
	}
	WriteJSON(w, http.StatusOK, toolList{Count: len(tools), Tools: tools})
}

// Get handles GET /api/tools/{name}.
func (h *ToolsHandler) Get(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tool, ep, err := h.caller.Registry().ResolveTool(name)
	if err != nil {
		h.writeCallError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toolDetail{Tool: tool, Endpoint: ep})
}

// Call handles POST /api/tools/{name}/call. The body is
// {"arguments": {...}}; the response is the execution result. Upstream
// failures are reported in the result with status 200.
func (h *ToolsHandler) Call(w http.ResponseWriter, r *http.Request, name string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req callRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.caller.Call(r.Context(), name, req.Arguments)
	if err != nil {
		h.writeCallError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Batch handles POST /api/batch. Every invocation is resolved before any is
// executed; results keep request order.
func (h *ToolsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req batchRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Calls) == 0 {
		WriteError(w, http.StatusBadRequest, "calls must not be empty")
		return
	}
	if len(req.Calls) > maxBatch {
		WriteError(w, http.StatusBadRequest, "too many calls in one batch")
		return
	}

	results, err := h.caller.CallBatch(r.Context(), req.Calls)
	if err != nil {
		h.writeCallError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, batchResponse{Results: results})
}

// Registry handles GET /api/registry with the registry export document.
func (h *ToolsHandler) Registry(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.caller.Registry().Export())
}

func (h *ToolsHandler) writeCallError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrResolution) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error().Err(err).Msg("Tool call failed")
	WriteError(w, http.StatusInternalServerError, err.Error())
}
