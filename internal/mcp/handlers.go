package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/errors"
	"github.com/hpungsan/langroutes/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	src    ops.Source
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(src ops.Source, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{src: src, cfg: cfg, logger: logger}
}

// ListRequest represents the arguments for countries_list.
type ListRequest struct {
	Language string `json:"language"`
}

// TopRequest represents the arguments for countries_top.
type TopRequest struct {
	Language string `json:"language"`
	Field    string `json:"field,omitempty"`
	N        *int   `json:"n,omitempty"`
}

// DetailRequest represents the arguments for country_detail.
type DetailRequest struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// ExportRequest represents the arguments for countries_export.
type ExportRequest struct {
	Language string `json:"language"`
	Path     string `json:"path"`
	Format   string `json:"format,omitempty"`
	TopN     *int   `json:"top_n,omitempty"`
}

// HandleList handles the countries_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.src, ops.ListInput{Language: input.Language})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// HandleTop handles the countries_top tool call.
func (h *Handlers) HandleTop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TopRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n := input.N
	if n == nil {
		n = &h.cfg.TopN
	}
	result, err := ops.Top(ctx, h.src, ops.TopInput{
		Language: input.Language,
		Field:    input.Field,
		N:        n,
	})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// HandleDetail handles the country_detail tool call.
func (h *Handlers) HandleDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DetailRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Detail(ctx, h.src, ops.DetailInput{
		Language: input.Language,
		Name:     input.Name,
	})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the countries_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	topN := input.TopN
	if topN == nil {
		topN = &h.cfg.TopN
	}

	result, err := ops.Export(ctx, h.src, h.cfg, ops.ExportInput{
		Language: input.Language,
		Path:     input.Path,
		Format:   input.Format,
		TopN:     topN,
	})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

func (h *Handlers) errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, errors.ErrInternal) || errors.Is(err, errors.ErrTransportFailure) {
		h.logger.Error("tool call failed", zap.Error(err))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	appErr := errors.As(err)

	errorObj := map[string]any{
		"code":    appErr.Code,
		"message": appErr.Message,
		"status":  appErr.Status,
	}
	if appErr.Code != errors.ErrInternal && appErr.Details != nil {
		errorObj["details"] = appErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
