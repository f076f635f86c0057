package mcp

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/statustracker/internal/config"
	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	src ops.Source
	cfg *config.Config
	now func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(src ops.Source, cfg *config.Config) *Handlers {
	return &Handlers{src: src, cfg: cfg, now: time.Now}
}

// Request types for each tool

// RangeRequest carries the time bounds shared by every range tool.
type RangeRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// CountsRequest represents the arguments for counts_get.
type CountsRequest struct {
	RangeRequest
	Categories []string `json:"categories,omitempty"`
	Smoothing  []string `json:"smoothing,omitempty"`
}

// RollingRequest represents the arguments for counts_rolling.
type RollingRequest struct {
	RangeRequest
	Windows    []string `json:"windows,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// SummaryRequest represents the arguments for counts_summary.
type SummaryRequest struct {
	RangeRequest
	Categories []string `json:"categories,omitempty"`
}

// SessionsRequest represents the arguments for player_sessions.
type SessionsRequest struct {
	RangeRequest
	Name       string `json:"name"`
	ServerSide bool   `json:"server_side,omitempty"`
}

// UUIDRequest represents the arguments for player_uuid.
type UUIDRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) resolve(r RangeRequest) (time.Time, time.Time, error) {
	return ops.ResolveRange(r.From, r.To, h.now())
}

func (h *Handlers) categories(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return h.cfg.Categories
}

func (h *Handlers) windows(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	out := make([]string, 0, len(h.cfg.DefaultWindows))
	for _, w := range h.cfg.DefaultWindows {
		out = append(out, strconv.FormatUint(w, 10))
	}
	return out
}

// Handler implementations

// HandleCounts handles the counts_get tool call.
func (h *Handlers) HandleCounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CountsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	from, to, err := h.resolve(input.RangeRequest)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Counts(ctx, h.src, ops.CountsInput{
		From:       from,
		To:         to,
		Categories: h.categories(input.Categories),
		Smoothing:  input.Smoothing,
		MaxRange:   h.cfg.MaxRangeMinutes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRolling handles the counts_rolling tool call.
func (h *Handlers) HandleRolling(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RollingRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	from, to, err := h.resolve(input.RangeRequest)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.RollingCounts(ctx, h.src, ops.RollingInput{
		From:       from,
		To:         to,
		Windows:    h.windows(input.Windows),
		Categories: h.categories(input.Categories),
		MaxRange:   h.cfg.MaxRangeMinutes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSummary handles the counts_summary tool call.
func (h *Handlers) HandleSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SummaryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	from, to, err := h.resolve(input.RangeRequest)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Summary(ctx, h.src, ops.SummaryInput{
		From:       from,
		To:         to,
		Categories: h.categories(input.Categories),
		MaxRange:   h.cfg.MaxRangeMinutes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSessions handles the player_sessions tool call.
func (h *Handlers) HandleSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	from, to, err := h.resolve(input.RangeRequest)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.PlayerSessions(ctx, h.src, ops.SessionsInput{
		Name:       input.Name,
		From:       from,
		To:         to,
		ServerSide: input.ServerSide,
		MaxRange:   h.cfg.MaxRangeMinutes,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUUID handles the player_uuid tool call.
func (h *Handlers) HandleUUID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UUIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.LookupUUID(ctx, h.src, ops.UUIDInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleNames handles the names_list tool call.
func (h *Handlers) HandleNames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListNames(ctx, h.src, ops.NamesInput{})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := err.(*errors.TrackerError); ok {
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
