// Package mcp exposes the draft review workflow as MCP tools so that
// assistant clients can triage permit drafts over stdio.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "ZUVP Draft Review MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"

	// toolTimeout bounds every tool call against the draft store.
	toolTimeout = 10 * time.Second
)

// Server hosts the MCP server.
type Server struct {
	mcpServer *server.MCPServer
}

// DraftSummary represents one permit draft in MCP tool output. Document
// bundles and raw model responses stay out; clients fetch artifacts over
// the HTTP API.
type DraftSummary struct {
	ID             string `json:"id"`
	State          string `json:"state"`
	NeedsReview    bool   `json:"needs_review"`
	ReviewReason   string `json:"review_reason,omitempty"`
	ApplicantName  string `json:"applicant_name,omitempty"`
	Purpose        string `json:"purpose,omitempty"`
	Location       string `json:"location,omitempty"`
	TotalCZK       int64  `json:"total_czk,omitempty"`
	VariableSymbol string `json:"variable_symbol,omitempty"`
	SourceFilename string `json:"source_filename"`
	CreatedAt      string `json:"created_at"`
}

// ListDraftsInput represents the MCP tool input for listing drafts.
type ListDraftsInput struct {
	State string `json:"state"`
}

// ListDraftsResult represents the MCP tool output for listing drafts.
type ListDraftsResult struct {
	Count  int            `json:"count"`
	Drafts []DraftSummary `json:"drafts"`
}

// ApproveDraftInput represents the MCP tool input for approving a draft.
type ApproveDraftInput struct {
	DraftID string `json:"draft_id"`
}

// RejectDraftInput represents the MCP tool input for rejecting a draft.
type RejectDraftInput struct {
	DraftID string `json:"draft_id"`
	Reason  string `json:"reason"`
}

// DecisionResult represents the MCP tool output for a clerk decision.
type DecisionResult struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	DecidedAt string `json:"decided_at,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// PurgeDraftsResult represents the MCP tool output for a purge.
type PurgeDraftsResult struct {
	Purged int `json:"purged"`
}

// New creates a configured MCP server over the draft review workflow.
func New(review ports.DraftReviewer) (*Server, error) {
	if review == nil {
		return nil, fmt.Errorf("draft reviewer is required")
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	mcpServer.AddTool(listDraftsTool(), listDraftsHandler(review))
	mcpServer.AddTool(approveDraftTool(), approveDraftHandler(review))
	mcpServer.AddTool(rejectDraftTool(), rejectDraftHandler(review))
	mcpServer.AddTool(purgeDraftsTool(), purgeDraftsHandler(review))

	return &Server{mcpServer: mcpServer}, nil
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// listDraftsTool defines the MCP tool schema for listing drafts.
func listDraftsTool() mcp.Tool {
	return mcp.NewTool(
		"zuvp_drafts_list",
		mcp.WithDescription("Lists permit drafts with applicant, fee and review status"),
		mcp.WithString("state",
			mcp.Description("Optional state filter: pending, approved or rejected"),
		),
		mcp.WithInputSchema[ListDraftsInput](),
		mcp.WithOutputSchema[ListDraftsResult](),
	)
}

// listDraftsHandler fetches drafts filtered by state.
func listDraftsHandler(review ports.DraftReviewer) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input ListDraftsInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid list arguments", err), nil
		}

		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		drafts, err := review.List(runCtx, domain.DraftState(strings.TrimSpace(input.State)))
		if err != nil {
			return mcp.NewToolResultErrorFromErr("list drafts failed", err), nil
		}

		result := ListDraftsResult{
			Count:  len(drafts),
			Drafts: make([]DraftSummary, 0, len(drafts)),
		}
		for _, draft := range drafts {
			result.Drafts = append(result.Drafts, summarize(draft))
		}
		return mcp.NewToolResultStructuredOnly(result), nil
	}
}

// approveDraftTool defines the MCP tool schema for approving a draft.
func approveDraftTool() mcp.Tool {
	return mcp.NewTool(
		"zuvp_draft_approve",
		mcp.WithDescription("Approves a pending permit draft and seals its documents"),
		mcp.WithString("draft_id",
			mcp.Description("Identifier of the draft to approve"),
			mcp.Required(),
		),
		mcp.WithInputSchema[ApproveDraftInput](),
		mcp.WithOutputSchema[DecisionResult](),
	)
}

// approveDraftHandler moves a pending draft to approved.
func approveDraftHandler(review ports.DraftReviewer) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input ApproveDraftInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid approve arguments", err), nil
		}
		id := strings.TrimSpace(input.DraftID)
		if id == "" {
			return mcp.NewToolResultError("draft_id is required"), nil
		}

		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		draft, err := review.Approve(runCtx, id)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("approve draft failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(decisionOf(draft)), nil
	}
}

// rejectDraftTool defines the MCP tool schema for rejecting a draft.
func rejectDraftTool() mcp.Tool {
	return mcp.NewTool(
		"zuvp_draft_reject",
		mcp.WithDescription("Rejects a pending permit draft with an optional reason"),
		mcp.WithString("draft_id",
			mcp.Description("Identifier of the draft to reject"),
			mcp.Required(),
		),
		mcp.WithString("reason",
			mcp.Description("Free-text reason recorded on the draft"),
		),
		mcp.WithInputSchema[RejectDraftInput](),
		mcp.WithOutputSchema[DecisionResult](),
	)
}

// rejectDraftHandler moves a pending draft to rejected.
func rejectDraftHandler(review ports.DraftReviewer) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var input RejectDraftInput
		if err := request.BindArguments(&input); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid reject arguments", err), nil
		}
		id := strings.TrimSpace(input.DraftID)
		if id == "" {
			return mcp.NewToolResultError("draft_id is required"), nil
		}

		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		draft, err := review.Reject(runCtx, id, strings.TrimSpace(input.Reason))
		if err != nil {
			return mcp.NewToolResultErrorFromErr("reject draft failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(decisionOf(draft)), nil
	}
}

// purgeDraftsTool defines the MCP tool schema for purging drafts.
func purgeDraftsTool() mcp.Tool {
	return mcp.NewTool(
		"zuvp_drafts_purge",
		mcp.WithDescription("Deletes every stored draft and reports how many were removed"),
		mcp.WithOutputSchema[PurgeDraftsResult](),
	)
}

// purgeDraftsHandler wipes the draft store.
func purgeDraftsHandler(review ports.DraftReviewer) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, toolTimeout)
		defer cancel()

		purged, err := review.PurgeAll(runCtx)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("purge drafts failed", err), nil
		}
		return mcp.NewToolResultStructuredOnly(PurgeDraftsResult{Purged: purged}), nil
	}
}

// summarize flattens a draft into its tool representation.
func summarize(draft domain.Draft) DraftSummary {
	summary := DraftSummary{
		ID:             draft.ID,
		State:          string(draft.State),
		NeedsReview:    draft.NeedsReview,
		ReviewReason:   draft.ReviewReason,
		ApplicantName:  draft.Fields.ApplicantName,
		Purpose:        draft.Fields.Purpose,
		Location:       draft.Fields.Location,
		SourceFilename: draft.SourceFilename,
		CreatedAt:      draft.CreatedAt.UTC().Format(time.RFC3339),
	}
	if draft.Fee != nil {
		summary.TotalCZK = draft.Fee.TotalCZK
		summary.VariableSymbol = draft.Fee.VariableSymbol
	}
	return summary
}

// decisionOf flattens a decided draft into its tool representation.
func decisionOf(draft *domain.Draft) DecisionResult {
	result := DecisionResult{
		ID:     draft.ID,
		State:  string(draft.State),
		Reason: draft.RejectReason,
	}
	if draft.DecidedAt != nil {
		result.DecidedAt = draft.DecidedAt.UTC().Format(time.RFC3339)
	}
	return result
}
