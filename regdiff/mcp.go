// CLAUDE:SUMMARY MCP registration for the comparison tools: compare_title_dates, get_recent_changes.
package regdiff

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/regveille/audit"
	"github.com/hazyhaar/regveille/kit"
)

// RegisterMCP registers all regveille tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerCompareTitleDates(srv)
	svc.registerGetRecentChanges(srv)
	svc.registerSearchRegulations(srv)
	svc.registerSearchWithDateRange(srv)
	svc.registerGetSearchSummary(srv)
	svc.registerListTitles(srv)
	svc.registerListAgencies(srv)
	svc.registerGetCorrections(srv)
	svc.registerGetTitleXML(srv)
	svc.registerGetPartXML(srv)
	svc.registerGetTitleVersions(srv)
	svc.registerGetTitleStructure(srv)
	svc.registerGetTitleAncestry(srv)
	svc.registerGetSectionContent(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// register glues one tool together: decode, optional audit middleware,
// registration on the server.
func (svc *Service) register(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode func(*mcp.CallToolRequest) (any, error)) {
	if svc.audit != nil {
		endpoint = audit.Middleware(svc.audit, tool.Name)(endpoint)
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// decodeJSON builds a decode function unmarshalling into a fresh T.
func decodeJSON[T any](r *mcp.CallToolRequest) (any, error) {
	p := new(T)
	if len(r.Params.Arguments) > 0 {
		if err := json.Unmarshal(r.Params.Arguments, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

var dateProp = map[string]any{"type": "string", "description": "Date in YYYY-MM-DD format"}
var titleProp = map[string]any{"type": "integer", "minimum": 1, "maximum": 50, "description": "CFR title number (1-50)"}
var partProp = map[string]any{"type": "string", "description": "Part number to scope the operation to (optional)"}
var changeTypesProp = map[string]any{
	"type":        "array",
	"items":       map[string]any{"type": "string", "enum": []string{"added", "removed", "modified", "effective", "cross_reference"}},
	"description": "Restrict the report to these change types (optional)",
}

func (svc *Service) registerCompareTitleDates(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "compare_title_dates",
		Description: "Compare a CFR title between two dates and report sections added, removed, or modified",
		InputSchema: inputSchema(map[string]any{
			"title":        titleProp,
			"start_date":   dateProp,
			"end_date":     dateProp,
			"part":         partProp,
			"change_types": changeTypesProp,
		}, []string{"title", "start_date", "end_date"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return svc.Compare(ctx, *r.(*CompareRequest))
	}

	svc.register(srv, tool, endpoint, decodeJSON[CompareRequest])
}

func (svc *Service) registerGetRecentChanges(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_recent_changes",
		Description: "Report changes to a CFR title over a recent look-back window (default 180 days)",
		InputSchema: inputSchema(map[string]any{
			"title":        titleProp,
			"days":         map[string]any{"type": "integer", "minimum": 1, "description": "Look-back window in days (default 180)"},
			"end_date":     map[string]any{"type": "string", "description": "Window end date in YYYY-MM-DD (default today)"},
			"part":         partProp,
			"change_types": changeTypesProp,
		}, []string{"title"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return svc.RecentChanges(ctx, *r.(*RecentChangesRequest))
	}

	svc.register(srv, tool, endpoint, decodeJSON[RecentChangesRequest])
}
