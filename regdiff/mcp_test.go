package regdiff

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/regveille/ecfr"
)

var testMCPImpl = &mcp.Implementation{Name: "regveille-test", Version: "0.1.0"}

func mcpSession(t *testing.T, api API) *mcp.ClientSession {
	t.Helper()
	svc := New(api, nil, slog.New(slog.DiscardHandler))
	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := toolResultErr(result); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func mcpCallToolErr(t *testing.T, session *mcp.ClientSession, name string, args any) error {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	return toolResultErr(result)
}

// toolResultErr reports a tool error as seen by the client. GetError is
// server-only (always nil on clients), so the IsError flag and the text
// content carry the error across the wire.
func toolResultErr(result *mcp.CallToolResult) error {
	if !result.IsError {
		return nil
	}
	if len(result.Content) > 0 {
		if tc, ok := result.Content[0].(*mcp.TextContent); ok {
			return errors.New(tc.Text)
		}
	}
	return errors.New("tool error")
}

func TestMCP_ToolList(t *testing.T) {
	// WHAT: All tools register under their wire names.
	session := mcpSession(t, &stubAPI{})

	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	want := map[string]bool{
		"compare_title_dates":    true,
		"get_recent_changes":     true,
		"search_regulations":     true,
		"search_with_date_range": true,
		"get_search_summary":     true,
		"list_titles":            true,
		"list_agencies":          true,
		"get_corrections":        true,
		"get_title_xml":          true,
		"get_part_xml":           true,
		"get_title_versions":     true,
		"get_title_structure":    true,
		"get_title_ancestry":     true,
		"get_section_content":    true,
	}
	for _, tool := range tools.Tools {
		if !want[tool.Name] {
			t.Errorf("unexpected tool: %q", tool.Name)
		}
		delete(want, tool.Name)
	}
	for name := range want {
		t.Errorf("missing tool: %q", name)
	}
}

func TestInputSchemaBounds(t *testing.T) {
	// WHAT: The declared schemas carry the numeric bounds, so conforming
	// hosts can reject out-of-range arguments before the handler runs.
	if titleProp["minimum"] != 1 || titleProp["maximum"] != 50 {
		t.Errorf("title bounds: got min=%v max=%v", titleProp["minimum"], titleProp["maximum"])
	}

	schema := inputSchema(map[string]any{"title": titleProp}, []string{"title"})
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema properties: got %T", schema["properties"])
	}
	title, ok := props["title"].(map[string]any)
	if !ok || title["minimum"] != 1 {
		t.Errorf("schema title: got %v", props["title"])
	}
}

func TestMCP_CompareTitleDates(t *testing.T) {
	api := &stubAPI{
		structures: map[string]*ecfr.StructureNode{
			"2024-01-01": titleTree(section("1306.04", "Purpose of issue", false, 100)),
			"2024-06-01": titleTree(
				section("1306.04", "Purpose of issue", false, 100),
				section("1306.05", "Manner of issuance", false, 50),
			),
		},
	}
	session := mcpSession(t, api)

	text := mcpCallTool(t, session, "compare_title_dates", map[string]any{
		"title":      21,
		"start_date": "2024-01-01",
		"end_date":   "2024-06-01",
	})

	var got Comparison
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Summary.SectionsAdded != 1 || got.Summary.TotalChanges != 1 {
		t.Fatalf("summary: got %+v", got.Summary)
	}
	if got.Changes[0].Section != "1306.05" {
		t.Errorf("section: got %q", got.Changes[0].Section)
	}
}

func TestMCP_CompareTitleDates_InvalidInput(t *testing.T) {
	session := mcpSession(t, &stubAPI{})

	err := mcpCallToolErr(t, session, "compare_title_dates", map[string]any{
		"title":      99,
		"start_date": "2024-01-01",
		"end_date":   "2024-06-01",
	})
	if err == nil {
		t.Fatal("expected tool error for out-of-range title")
	}
}

func TestMCP_ListTitles(t *testing.T) {
	api := &stubAPI{titles: []ecfr.TitleMeta{{Number: 21, Name: "Food and Drugs", LatestIssueDate: "2025-01-01"}}}
	session := mcpSession(t, api)

	text := mcpCallTool(t, session, "list_titles", map[string]any{})

	var got []map[string]any
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("titles: got %d", len(got))
	}
}

func TestMCP_GetTitleXML_Verbatim(t *testing.T) {
	// WHAT: Raw XML is relayed without JSON wrapping.
	session := mcpSession(t, &stubAPI{})

	text := mcpCallTool(t, session, "get_title_xml", map[string]any{
		"title": 21,
		"date":  "2024-06-01",
	})
	if text != "<DIV8></DIV8>" {
		t.Errorf("xml: got %q", text)
	}

	// An explicit "raw" format behaves like the default.
	text = mcpCallTool(t, session, "get_title_xml", map[string]any{
		"title":  21,
		"date":   "2024-06-01",
		"format": "raw",
	})
	if text != "<DIV8></DIV8>" {
		t.Errorf("raw format: got %q", text)
	}
}

func TestMCP_GetSectionContent(t *testing.T) {
	api := &stubAPI{
		searchResp: json.RawMessage(`{"results":[
			{"structure_index":"999","hierarchy":{"section":"1306.99"}},
			{"structure_index":"1234","hierarchy":{"section":"1306.04"}}
		]}`),
		content: []byte("<p>Section body</p>"),
	}
	session := mcpSession(t, api)

	text := mcpCallTool(t, session, "get_section_content", map[string]any{
		"title":   21,
		"section": "1306.04",
		"date":    "2024-06-01",
	})
	if text != "<p>Section body</p>" {
		t.Errorf("content: got %q", text)
	}

	// The matching result's index must be used, not the first.
	found := false
	for _, call := range api.calls {
		if call == "content:1234" {
			found = true
		}
		if call == "content:999" {
			t.Error("resolved to the wrong search result")
		}
	}
	if !found {
		t.Error("content endpoint never called with matched index")
	}
}

func TestMCP_GetSectionContent_Markdown(t *testing.T) {
	api := &stubAPI{
		searchResp: json.RawMessage(`{"results":[{"structure_index":"1234","hierarchy":{"section":"1306.04"}}]}`),
		content:    []byte("<h1>Purpose</h1><p>Section body</p>"),
	}
	session := mcpSession(t, api)

	text := mcpCallTool(t, session, "get_section_content", map[string]any{
		"title":   21,
		"section": "1306.04",
		"date":    "2024-06-01",
		"format":  "markdown",
	})
	if text == "" || text[0] != '#' {
		t.Errorf("markdown: got %q, want heading", text)
	}
}

func TestMCP_GetSectionContent_Unresolved(t *testing.T) {
	api := &stubAPI{searchResp: json.RawMessage(`{"results":[]}`)}
	session := mcpSession(t, api)

	err := mcpCallToolErr(t, session, "get_section_content", map[string]any{
		"title":   21,
		"section": "1306.04",
		"date":    "2024-06-01",
	})
	if err == nil {
		t.Fatal("expected tool error for unresolvable section")
	}
}

func TestFilterCorrections(t *testing.T) {
	// WHAT: The client-side window keeps only corrections applied inside
	// [corrected_after, corrected_before].
	raw := json.RawMessage(`{"ecfr_corrections":[
		{"id":1,"error_corrected":"2024-01-15"},
		{"id":2,"error_corrected":"2024-07-01"},
		{"id":3,"error_corrected":"not-a-date"}
	]}`)

	out := filterCorrections(raw, "2024-01-01", "2024-06-01")

	var doc struct {
		Corrections []struct {
			ID int `json:"id"`
		} `json:"ecfr_corrections"`
		Meta struct {
			TotalCount int `json:"total_count"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Corrections) != 1 || doc.Corrections[0].ID != 1 {
		t.Fatalf("corrections: got %+v", doc.Corrections)
	}
	if doc.Meta.TotalCount != 1 {
		t.Errorf("total_count: got %d", doc.Meta.TotalCount)
	}
}

func TestFilterCorrections_UnknownShapePassesThrough(t *testing.T) {
	raw := json.RawMessage(`{"something_else":true}`)
	out := filterCorrections(raw, "2024-01-01", "")
	if string(out) != string(raw) {
		t.Fatalf("got %s", out)
	}
}
