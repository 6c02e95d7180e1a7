// CLAUDE:SUMMARY Pass-through MCP tools relaying eCFR search, metadata, XML and versioning endpoints.
package regdiff

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/regveille/dateutil"
	"github.com/hazyhaar/regveille/ecfr"
)

const formatMarkdown = "markdown"

var formatProp = map[string]any{
	"type":        "string",
	"enum":        []string{"raw", "markdown"},
	"description": "Output format: raw document text (default) or rendered markdown",
}

// --- Search ---

type searchRequest struct {
	Query   string `json:"query"`
	Date    string `json:"date,omitempty"`
	Order   string `json:"order,omitempty"`
	PerPage int    `json:"per_page,omitempty"`
	Page    int    `json:"page,omitempty"`
}

func (svc *Service) searchOptions(r *searchRequest) (ecfr.SearchOptions, error) {
	if r.Query == "" {
		return ecfr.SearchOptions{}, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	perPage := r.PerPage
	if perPage <= 0 || perPage > svc.config.MaxSearchResults {
		perPage = svc.config.MaxSearchResults
	}
	return ecfr.SearchOptions{
		Query:   r.Query,
		Date:    r.Date,
		Order:   r.Order,
		PerPage: perPage,
		Page:    r.Page,
	}, nil
}

func (svc *Service) registerSearchRegulations(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "search_regulations",
		Description: "Full-text search across the CFR, optionally as of a given date",
		InputSchema: inputSchema(map[string]any{
			"query":    map[string]any{"type": "string", "description": "Search terms"},
			"date":     map[string]any{"type": "string", "description": "Search the corpus as of this YYYY-MM-DD date (optional)"},
			"order":    map[string]any{"type": "string", "description": "Result ordering, e.g. relevance or newest_first (optional)"},
			"per_page": map[string]any{"type": "integer", "description": "Results per page (optional, capped)"},
			"page":     map[string]any{"type": "integer", "description": "Page number (optional)"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		opts, err := svc.searchOptions(r.(*searchRequest))
		if err != nil {
			return nil, err
		}
		return svc.api.Search(ctx, opts)
	}

	svc.register(srv, tool, endpoint, decodeJSON[searchRequest])
}

type searchDateRangeRequest struct {
	Query              string `json:"query"`
	LastModifiedAfter  string `json:"last_modified_after,omitempty"`
	LastModifiedBefore string `json:"last_modified_before,omitempty"`
	PerPage            int    `json:"per_page,omitempty"`
	Page               int    `json:"page,omitempty"`
}

func (svc *Service) registerSearchWithDateRange(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "search_with_date_range",
		Description: "Full-text search restricted to regulations last modified within a date range",
		InputSchema: inputSchema(map[string]any{
			"query":                map[string]any{"type": "string", "description": "Search terms"},
			"last_modified_after":  map[string]any{"type": "string", "description": "Only results modified after this YYYY-MM-DD date (optional)"},
			"last_modified_before": map[string]any{"type": "string", "description": "Only results modified before this YYYY-MM-DD date (optional)"},
			"per_page":             map[string]any{"type": "integer", "description": "Results per page (optional, capped)"},
			"page":                 map[string]any{"type": "integer", "description": "Page number (optional)"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*searchDateRangeRequest)
		opts, err := svc.searchOptions(&searchRequest{Query: p.Query, PerPage: p.PerPage, Page: p.Page})
		if err != nil {
			return nil, err
		}
		opts.LastModifiedAfter = p.LastModifiedAfter
		opts.LastModifiedBefore = p.LastModifiedBefore
		return svc.api.Search(ctx, opts)
	}

	svc.register(srv, tool, endpoint, decodeJSON[searchDateRangeRequest])
}

func (svc *Service) registerGetSearchSummary(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_search_summary",
		Description: "Aggregate counts for a search query without retrieving the results themselves",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Search terms"},
			"date":  map[string]any{"type": "string", "description": "Summarise the corpus as of this YYYY-MM-DD date (optional)"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		opts, err := svc.searchOptions(r.(*searchRequest))
		if err != nil {
			return nil, err
		}
		return svc.api.SearchSummary(ctx, opts)
	}

	svc.register(srv, tool, endpoint, decodeJSON[searchRequest])
}

// --- Metadata ---

func (svc *Service) registerListTitles(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_titles",
		Description: "List all CFR titles with their names and currency dates",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.api.Titles(ctx)
	}

	svc.register(srv, tool, endpoint, decodeJSON[struct{}])
}

func (svc *Service) registerListAgencies(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "list_agencies",
		Description: "List federal agencies and the CFR references they own",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.api.Agencies(ctx)
	}

	svc.register(srv, tool, endpoint, decodeJSON[struct{}])
}

type correctionsRequest struct {
	Title              string `json:"title,omitempty"`
	Date               string `json:"date,omitempty"`
	ErrorCorrectedDate string `json:"error_corrected_date,omitempty"`
	CorrectedAfter     string `json:"corrected_after,omitempty"`
	CorrectedBefore    string `json:"corrected_before,omitempty"`
}

func (svc *Service) registerGetCorrections(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_corrections",
		Description: "List published corrections to the CFR, optionally filtered by title or date",
		InputSchema: inputSchema(map[string]any{
			"title":                map[string]any{"type": "string", "description": "CFR title number (optional)"},
			"date":                 map[string]any{"type": "string", "description": "Corrections effective on this YYYY-MM-DD date (optional)"},
			"error_corrected_date": map[string]any{"type": "string", "description": "Corrections applied on this exact YYYY-MM-DD date (optional)"},
			"corrected_after":      map[string]any{"type": "string", "description": "Keep corrections applied on or after this YYYY-MM-DD date (optional)"},
			"corrected_before":     map[string]any{"type": "string", "description": "Keep corrections applied on or before this YYYY-MM-DD date (optional)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*correctionsRequest)
		raw, err := svc.api.Corrections(ctx, p.Title, p.Date, p.ErrorCorrectedDate)
		if err != nil {
			return nil, err
		}
		if p.CorrectedAfter == "" && p.CorrectedBefore == "" {
			return raw, nil
		}
		return filterCorrections(raw, p.CorrectedAfter, p.CorrectedBefore), nil
	}

	svc.register(srv, tool, endpoint, decodeJSON[correctionsRequest])
}

// filterCorrections keeps corrections whose error_corrected date falls
// within [after, before]. The upstream endpoint has no range parameters,
// so the window is applied client-side; entries without a parseable date
// are dropped when a window is requested. Unrecognised response shapes
// pass through untouched.
func filterCorrections(raw json.RawMessage, after, before string) json.RawMessage {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	items, ok := doc["ecfr_corrections"].([]any)
	if !ok {
		return raw
	}

	kept := make([]any, 0, len(items))
	for _, item := range items {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		corrected, _ := c["error_corrected"].(string)
		if dateutil.WithinRange(corrected, after, before) {
			kept = append(kept, item)
		}
	}
	doc["ecfr_corrections"] = kept
	doc["meta"] = map[string]any{"total_count": len(kept)}

	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}

// --- Full text ---

type xmlRequest struct {
	Title   int    `json:"title"`
	Date    string `json:"date"`
	Part    string `json:"part,omitempty"`
	Section string `json:"section,omitempty"`
	Format  string `json:"format,omitempty"`
}

func (svc *Service) fullText(ctx context.Context, p *xmlRequest) (any, error) {
	if err := validateTitle(p.Title); err != nil {
		return nil, err
	}
	if err := validateDate("date", p.Date); err != nil {
		return nil, err
	}
	doc, err := svc.api.FullXML(ctx, p.Date, p.Title, p.Part, p.Section)
	if err != nil {
		return nil, err
	}
	if p.Format == formatMarkdown {
		return svc.renderer.Markdown(doc), nil
	}
	return doc, nil
}

func (svc *Service) registerGetTitleXML(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_title_xml",
		Description: "Retrieve the full text of a CFR title at a point in time",
		InputSchema: inputSchema(map[string]any{
			"title":  titleProp,
			"date":   dateProp,
			"format": formatProp,
		}, []string{"title", "date"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*xmlRequest)
		p.Part, p.Section = "", ""
		return svc.fullText(ctx, p)
	}

	svc.register(srv, tool, endpoint, decodeJSON[xmlRequest])
}

func (svc *Service) registerGetPartXML(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_part_xml",
		Description: "Retrieve the full text of one part of a CFR title at a point in time",
		InputSchema: inputSchema(map[string]any{
			"title":  titleProp,
			"part":   map[string]any{"type": "string", "description": "Part number"},
			"date":   dateProp,
			"format": formatProp,
		}, []string{"title", "part", "date"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*xmlRequest)
		if p.Part == "" {
			return nil, fmt.Errorf("%w: part is required", ErrInvalidInput)
		}
		return svc.fullText(ctx, p)
	}

	svc.register(srv, tool, endpoint, decodeJSON[xmlRequest])
}

// --- Versioning and hierarchy ---

type versionsRequest struct {
	Title          int    `json:"title"`
	Part           string `json:"part,omitempty"`
	IssueDateStart string `json:"issue_date_start,omitempty"`
	IssueDateEnd   string `json:"issue_date_end,omitempty"`
}

func (svc *Service) registerGetTitleVersions(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_title_versions",
		Description: "List section-level version history for a CFR title",
		InputSchema: inputSchema(map[string]any{
			"title":            titleProp,
			"part":             partProp,
			"issue_date_start": map[string]any{"type": "string", "description": "Only versions issued on or after this YYYY-MM-DD date (optional)"},
			"issue_date_end":   map[string]any{"type": "string", "description": "Only versions issued on or before this YYYY-MM-DD date (optional)"},
		}, []string{"title"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*versionsRequest)
		if err := validateTitle(p.Title); err != nil {
			return nil, err
		}
		return svc.api.Versions(ctx, p.Title, p.Part, p.IssueDateStart, p.IssueDateEnd)
	}

	svc.register(srv, tool, endpoint, decodeJSON[versionsRequest])
}

type structureRequest struct {
	Title   int    `json:"title"`
	Date    string `json:"date"`
	Part    string `json:"part,omitempty"`
	Section string `json:"section,omitempty"`
}

func (svc *Service) registerGetTitleStructure(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_title_structure",
		Description: "Retrieve the hierarchical structure of a CFR title at a point in time",
		InputSchema: inputSchema(map[string]any{
			"title": titleProp,
			"date":  dateProp,
			"part":  partProp,
		}, []string{"title", "date"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*structureRequest)
		if err := validateTitle(p.Title); err != nil {
			return nil, err
		}
		if err := validateDate("date", p.Date); err != nil {
			return nil, err
		}
		return svc.api.Structure(ctx, p.Date, p.Title, p.Part)
	}

	svc.register(srv, tool, endpoint, decodeJSON[structureRequest])
}

func (svc *Service) registerGetTitleAncestry(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_title_ancestry",
		Description: "Retrieve the ancestry chain of a CFR node (title, part, or section) at a point in time",
		InputSchema: inputSchema(map[string]any{
			"title":   titleProp,
			"date":    dateProp,
			"part":    partProp,
			"section": map[string]any{"type": "string", "description": "Section identifier, e.g. 1306.04 (optional)"},
		}, []string{"title", "date"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*structureRequest)
		if err := validateTitle(p.Title); err != nil {
			return nil, err
		}
		if err := validateDate("date", p.Date); err != nil {
			return nil, err
		}
		return svc.api.Ancestry(ctx, p.Date, p.Title, p.Part, p.Section)
	}

	svc.register(srv, tool, endpoint, decodeJSON[structureRequest])
}

// --- Section content ---

type sectionContentRequest struct {
	Title   int    `json:"title"`
	Section string `json:"section"`
	Date    string `json:"date"`
	Format  string `json:"format,omitempty"`
}

func (svc *Service) registerGetSectionContent(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "get_section_content",
		Description: "Retrieve the content of one CFR section, resolved through the search index",
		InputSchema: inputSchema(map[string]any{
			"title":   titleProp,
			"section": map[string]any{"type": "string", "description": "Section identifier, e.g. 1306.04"},
			"date":    dateProp,
			"format":  formatProp,
		}, []string{"title", "section", "date"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*sectionContentRequest)
		return svc.SectionContent(ctx, p)
	}

	svc.register(srv, tool, endpoint, decodeJSON[sectionContentRequest])
}

// SectionContent resolves a section citation to its search index entry
// and fetches the indexed content.
func (svc *Service) SectionContent(ctx context.Context, p *sectionContentRequest) (any, error) {
	if err := validateTitle(p.Title); err != nil {
		return nil, err
	}
	if p.Section == "" {
		return nil, fmt.Errorf("%w: section is required", ErrInvalidInput)
	}
	if err := validateDate("date", p.Date); err != nil {
		return nil, err
	}

	raw, err := svc.api.Search(ctx, ecfr.SearchOptions{
		Query:   fmt.Sprintf("%d CFR %s", p.Title, p.Section),
		Date:    p.Date,
		PerPage: 20,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve section: %w", err)
	}

	index := structureIndexFor(raw, p.Section)
	if index == "" {
		return nil, fmt.Errorf("%w: %d CFR %s at %s", ErrSectionNotResolved, p.Title, p.Section, p.Date)
	}

	body, contentType, err := svc.api.Content(ctx, p.Date, index)
	if err != nil {
		return nil, err
	}
	if p.Format == formatMarkdown {
		return svc.renderer.Markdown(string(body)), nil
	}
	svc.logger.Debug("section content fetched",
		"section", p.Section, "structure_index", index, "content_type", contentType)
	return string(body), nil
}

// structureIndexFor walks a raw search response for the structure_index
// of the result matching the section identifier. The response shape is
// not guaranteed, so every step is type-checked; the first result is the
// fallback when no hierarchy entry names the section.
func structureIndexFor(raw json.RawMessage, section string) string {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	results, ok := doc["results"].([]any)
	if !ok {
		return ""
	}

	var fallback string
	for _, item := range results {
		result, ok := item.(map[string]any)
		if !ok {
			continue
		}
		index, _ := result["structure_index"].(string)
		if index == "" {
			// Some responses carry the index as a number.
			if n, ok := result["structure_index"].(float64); ok {
				index = fmt.Sprintf("%.0f", n)
			}
		}
		if index == "" {
			continue
		}
		if fallback == "" {
			fallback = index
		}
		if hierarchy, ok := result["hierarchy"].(map[string]any); ok {
			if s, _ := hierarchy["section"].(string); s == section {
				return index
			}
		}
	}
	return fallback
}
