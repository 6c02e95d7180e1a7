package ecfr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestClient_Structure(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/versioner/v1/structure/2025-01-01/title-21.json" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("part"); got != "1306" {
			t.Errorf("part: got %q", got)
		}
		w.Write([]byte(`{"type":"title","identifier":"21","children":[{"type":"section","identifier":"1306.04"}]}`))
	}))

	root, err := c.Structure(context.Background(), "2025-01-01", 21, "1306")
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if root.Identifier != "21" || len(root.Children) != 1 {
		t.Fatalf("unexpected root: %+v", root)
	}
}

func TestClient_Structure_HTTPError(t *testing.T) {
	// WHAT: Non-2xx becomes *APIError with status and a capped body excerpt.
	// WHY: Transport errors must carry enough detail to report to the caller.
	bigBody := strings.Repeat("x", 2000)
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, bigBody, http.StatusNotFound)
	}))

	_, err := c.Structure(context.Background(), "2030-01-01", 21, "")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d", apiErr.StatusCode)
	}
	if len(apiErr.Body) > bodyExcerptLimit {
		t.Errorf("body excerpt: got %d bytes, cap is %d", len(apiErr.Body), bodyExcerptLimit)
	}
}

func TestClient_FindTitle(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"titles":[
			{"number":1,"name":"General Provisions","latest_issue_date":"2025-02-01"},
			{"number":21,"name":"Food and Drugs","latest_issue_date":"2025-01-15"}
		]}`))
	}))

	meta, err := c.FindTitle(context.Background(), 21)
	if err != nil {
		t.Fatalf("find title: %v", err)
	}
	if meta.LatestIssueDate != "2025-01-15" {
		t.Errorf("latest_issue_date: got %q", meta.LatestIssueDate)
	}

	_, err = c.FindTitle(context.Background(), 99)
	if !errors.Is(err, ErrTitleNotFound) {
		t.Fatalf("missing title: got %v, want ErrTitleNotFound", err)
	}
}

func TestClient_Search_Params(t *testing.T) {
	var gotPath, gotQuery string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"results":[]}`))
	}))

	_, err := c.Search(context.Background(), SearchOptions{
		Query: "prescription", Date: "2025-01-01", Order: "relevance", PerPage: 20,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotPath != "/api/search/v1/results.json" {
		t.Errorf("path: got %q", gotPath)
	}
	for _, want := range []string{"query=prescription", "date=2025-01-01", "order=relevance", "per_page=20"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestClient_SearchSummary_Path(t *testing.T) {
	var gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"meta":{}}`))
	}))

	if _, err := c.SearchSummary(context.Background(), SearchOptions{Query: "prescription"}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if gotPath != "/api/search/v1/summary.json" {
		t.Errorf("path: got %q", gotPath)
	}
}

func TestClient_FullXML(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/versioner/v1/full/2025-01-01/title-21.xml" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<DIV8 N="1306.04"><HEAD>Purpose</HEAD></DIV8>`))
	}))

	xml, err := c.FullXML(context.Background(), "2025-01-01", 21, "1306", "1306.04")
	if err != nil {
		t.Fatalf("full xml: %v", err)
	}
	if !strings.Contains(xml, "1306.04") {
		t.Errorf("xml: got %q", xml)
	}
}

func TestClient_Content_TypeRelay(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("plain section text"))
	}))

	body, contentType, err := c.Content(context.Background(), "2025-01-01", "idx-42")
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if string(body) != "plain section text" {
		t.Errorf("body: got %q", body)
	}
	if !strings.HasPrefix(contentType, "text/plain") {
		t.Errorf("content type: got %q", contentType)
	}
}
