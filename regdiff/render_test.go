package regdiff

import (
	"strings"
	"testing"
)

func TestRenderer_Markdown(t *testing.T) {
	// WHAT: XHTML-shaped regulation text converts to markdown headings
	// and paragraphs.
	r := NewRenderer()

	got := r.Markdown(`<div><h1>§ 1306.04 Purpose of issue.</h1><p>A prescription <em>must</em> be issued for a legitimate medical purpose.</p></div>`)
	if !strings.HasPrefix(got, "# ") {
		t.Errorf("heading: got %q", got)
	}
	if !strings.Contains(got, "*must*") && !strings.Contains(got, "_must_") {
		t.Errorf("emphasis: got %q", got)
	}
}

func TestRenderer_StripsScripts(t *testing.T) {
	r := NewRenderer()

	got := r.Markdown(`<p>body</p><script>alert(1)</script>`)
	if strings.Contains(got, "alert") {
		t.Errorf("script leaked: %q", got)
	}
	if !strings.Contains(got, "body") {
		t.Errorf("content lost: %q", got)
	}
}

func TestRenderer_EmptyInput(t *testing.T) {
	r := NewRenderer()
	if got := r.Markdown(""); got != "" {
		t.Errorf("empty: got %q", got)
	}
}

func TestRenderer_Tables(t *testing.T) {
	r := NewRenderer()

	got := r.Markdown(`<table><tr><th>Schedule</th><th>Refills</th></tr><tr><td>II</td><td>0</td></tr></table>`)
	if !strings.Contains(got, "|") {
		t.Errorf("table: got %q", got)
	}
}

func TestStripTags(t *testing.T) {
	got := stripTags(`<div><p>one</p><p>two</p></div>`)
	if !strings.Contains(got, "one") || !strings.Contains(got, "two") {
		t.Errorf("strip: got %q", got)
	}
}
