package ecfr

import (
	"encoding/json"
	"testing"
)

func TestFlattenSections_Completeness(t *testing.T) {
	// WHAT: Every section leaf with a unique identifier lands in the map.
	// WHY: The differ compares snapshots keyed by section identifier.
	root := &StructureNode{
		Type: "title", Identifier: "21",
		Children: []*StructureNode{
			{
				Type: "chapter", Identifier: "II",
				Children: []*StructureNode{
					{
						Type: "part", Identifier: "1306",
						Children: []*StructureNode{
							{Type: "section", Identifier: "1306.04", LabelDescription: "Purpose of issue"},
							{Type: "section", Identifier: "1306.05", LabelDescription: "Manner of issuance"},
						},
					},
				},
			},
			{
				Type: "subtitle", Identifier: "A",
				Children: []*StructureNode{
					{Type: "section", Identifier: "1.1"},
				},
			},
		},
	}

	m := FlattenSections(root)
	if len(m) != 3 {
		t.Fatalf("section count: got %d, want 3", len(m))
	}
	for _, id := range []string{"1306.04", "1306.05", "1.1"} {
		if m[id] == nil {
			t.Errorf("missing section %q", id)
		}
	}
	if m["1306.04"].LabelDescription != "Purpose of issue" {
		t.Errorf("label: got %q", m["1306.04"].LabelDescription)
	}
}

func TestFlattenSections_Safety(t *testing.T) {
	// WHAT: Nil root, nil children, empty identifiers never panic.
	// WHY: Upstream documents omit fields freely; flattening must
	// degrade, not error.
	if m := FlattenSections(nil); len(m) != 0 {
		t.Fatalf("nil root: got %d entries", len(m))
	}

	root := &StructureNode{
		Type: "title",
		Children: []*StructureNode{
			nil,
			{Type: "section"}, // empty identifier, skipped
			{Type: "part", Children: nil},
			{
				Type:     "part",
				Children: []*StructureNode{nil, {Type: "section", Identifier: "5.1"}},
			},
		},
	}
	m := FlattenSections(root)
	if len(m) != 1 {
		t.Fatalf("entries: got %d, want 1", len(m))
	}
	if m["5.1"] == nil {
		t.Fatal("missing section 5.1")
	}
}

func TestFlattenSections_DuplicateLastWins(t *testing.T) {
	// Duplicate identifiers are a defensive fallback: one entry survives.
	root := &StructureNode{
		Type: "title",
		Children: []*StructureNode{
			{Type: "section", Identifier: "1.1", LabelDescription: "first"},
			{Type: "section", Identifier: "1.1", LabelDescription: "second"},
		},
	}
	m := FlattenSections(root)
	if len(m) != 1 {
		t.Fatalf("entries: got %d, want 1", len(m))
	}
}

func TestFlattenSections_DeepNesting(t *testing.T) {
	// WHAT: A pathologically deep chain flattens without recursion limits.
	// WHY: The traversal is work-list based precisely for this case.
	leaf := &StructureNode{Type: "section", Identifier: "deep.1"}
	node := leaf
	for i := 0; i < 100_000; i++ {
		node = &StructureNode{Type: "part", Children: []*StructureNode{node}}
	}
	m := FlattenSections(node)
	if len(m) != 1 || m["deep.1"] == nil {
		t.Fatalf("deep leaf not found, got %d entries", len(m))
	}
}

func TestStructureNode_DecodeMissingFields(t *testing.T) {
	// Upstream JSON omits most fields on most nodes.
	raw := `{"type":"section","identifier":"1306.04","children":null}`
	var n StructureNode
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.Identifier != "1306.04" || n.Reserved || n.Size != 0 {
		t.Fatalf("unexpected node: %+v", n)
	}
}
