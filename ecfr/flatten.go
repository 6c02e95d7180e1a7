package ecfr

// SectionMap maps a leaf section identifier to its node within one
// structure document. Built by FlattenSections; lookups are by key only.
type SectionMap map[string]*StructureNode

// FlattenSections walks a structure document and indexes every section
// leaf by identifier. The traversal is iterative with an explicit
// work list, so a malformed or adversarially deep document cannot blow
// the stack. Nil nodes and nil children are skipped, and a section with
// an empty identifier contributes nothing. On duplicate identifiers the
// last node visited wins; that is a defensive fallback, duplicates do
// not occur in well-formed documents.
func FlattenSections(root *StructureNode) SectionMap {
	sections := make(SectionMap)
	if root == nil {
		return sections
	}

	stack := []*StructureNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}

		if node.Type == NodeTypeSection && node.Identifier != "" {
			sections[node.Identifier] = node
		}

		// Children are visited regardless of the parent's own type: the
		// hierarchy nests title/subtitle/chapter/subchapter/part above
		// the section leaves.
		for _, child := range node.Children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return sections
}
