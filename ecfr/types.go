// CLAUDE:SUMMARY Typed payloads for the eCFR versioner/search/admin APIs with optional-field tolerance.
package ecfr

// StructureNode is one node of a title structure document. The upstream
// JSON is loosely structured: every field may be absent, so zero values
// stand in for missing metadata and consumers must not assume presence.
type StructureNode struct {
	Type             string           `json:"type"`
	Identifier       string           `json:"identifier"`
	Label            string           `json:"label"`
	LabelLevel       string           `json:"label_level"`
	LabelDescription string           `json:"label_description"`
	Reserved         bool             `json:"reserved"`
	ReceivedOn       string           `json:"received_on"`
	Size             int64            `json:"size"`
	Children         []*StructureNode `json:"children"`
}

// NodeTypeSection tags the leaf level of the hierarchy. Only nodes of this
// type are indexed by FlattenSections.
const NodeTypeSection = "section"

// TitleMeta is one entry of the titles listing.
type TitleMeta struct {
	Number          int    `json:"number"`
	Name            string `json:"name"`
	LatestAmendedOn string `json:"latest_amended_on"`
	LatestIssueDate string `json:"latest_issue_date"`
	UpToDateAsOf    string `json:"up_to_date_as_of"`
	Reserved        bool   `json:"reserved"`
}

// titlesResponse is the envelope of the titles endpoint.
type titlesResponse struct {
	Titles []TitleMeta `json:"titles"`
}

// SearchOptions parameterises the search results endpoint.
type SearchOptions struct {
	Query              string
	Date               string
	LastModifiedAfter  string
	LastModifiedBefore string
	Order              string
	PerPage            int
	Page               int
}
