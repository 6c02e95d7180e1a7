// CLAUDE:SUMMARY Change record / summary types produced by the snapshot comparison engine.
package regdiff

// ChangeType classifies one detected difference.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"

	// Accepted as filter values but never produced by the engine; they
	// are reserved for change categories the upstream corpus does not
	// expose yet. Filtering to only these always yields an empty report.
	ChangeEffective      ChangeType = "effective"
	ChangeCrossReference ChangeType = "cross_reference"
)

// knownChangeTypes is the full filter vocabulary.
var knownChangeTypes = map[ChangeType]bool{
	ChangeAdded:          true,
	ChangeRemoved:        true,
	ChangeModified:       true,
	ChangeEffective:      true,
	ChangeCrossReference: true,
}

// SectionMetadata is the comparison-relevant slice of a section node,
// snapshotted on both sides of a modified record.
type SectionMetadata struct {
	ReceivedOn string `json:"received_on,omitempty"`
	Reserved   bool   `json:"reserved"`
	Size       int64  `json:"size,omitempty"`
}

// ChangeRecord is one detected difference between two snapshots.
type ChangeRecord struct {
	Type     ChangeType `json:"type"`
	Section  string     `json:"section"`
	Citation string     `json:"citation"` // "{title} CFR {section}"
	Part     *string    `json:"part"`     // null when the part is unknown
	// ChangeDate is the end-snapshot date used for the comparison.
	ChangeDate string `json:"change_date"`

	// Heading is set on added/removed records (best-effort label).
	Heading string `json:"heading,omitempty"`

	// Description plus both metadata snapshots are set on modified records.
	Description   string           `json:"description,omitempty"`
	StartMetadata *SectionMetadata `json:"start_metadata,omitempty"`
	EndMetadata   *SectionMetadata `json:"end_metadata,omitempty"`
}

// ChangeSummary aggregates a change list. Counts reflect the filtered
// list, not the unfiltered universe.
type ChangeSummary struct {
	TotalChanges     int `json:"total_changes"`
	SectionsAdded    int `json:"sections_added"`
	SectionsRemoved  int `json:"sections_removed"`
	SectionsModified int `json:"sections_modified"`
}

// Comparison is the full result of comparing two snapshots of a title.
type Comparison struct {
	Title     int            `json:"title"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"` // effective (clamped) end date
	Part      string         `json:"part,omitempty"`
	Summary   ChangeSummary  `json:"summary"`
	Changes   []ChangeRecord `json:"changes"`
}

// modifiedDescription explains what a modified record means; which of the
// compared fields differed is deliberately not reported.
const modifiedDescription = "Section metadata changed (heading, reservation status, receipt date, or content size)"
