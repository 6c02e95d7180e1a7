// CLAUDE:SUMMARY Snapshot comparison engine: concurrent fetch, flatten, three-way classify, filter, summarise.
// Package regdiff compares two point-in-time snapshots of a CFR title and
// reports which sections were added, removed, or modified between them.
//
// Nothing is cached or persisted: every comparison fetches both structure
// documents fresh, and the fetches are fail-fast — if either snapshot
// cannot be retrieved the whole comparison fails with no partial result.
package regdiff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hazyhaar/regveille/audit"
	"github.com/hazyhaar/regveille/dateutil"
	"github.com/hazyhaar/regveille/ecfr"
)

// API is the slice of the eCFR client the service depends on.
type API interface {
	Structure(ctx context.Context, date string, title int, part string) (*ecfr.StructureNode, error)
	Titles(ctx context.Context) ([]ecfr.TitleMeta, error)
	FindTitle(ctx context.Context, title int) (*ecfr.TitleMeta, error)
	Search(ctx context.Context, opts ecfr.SearchOptions) (json.RawMessage, error)
	SearchSummary(ctx context.Context, opts ecfr.SearchOptions) (json.RawMessage, error)
	Agencies(ctx context.Context) (json.RawMessage, error)
	Corrections(ctx context.Context, title, date, errorCorrectedDate string) (json.RawMessage, error)
	FullXML(ctx context.Context, date string, title int, part, section string) (string, error)
	Versions(ctx context.Context, title int, part, issueDateStart, issueDateEnd string) (json.RawMessage, error)
	Ancestry(ctx context.Context, date string, title int, part, section string) (json.RawMessage, error)
	Content(ctx context.Context, date, structureIndex string) ([]byte, string, error)
}

// Service is the regdiff orchestrator: it owns the comparison engine and
// every MCP tool exposed by the server.
type Service struct {
	api      API
	logger   *slog.Logger
	config   *Config
	audit    audit.Logger // optional
	renderer *Renderer
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithAudit sets the audit logger for tool invocations.
func WithAudit(a audit.Logger) ServiceOption {
	return func(svc *Service) { svc.audit = a }
}

// New creates a regdiff Service.
func New(api API, cfg *Config, logger *slog.Logger, opts ...ServiceOption) *Service {
	if cfg == nil {
		cfg = defaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		api:      api,
		logger:   logger,
		config:   cfg,
		renderer: NewRenderer(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CompareRequest parameterises a snapshot comparison.
type CompareRequest struct {
	Title       int          `json:"title"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Part        string       `json:"part,omitempty"`
	ChangeTypes []ChangeType `json:"change_types,omitempty"`
}

// Compare fetches the structure snapshots at the request's start and end
// dates, diffs them, and returns the filtered change report. The end date
// is clamped to the title's latest issue date so the comparison never
// requests data beyond what the corpus has published.
func (svc *Service) Compare(ctx context.Context, req CompareRequest) (*Comparison, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validateDate("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if err := validateDate("end_date", req.EndDate); err != nil {
		return nil, err
	}
	if err := validateChangeTypes(req.ChangeTypes); err != nil {
		return nil, err
	}

	endDate, err := svc.clampEndDate(ctx, req.Title, req.EndDate)
	if err != nil {
		return nil, err
	}
	if endDate != req.EndDate {
		svc.logger.Debug("end date clamped to latest issue date",
			"title", req.Title, "requested", req.EndDate, "effective", endDate)
	}

	startMap, endMap, err := svc.fetchSnapshots(ctx, req.Title, req.StartDate, endDate, req.Part)
	if err != nil {
		return nil, err
	}

	changes := classify(req.Title, req.Part, endDate, startMap, endMap)
	changes = filterChanges(changes, req.ChangeTypes)

	result := &Comparison{
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   endDate,
		Part:      req.Part,
		Summary:   summarize(changes),
		Changes:   changes,
	}
	svc.logger.Info("comparison complete",
		"title", req.Title, "start", req.StartDate, "end", endDate,
		"total_changes", result.Summary.TotalChanges)
	return result, nil
}

// RecentChangesRequest parameterises the recent-changes operation.
type RecentChangesRequest struct {
	Title       int          `json:"title"`
	Days        int          `json:"days,omitempty"`     // default Config.RecentWindowDays
	EndDate     string       `json:"end_date,omitempty"` // default today (UTC)
	Part        string       `json:"part,omitempty"`
	ChangeTypes []ChangeType `json:"change_types,omitempty"`
}

// RecentChanges compares the snapshot `days` before the (clamped) end date
// against the end date itself.
func (svc *Service) RecentChanges(ctx context.Context, req RecentChangesRequest) (*Comparison, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}
	days := req.Days
	if days == 0 {
		days = svc.config.RecentWindowDays
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be a positive integer, got %d", ErrInvalidInput, days)
	}

	endDate := req.EndDate
	if endDate == "" {
		endDate = dateutil.Today()
	}
	if err := validateDate("end_date", endDate); err != nil {
		return nil, err
	}

	// Clamp before deriving the window so the start date is measured from
	// a date the corpus actually has.
	endDate, err := svc.clampEndDate(ctx, req.Title, endDate)
	if err != nil {
		return nil, err
	}
	startDate := dateutil.Format(dateutil.Parse(endDate).AddDate(0, 0, -days))

	return svc.Compare(ctx, CompareRequest{
		Title:       req.Title,
		StartDate:   startDate,
		EndDate:     endDate,
		Part:        req.Part,
		ChangeTypes: req.ChangeTypes,
	})
}

// clampEndDate caps requested against the title's latest issue date.
// YYYY-MM-DD sorts lexicographically in chronological order, so a plain
// string compare suffices. An unknown title leaves the date unclamped.
func (svc *Service) clampEndDate(ctx context.Context, title int, requested string) (string, error) {
	meta, err := svc.api.FindTitle(ctx, title)
	if err != nil {
		if errors.Is(err, ecfr.ErrTitleNotFound) {
			return requested, nil
		}
		return "", fmt.Errorf("fetch title metadata: %w", err)
	}
	if meta.LatestIssueDate != "" && requested > meta.LatestIssueDate {
		return meta.LatestIssueDate, nil
	}
	return requested, nil
}

// fetchSnapshots retrieves and flattens both structure documents
// concurrently. Fail-fast join: the first error cancels the other fetch
// and fails the comparison.
func (svc *Service) fetchSnapshots(ctx context.Context, title int, startDate, endDate, part string) (ecfr.SectionMap, ecfr.SectionMap, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		startMap ecfr.SectionMap
		endMap   ecfr.SectionMap
		startErr error
		endErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		root, err := svc.api.Structure(ctx, startDate, title, part)
		if err != nil {
			startErr = fmt.Errorf("fetch structure at %s: %w", startDate, err)
			cancel()
			return
		}
		startMap = ecfr.FlattenSections(root)
	}()
	go func() {
		defer wg.Done()
		root, err := svc.api.Structure(ctx, endDate, title, part)
		if err != nil {
			endErr = fmt.Errorf("fetch structure at %s: %w", endDate, err)
			cancel()
			return
		}
		endMap = ecfr.FlattenSections(root)
	}()
	wg.Wait()

	if startErr != nil {
		return nil, nil, startErr
	}
	if endErr != nil {
		return nil, nil, endErr
	}
	return startMap, endMap, nil
}

// classify produces the change list: added, then removed, then modified,
// each class in identifier order so reports are stable across runs.
func classify(title int, part, endDate string, startMap, endMap ecfr.SectionMap) []ChangeRecord {
	var changes []ChangeRecord

	for _, id := range sortedKeys(endMap) {
		if _, ok := startMap[id]; ok {
			continue
		}
		node := endMap[id]
		changes = append(changes, ChangeRecord{
			Type:       ChangeAdded,
			Section:    id,
			Citation:   citation(title, id),
			Part:       partOf(part, id),
			ChangeDate: endDate,
			Heading:    heading(node),
		})
	}

	for _, id := range sortedKeys(startMap) {
		if _, ok := endMap[id]; ok {
			continue
		}
		node := startMap[id]
		changes = append(changes, ChangeRecord{
			Type:       ChangeRemoved,
			Section:    id,
			Citation:   citation(title, id),
			Part:       partOf(part, id),
			ChangeDate: endDate,
			Heading:    heading(node),
		})
	}

	for _, id := range sortedKeys(endMap) {
		before, ok := startMap[id]
		if !ok {
			continue
		}
		after := endMap[id]
		if !sectionModified(before, after) {
			continue
		}
		changes = append(changes, ChangeRecord{
			Type:          ChangeModified,
			Section:       id,
			Citation:      citation(title, id),
			Part:          partOf(part, id),
			ChangeDate:    endDate,
			Description:   modifiedDescription,
			StartMetadata: metadataOf(before),
			EndMetadata:   metadataOf(after),
		})
	}
	return changes
}

// sectionModified reports whether any compared field differs between the
// two versions of a section. A single differing field suffices; the
// opaque received_on/size scalars are compared by strict inequality
// without interpretation.
func sectionModified(before, after *ecfr.StructureNode) bool {
	return before.LabelDescription != after.LabelDescription ||
		before.Reserved != after.Reserved ||
		before.ReceivedOn != after.ReceivedOn ||
		before.Size != after.Size
}

// filterChanges keeps only records whose type is in the requested set.
// An empty set keeps everything.
func filterChanges(changes []ChangeRecord, types []ChangeType) []ChangeRecord {
	if len(types) == 0 {
		return changes
	}
	want := make(map[ChangeType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	filtered := make([]ChangeRecord, 0, len(changes))
	for _, c := range changes {
		if want[c.Type] {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// summarize counts the (already filtered) change list.
func summarize(changes []ChangeRecord) ChangeSummary {
	var s ChangeSummary
	for _, c := range changes {
		switch c.Type {
		case ChangeAdded:
			s.SectionsAdded++
		case ChangeRemoved:
			s.SectionsRemoved++
		case ChangeModified:
			s.SectionsModified++
		}
	}
	s.TotalChanges = len(changes)
	return s
}

func citation(title int, section string) string {
	return fmt.Sprintf("%d CFR %s", title, section)
}

// partOf resolves the part of a record: the caller's part when scoped,
// otherwise the prefix of a "part.section" identifier, otherwise null.
func partOf(requested, identifier string) *string {
	if requested != "" {
		return &requested
	}
	if i := strings.Index(identifier, "."); i > 0 {
		p := identifier[:i]
		return &p
	}
	return nil
}

// heading returns the best-effort label of a node.
func heading(node *ecfr.StructureNode) string {
	if node.LabelDescription != "" {
		return node.LabelDescription
	}
	return node.Label
}

func metadataOf(node *ecfr.StructureNode) *SectionMetadata {
	return &SectionMetadata{
		ReceivedOn: node.ReceivedOn,
		Reserved:   node.Reserved,
		Size:       node.Size,
	}
}

func sortedKeys(m ecfr.SectionMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
