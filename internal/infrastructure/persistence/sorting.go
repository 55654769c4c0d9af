package persistence

import (
	"strings"

	"github.com/fablecraft/backend/internal/domain/shared"
)

// ValidateSortOrder normalizes a direction to ASC or DESC, DESC by default
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is on the allow-list,
// otherwise defaultField. Matching is case-sensitive.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	if f := strings.TrimSpace(sortField); allowedFields[f] {
		return f
	}
	return defaultField
}

// sortSpec is a table's ordering policy: the allow-list plus the order
// used when the client does not pick a column
type sortSpec struct {
	allowed   map[string]bool
	column    string
	direction string
}

// orderClause builds "<column> <DIR>" for a filter. A blank direction
// keeps the table's default.
func (s sortSpec) orderClause(f shared.Filter) string {
	column, dir := s.column, s.direction
	if strings.TrimSpace(f.OrderBy) != "" {
		column = ValidateSortField(f.OrderBy, s.allowed, s.column)
	}
	if strings.TrimSpace(f.OrderDir) != "" {
		dir = ValidateSortOrder(f.OrderDir)
	}
	return column + " " + dir
}

var ProjectSortFields = map[string]bool{
	"id": true, "created_at": true, "updated_at": true,
	"title": true, "genre": true, "status": true, "slug": true,
}

var projectSort = sortSpec{allowed: ProjectSortFields, column: "updated_at", direction: "DESC"}

// EntrySortFields are sortable on every entry table
var EntrySortFields = map[string]bool{
	"id": true, "created_at": true, "updated_at": true, "name": true,
}

var kindSortFields = map[string][]string{
	"characters":      {"role", "species"},
	"locations":       {"location_type", "climate"},
	"items":           {"item_type", "rarity", "value"},
	"magic_systems":   {"source"},
	"organizations":   {"org_type", "member_count"},
	"timeline_events": {"sort_order", "significance", "event_date"},
	"languages":       {"family"},
	"creatures":       {"danger_level", "habitat"},
}

// SortFieldsForTable returns the allow-list for an entry table
func SortFieldsForTable(table string) map[string]bool {
	fields := make(map[string]bool, len(EntrySortFields)+len(kindSortFields[table]))
	for k := range EntrySortFields {
		fields[k] = true
	}
	for _, k := range kindSortFields[table] {
		fields[k] = true
	}
	return fields
}

// entrySort lists newest first, except timelines which read in story order
func entrySort(table string) sortSpec {
	spec := sortSpec{allowed: SortFieldsForTable(table), column: "created_at", direction: "DESC"}
	if table == "timeline_events" {
		spec.column, spec.direction = "sort_order", "ASC"
	}
	return spec
}
