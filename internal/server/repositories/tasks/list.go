package tasks

import "strings"

// ListOptions narrows and orders a task listing. Zero values mean
// "no filter", "default order", "no limit" and "no skip".
type ListOptions struct {
	Completed *bool
	SortField string
	SortDesc  bool
	Limit     int
	Skip      int
}

const defaultSortColumn = "created_at"

// sortColumns maps the accepted sortBy names onto columns. Nothing outside
// this table ever reaches the ORDER BY clause.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"created_at":  "created_at",
	"updatedAt":   "updated_at",
	"updated_at":  "updated_at",
	"description": "description",
	"completed":   "completed",
}

// SortColumn resolves a sortBy field name. Unknown names report false.
func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[strings.TrimSpace(field)]
	return col, ok
}

// ParseSort splits "field:asc|desc". The direction defaults to ascending and
// an unknown field leaves the default column in place.
func ParseSort(sortBy string) (field string, desc bool) {
	if sortBy == "" {
		return "", false
	}
	name, dir, _ := strings.Cut(sortBy, ":")
	if _, ok := SortColumn(name); ok {
		field = strings.TrimSpace(name)
	}
	return field, strings.EqualFold(strings.TrimSpace(dir), "desc")
}
