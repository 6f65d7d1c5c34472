// Package activity records the history of builder events per module and
// answers queries over it.
package activity

import "time"

// QueryOptions controls filtering and pagination for module history queries.
type QueryOptions struct {
	Since  *time.Time
	Until  *time.Time
	Types  []string // filter to specific event types
	Limit  int      // max results (default: 100, max: 500)
	Cursor string   // occurredAt of the last entry of the previous page
}

// SearchOptions controls filtering for summary search.
type SearchOptions struct {
	Module string
	Since  *time.Time
	Types  []string
	Limit  int // max results (default: 20)
}

// DefaultQueryOptions returns QueryOptions with sensible defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 100}
}

// DefaultSearchOptions returns SearchOptions with sensible defaults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{Limit: 20}
}

func queryLimit(n int) int {
	if n <= 0 || n > 500 {
		return 100
	}
	return n
}

func searchLimit(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}
