package metrics

import "sort"

// StatusBucket is the count of outcomes for one status code.
type StatusBucket struct {
	Code  int
	Count int
}

// ErrorBucket is the count of outcomes for one error kind.
type ErrorBucket struct {
	Kind  string
	Count int
}

// SortStatusCodes flattens a status histogram into rows sorted by descending
// count, then by code for stability.
func SortStatusCodes(codes map[int]int) []StatusBucket {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]StatusBucket, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, StatusBucket{Code: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

// SortErrors flattens an error-kind histogram the same way as SortStatusCodes.
func SortErrors(kinds map[string]int) []ErrorBucket {
	if len(kinds) == 0 {
		return nil
	}
	rows := make([]ErrorBucket, 0, len(kinds))
	for kind, count := range kinds {
		rows = append(rows, ErrorBucket{Kind: kind, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
