package catalog

import "strings"

// Filter returns the indices of agents whose filename or label contains
// query, case-insensitively. An empty query matches everything. Indices are
// returned in the agents' own order, so filtered views keep the catalog's
// filename ordering.
func Filter(agents []Agent, query string) []int {
	indices := make([]int, 0, len(agents))
	if query == "" {
		for i := range agents {
			indices = append(indices, i)
		}
		return indices
	}

	q := strings.ToLower(query)
	for i, a := range agents {
		if strings.Contains(strings.ToLower(a.Filename), q) ||
			strings.Contains(strings.ToLower(a.Label), q) {
			indices = append(indices, i)
		}
	}
	return indices
}
