package models

import (
	"path/filepath"
	"sort"
	"strings"
)

// ResetParameters is the set of named values used to reset an environment
// before an episode.
type ResetParameters map[string]float64

// Merge copies every entry of other into p, overwriting existing keys.
func (p ResetParameters) Merge(other ResetParameters) {
	for k, v := range other {
		p[k] = v
	}
}

// Keys returns the parameter names in sorted order.
func (p ResetParameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BrainName derives a brain name from a curriculum file name by stripping
// its outermost extension. "Brain2.test.json" becomes "Brain2.test".
func BrainName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
