package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseAssignments parses BRAIN=VALUE pairs. The brain name is everything
// before the last '=' so names may themselves contain '='.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		i := strings.LastIndex(pair, "=")
		if i <= 0 || i == len(pair)-1 {
			return nil, fmt.Errorf("invalid assignment %q: expected BRAIN=VALUE", pair)
		}
		out[pair[:i]] = pair[i+1:]
	}
	return out, nil
}

// parseFloatAssignments parses BRAIN=FLOAT pairs.
func parseFloatAssignments(pairs []string) (map[string]float64, error) {
	raw, err := parseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for brain, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", brain, err)
		}
		out[brain] = f
	}
	return out, nil
}

// parseIntAssignments parses BRAIN=INT pairs. A nil result means no pairs
// were given.
func parseIntAssignments(pairs []string) (map[string]int, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	raw, err := parseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for brain, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", brain, err)
		}
		out[brain] = n
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
