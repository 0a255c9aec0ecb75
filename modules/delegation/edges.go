package delegation

import "strings"

// Dedupe keeps one edge per delegator. An edge in protocolSpace always wins
// over edges of other spaces; otherwise the first edge seen is kept.
// Delegators are compared case-insensitively and the output keeps the order
// in which delegators first appeared.
func Dedupe(edges []Edge, protocolSpace string) []Edge {
	index := make(map[string]int, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		key := strings.ToLower(e.Delegator)
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, e)
			continue
		}
		if out[i].Space != protocolSpace && e.Space == protocolSpace {
			out[i] = e
		}
	}
	return out
}

// Group is the list of delegators of one delegate.
type Group struct {
	Delegate   string
	Delegators []string
}

// GroupByDelegate groups delegators by lower-cased delegate, in first-seen
// order.
func GroupByDelegate(edges []Edge) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, e := range edges {
		key := strings.ToLower(e.Delegate)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Delegate: key})
		}
		groups[i].Delegators = append(groups[i].Delegators, e.Delegator)
	}
	return groups
}
