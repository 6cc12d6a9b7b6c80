package topology

import (
	"regexp"
	"strconv"
	"strings"
)

// placeholder marks the numeric slot in an interface naming pattern,
// e.g. "eth{n}" or "Ethernet1/{n}".
const placeholder = "{n}"

// DefaultEndpointPattern is used for kinds without a configured pattern.
const DefaultEndpointPattern = "eth" + placeholder

// EndpointAllocator hands out the next unused interface name on a node,
// formatted per the node kind's naming pattern. Correctness comes from
// scanning the authoritative edge set at allocation time; the per-session
// counters only bias numbering upwards between a draw's start and the
// moment the new edge lands in the model, and are reset on reload.
type EndpointAllocator struct {
	patterns map[string]string // kind -> pattern containing one {n}
	session  map[string]map[int]bool
}

// NewEndpointAllocator creates an allocator with per-kind naming patterns.
// Patterns without a {n} placeholder are ignored in favor of the default.
func NewEndpointAllocator(patterns map[string]string) *EndpointAllocator {
	a := &EndpointAllocator{
		patterns: make(map[string]string, len(patterns)),
		session:  make(map[string]map[int]bool),
	}
	for kind, p := range patterns {
		if strings.Contains(p, placeholder) {
			a.patterns[kind] = p
		}
	}
	return a
}

// Reset clears the per-session counters. Called on document reload.
func (a *EndpointAllocator) Reset() {
	a.session = make(map[string]map[int]bool)
}

// Pattern returns the naming pattern for a node kind.
func (a *EndpointAllocator) Pattern(kind string) string {
	if p, ok := a.patterns[kind]; ok {
		return p
	}
	return DefaultEndpointPattern
}

// Next returns the lowest-numbered unused interface name for the node,
// starting at 1, given every edge currently touching it. Numbers handed out
// earlier in this session are treated as used even if their edge has not
// reached the model yet.
func (a *EndpointAllocator) Next(m *Model, nodeID string) string {
	node, ok := m.Node(nodeID)
	pattern := DefaultEndpointPattern
	if ok {
		pattern = a.Pattern(node.Data.Kind)
	}
	matcher := patternMatcher(pattern)

	used := make(map[int]bool)
	for _, e := range m.EdgesOf(nodeID) {
		if e.Source == nodeID {
			if n, ok := matchEndpoint(matcher, e.SourceEndpoint); ok {
				used[n] = true
			}
		}
		if e.Target == nodeID {
			if n, ok := matchEndpoint(matcher, e.TargetEndpoint); ok {
				used[n] = true
			}
		}
	}
	for n := range a.session[nodeID] {
		used[n] = true
	}

	next := 1
	for used[next] {
		next++
	}
	if a.session[nodeID] == nil {
		a.session[nodeID] = make(map[int]bool)
	}
	a.session[nodeID][next] = true
	return strings.Replace(pattern, placeholder, strconv.Itoa(next), 1)
}

// patternMatcher builds a regexp from a naming pattern by escaping every
// literal character and substituting a capture group for the placeholder.
func patternMatcher(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	expr := strings.Replace(quoted, regexp.QuoteMeta(placeholder), `(\d+)`, 1)
	return regexp.MustCompile("^" + expr + "$")
}

func matchEndpoint(matcher *regexp.Regexp, endpoint string) (int, bool) {
	groups := matcher.FindStringSubmatch(endpoint)
	if groups == nil {
		return 0, false
	}
	n, err := strconv.Atoi(groups[1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
