package auth

import "strings"

// PathMatcher matches request paths against an allow-list.
type PathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPathMatcher builds a matcher from exact paths and "prefix*" patterns.
func NewPathMatcher(patterns ...string) *PathMatcher {
	m := &PathMatcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			m.prefixes = append(m.prefixes, prefix)
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

// Match reports whether path is on the allow-list.
func (m *PathMatcher) Match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
