package extraction

import "regexp"

// patternMatcher is one named detection rule. Extractors try their matchers in
// order and stop at the first one that produces a value.
type patternMatcher struct {
	name       string
	pattern    *regexp.Regexp
	confidence float64
	// accept optionally filters a captured value. A rejected capture lets the
	// matcher keep scanning later occurrences.
	accept func(string) bool
}

// match returns the first accepted capture of group 1.
func (m patternMatcher) match(text string) (string, bool) {
	for _, sub := range m.pattern.FindAllStringSubmatch(text, -1) {
		if len(sub) < 2 {
			continue
		}
		if m.accept == nil || m.accept(sub[1]) {
			return sub[1], true
		}
	}
	return "", false
}

// firstMatch runs matchers in priority order. It returns the value, the winning
// matcher's confidence and name.
func firstMatch(text string, matchers []patternMatcher) (string, float64, string, bool) {
	for _, m := range matchers {
		if value, ok := m.match(text); ok {
			return value, m.confidence, m.name, true
		}
	}
	return "", 0, "", false
}
