package extraction

import "regexp"

// ConfidencePublisher is the fixed confidence of a publisher match.
const ConfidencePublisher = 0.85

type knownPublisher struct {
	name    string
	pattern *regexp.Regexp
}

func publisherPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + name + `(?:\s+comics)?\b`)
}

// knownPublishers is tested in order; the first hit wins.
var knownPublishers = []knownPublisher{
	{name: "Marvel", pattern: publisherPattern(`marvel`)},
	{name: "DC", pattern: publisherPattern(`dc`)},
	{name: "Image", pattern: publisherPattern(`image`)},
	{name: "Dark Horse", pattern: publisherPattern(`dark\s+horse`)},
	{name: "IDW", pattern: publisherPattern(`idw`)},
	{name: "Boom! Studios", pattern: publisherPattern(`boom!?(?:\s+studios)?`)},
	{name: "Dynamite", pattern: publisherPattern(`dynamite`)},
	{name: "Valiant", pattern: publisherPattern(`valiant`)},
	{name: "Archie", pattern: publisherPattern(`archie`)},
	{name: "Oni Press", pattern: publisherPattern(`oni\s+press`)},
	{name: "Dell", pattern: publisherPattern(`dell`)},
	{name: "Gold Key", pattern: publisherPattern(`gold\s+key`)},
	{name: "Charlton", pattern: publisherPattern(`charlton`)},
	{name: "Harvey", pattern: publisherPattern(`harvey`)},
	{name: "Fawcett", pattern: publisherPattern(`fawcett`)},
	{name: "Eclipse", pattern: publisherPattern(`eclipse`)},
	{name: "Mirage", pattern: publisherPattern(`mirage`)},
}

// ExtractPublisher returns the canonical name of the first known publisher found
// in the cover lines of raw.
func ExtractPublisher(raw string) (*string, float64) {
	text := coverText(raw)
	for _, p := range knownPublishers {
		if p.pattern.MatchString(text) {
			name := p.name
			return &name, ConfidencePublisher
		}
	}
	return nil, 0
}
