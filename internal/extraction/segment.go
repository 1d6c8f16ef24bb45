package extraction

import (
	"regexp"
	"strings"
)

// slabVocabulary matches grading-label boilerplate printed on slabs.
var slabVocabulary = regexp.MustCompile(`(?i)\b(` + strings.Join([]string{
	`cgc`,
	`cbcs`,
	`pgx`,
	`certified\s+guaranty`,
	`comic\s+book\s+certification\s+service`,
	`grade`,
	`graded`,
	`certification`,
	`certified`,
	`cert`,
	`serial`,
	`sn`,
	`white\s+pages`,
	`off-white`,
	`cream\s+to\s+off-white`,
	`restored`,
	`restoration`,
	`encapsulated`,
	`signature\s+series`,
	`universal\s+grade`,
	`qualified\s+grade`,
}, "|") + `)\b`)

// gradeDecimal matches grading-scale values such as 9.8 or 10.0.
var gradeDecimal = regexp.MustCompile(`\b(?:10|\d)\.\d\b`)

// certificationRun matches certification numbers.
var certificationRun = regexp.MustCompile(`\d{6,}`)

// Segments is a scan split into cover lines and slab-label lines.
type Segments struct {
	Cover []string
	Slab  []string
}

// IsSlabLine reports whether a line belongs to a grading label.
func IsSlabLine(line string) bool {
	return slabVocabulary.MatchString(line) ||
		gradeDecimal.MatchString(line) ||
		certificationRun.MatchString(line)
}

// Segment splits raw OCR text into trimmed, non-empty cover lines and the slab
// lines that were discarded. Line order is preserved.
func Segment(raw string) Segments {
	var seg Segments
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsSlabLine(line) {
			seg.Slab = append(seg.Slab, line)
			continue
		}
		seg.Cover = append(seg.Cover, line)
	}
	return seg
}

// coverText joins the cover lines of raw back into one searchable blob.
func coverText(raw string) string {
	return strings.Join(Segment(raw).Cover, "\n")
}
