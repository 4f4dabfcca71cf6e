package ingestion

import "regexp"

// Default incident patterns scanned for in every ingested log.
var defaultPatterns = []string{"Exception", "Timeout", "ERROR"}

// Detector counts incident pattern occurrences in log content. The counts are
// advisory: they annotate the ingestion, they never gate it.
type Detector struct {
	patterns []*regexp.Regexp
}

// NewDetector compiles the given patterns, falling back to the default
// incident patterns when none are provided.
func NewDetector(patterns ...string) (*Detector, error) {
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}

	return &Detector{patterns: compiled}, nil
}

// Scan returns per-pattern occurrence counts for the given content.
// Patterns with zero occurrences are omitted.
func (d *Detector) Scan(content string) map[string]int {
	counts := make(map[string]int)
	for _, re := range d.patterns {
		if n := len(re.FindAllStringIndex(content, -1)); n > 0 {
			counts[re.String()] = n
		}
	}
	return counts
}

// Count returns the total number of pattern occurrences in the content.
func (d *Detector) Count(content string) int {
	total := 0
	for _, n := range d.Scan(content) {
		total += n
	}
	return total
}
