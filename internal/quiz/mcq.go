package quiz

import (
	"regexp"
	"strings"

	"pdf-quiz/internal/models"
)

var (
	questionMarker = regexp.MustCompile(models.QuestionMarkerRegex)
	mcqBlock       = regexp.MustCompile(models.MCQBlockRegex)
)

// ParseMCQs extracts every well-formed question block from raw model
// output, in input order. A block missing any field is dropped whole;
// text before the first Q<k>. marker is ignored. It never fails: an
// unparseable input yields an empty slice.
func ParseMCQs(raw string) []models.Question {
	questions := []models.Question{}
	for _, block := range splitBlocks(raw) {
		if q, ok := parseBlock(block); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// IsValidMCQ reports whether raw holds at least one well-formed block.
func IsValidMCQ(raw string) bool {
	for _, block := range splitBlocks(raw) {
		if _, ok := parseBlock(block); ok {
			return true
		}
	}
	return false
}

// splitBlocks returns the text following each Q<k>. marker up to the
// next marker or the end of input.
func splitBlocks(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	locs := questionMarker.FindAllStringIndex(raw, -1)
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, raw[loc[1]:end])
	}
	return blocks
}

func parseBlock(block string) (models.Question, bool) {
	m := mcqBlock.FindStringSubmatch(block)
	if m == nil {
		return models.Question{}, false
	}
	return models.Question{
		Question: strings.TrimSpace(m[1]),
		Options: map[string]string{
			"A": strings.TrimSpace(m[2]),
			"B": strings.TrimSpace(m[3]),
			"C": strings.TrimSpace(m[4]),
			"D": strings.TrimSpace(m[5]),
		},
		Correct:     m[6],
		Explanation: strings.TrimSpace(m[7]),
	}, true
}
