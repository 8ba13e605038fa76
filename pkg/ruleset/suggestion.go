package ruleset

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// maxSuggestionDistance is the largest edit distance still offered as "did you mean".
const maxSuggestionDistance = 5

// SuggestCondition suggests a known condition name for an unresolved reference.
func SuggestCondition(unknown string, known []string) string {
	if len(known) == 0 {
		return ""
	}

	minDistance := maxSuggestionDistance
	var bestMatch string
	for _, name := range known {
		if dist := levenshteinDistance(unknown, name); dist < minDistance {
			minDistance = dist
			bestMatch = name
		}
	}

	if bestMatch != "" {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}
	if len(known) > 5 {
		return fmt.Sprintf("Known conditions include: %s, ...", strings.Join(known[:5], ", "))
	}
	return fmt.Sprintf("Known conditions: %s", strings.Join(known, ", "))
}

// SuggestField suggests the closest known field for an unknown key.
func SuggestField(unknown string, fields []string) string {
	minDistance := 3
	var bestMatch string
	for _, field := range fields {
		if dist := levenshteinDistance(unknown, field); dist < minDistance {
			minDistance = dist
			bestMatch = field
		}
	}
	if bestMatch == "" {
		return fmt.Sprintf("Valid fields: %s", strings.Join(fields, ", "))
	}
	return fmt.Sprintf("Did you mean '%s'?", bestMatch)
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// extractContext renders the lines around loc from the source data, marking the
// error line and column.
func extractContext(data []byte, loc Location, contextLines int) string {
	if !loc.IsValid() || len(data) == 0 {
		return ""
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if scanner.Err() != nil || loc.Line > len(lines) {
		return ""
	}

	errorLine := loc.Line - 1
	start := max(errorLine-contextLines, 0)
	end := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	width := len(fmt.Sprintf("%d", end+1))

	for i := start; i <= end; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		sb.WriteString(fmt.Sprintf("%s %*d | %s\n", prefix, width, i+1, lines[i]))

		if i == errorLine && loc.Column > 0 {
			sb.WriteString(fmt.Sprintf("   %s | %s^\n", strings.Repeat(" ", width), strings.Repeat(" ", loc.Column-1)))
		}
	}

	return sb.String()
}
