package export

import (
	"regexp"
	"strings"
)

// segment is one source line after markup has been applied
type segment struct {
	Text string
	Bold bool
}

var (
	headingRe  = regexp.MustCompile(`^\s*#{1,6}\s+(.*)$`)
	boldLineRe = regexp.MustCompile(`^\s*(\*\*[^*]+\*\*|__[^_]+__)\s*:?\s*$`)
	strongRe   = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)

	// star emphasis may sit inside a word; underscore emphasis may not
	starEmRe       = regexp.MustCompile(`\*([^*\s](?:[^*]*?[^*\s])?)\*`)
	underscoreEmRe = regexp.MustCompile(`(^|[^\w_])_([^_\s](?:[^_]*?[^_\s])?)_($|[^\w_])`)

	bulletStarRe = regexp.MustCompile(`^(\s*)\*\s+`)
)

// parseMarkup applies the line-oriented rendering used for turns derived
// from an uploaded document: heading lines become bold and emphasis markers
// are removed from the visible text.
func parseMarkup(content string) []segment {
	var out []segment
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		out = append(out, segment{
			Text: stripMarkers(line),
			Bold: isHeading(line),
		})
	}
	return out
}

func isHeading(line string) bool {
	return headingRe.MatchString(line) || boldLineRe.MatchString(line)
}

func stripMarkers(line string) string {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		line = m[1]
	}
	// keep list bullets readable
	line = bulletStarRe.ReplaceAllString(line, "${1}• ")
	line = strongRe.ReplaceAllString(line, "$2")
	line = starEmRe.ReplaceAllString(line, "$1")
	// applied twice so adjacent matches sharing a boundary are both caught
	line = underscoreEmRe.ReplaceAllString(line, "$1$2$3")
	line = underscoreEmRe.ReplaceAllString(line, "$1$2$3")
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "__", "")
	return line
}
