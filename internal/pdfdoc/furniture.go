package pdfdoc

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// stripFurniture removes lines that only carry the page number or no
// letters and digits at all. Remaining lines are kept verbatim.
func stripFurniture(text string, page int) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isPageNumber(trimmed, page) || isNoise(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isPageNumber(line string, page int) bool {
	if line == strconv.Itoa(page) {
		return true
	}
	for _, form := range []string{"Page %d", "- %d -", "[%d]", "%d."} {
		if strings.EqualFold(line, fmt.Sprintf(form, page)) {
			return true
		}
	}
	return false
}

func isNoise(line string) bool {
	return strings.IndexFunc(line, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) < 0
}
