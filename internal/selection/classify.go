package selection

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// PageType is the coarse content label assigned by Classify.
type PageType string

const (
	PageText  PageType = "text"
	PageImage PageType = "image"
	PageMixed PageType = "mixed"
	PageEmpty PageType = "empty"
)

// MinTextLength is the number of characters below which a page is not
// considered to carry meaningful text.
const MinTextLength = 50

func parsePageType(s string) (PageType, error) {
	switch t := PageType(strings.ToLower(strings.TrimSpace(s))); t {
	case PageText, PageImage, PageMixed, PageEmpty:
		return t, nil
	default:
		return "", fmt.Errorf("unknown page type %q (want text, image, mixed or empty)", s)
	}
}

// Classification is the result of classifying one page. Confidence is
// informational; type: predicates only look at Type.
type Classification struct {
	Type       PageType `json:"type"`
	Confidence float64  `json:"confidence"`
}

// Classify labels a page from its trimmed text length (in characters) and
// its image count.
func Classify(textLength, imageCount int) Classification {
	meaningful := textLength >= MinTextLength
	switch {
	case textLength < 10 && imageCount == 0:
		return Classification{PageEmpty, 0.90}
	case !meaningful && imageCount == 0:
		return Classification{PageEmpty, 0.95}
	case !meaningful && imageCount > 0:
		conf := 0.90
		if imageCount < 1 {
			conf = 0.75
		}
		return Classification{PageImage, conf}
	case meaningful && imageCount == 0:
		if textLength > 200 {
			return Classification{PageText, 0.95}
		}
		return Classification{PageText, 0.85}
	case meaningful && imageCount > 0:
		textScore := math.Min(float64(textLength)/500, 1)
		imageScore := math.Min(float64(imageCount)/5, 1)
		balance := 1 - math.Abs(textScore-imageScore)
		return Classification{PageMixed, 0.75 + 0.20*balance}
	}
	// negative image counts from a misbehaving provider
	switch {
	case imageCount > 0:
		return Classification{PageImage, 0.60}
	case textLength > 0:
		return Classification{PageText, 0.60}
	default:
		return Classification{PageEmpty, 0.60}
	}
}

// ClassifyText is Classify applied to raw page text.
func ClassifyText(text string, imageCount int) Classification {
	return Classify(utf8.RuneCountInString(strings.TrimSpace(text)), imageCount)
}
