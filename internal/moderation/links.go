package moderation

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
	"mvdan.cc/xurls/v2"
)

// only http(s) links are moderated; other schemes are left alone
var linkPattern = mustLinkPattern()

func mustLinkPattern() *regexp.Regexp {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		panic(err)
	}
	return re
}

// ExtractLinks returns the distinct links found in a message, in the order
// they appear and in canonical form.
func ExtractLinks(text string) []string {
	matches := linkPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		c := Canonicalize(m)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		links = append(links, c)
	}
	return links
}

// Canonicalize normalizes a URL so equal links share one registry key.
// Unparseable input is returned trimmed but otherwise untouched.
func Canonicalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	clean, err := purell.NormalizeURLString(rawURL, purell.FlagsSafe|purell.FlagRemoveFragment|purell.FlagRemoveDuplicateSlashes)
	if err != nil {
		return rawURL
	}
	return clean
}
