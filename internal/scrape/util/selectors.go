package util

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Probe locates candidate elements under root. Probes are tried in order by
// FirstOf and Cascade, so each site lists its most specific pattern first.
type Probe func(root *goquery.Selection) *goquery.Selection

// Sel probes with a plain CSS selector.
func Sel(css string) Probe {
	return func(root *goquery.Selection) *goquery.Selection {
		return root.Find(css)
	}
}

// ClassLike probes elements matching tags whose class attribute matches re.
// Markup from the boards uses generated class names, so a pattern is more
// durable than an exact class.
func ClassLike(tags string, re *regexp.Regexp) Probe {
	return func(root *goquery.Selection) *goquery.Selection {
		return root.Find(tags).FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, ok := s.Attr("class")
			return ok && re.MatchString(class)
		})
	}
}

// AttrEq probes elements matching tags with attr exactly equal to val.
func AttrEq(tags, attr, val string) Probe {
	return Sel(fmt.Sprintf("%s[%s='%s']", tags, attr, val))
}

// Cascade returns every element matched by the first probe that matches anything.
// A match that contains another match is a wrapper, not a card, and is dropped,
// so a results list matching the card pattern never swallows its cards.
func Cascade(root *goquery.Selection, probes ...Probe) *goquery.Selection {
	for _, p := range probes {
		if s := p(root); s.Length() > 0 {
			return innermost(s)
		}
	}
	return root.Slice(0, 0)
}

func innermost(s *goquery.Selection) *goquery.Selection {
	return s.FilterFunction(func(_ int, el *goquery.Selection) bool {
		return el.FindSelection(s).Length() == 0
	})
}

// FirstOf returns the first element found by the first probe that finds anything.
func FirstOf(root *goquery.Selection, probes ...Probe) *goquery.Selection {
	return Cascade(root, probes...).First()
}

// TextOf is FirstOf followed by whitespace cleanup. Missing elements yield "".
func TextOf(root *goquery.Selection, probes ...Probe) string {
	return CleanText(FirstOf(root, probes...).Text())
}

// IsTag reports whether the first node of s is the named element.
func IsTag(s *goquery.Selection, tag string) bool {
	return s.Length() > 0 && goquery.NodeName(s) == tag
}
