// Package goquery implements HTML reference discovery, content-frame
// extraction and text helpers using github.com/PuerkitoBio/goquery.
package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitexport"
)

// cssURLPattern matches url(...) with optional single or double quotes.
var cssURLPattern = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// Ensure Discoverer implements sitexport.ReferenceExtractor at compile time.
var _ sitexport.ReferenceExtractor = (*Discoverer)(nil)

// Discoverer extracts page and asset references using an extraction-rule table.
type Discoverer struct {
	rules []ExtractionRule
}

// NewDiscoverer creates a Discoverer. With no rules, DefaultRules is used.
func NewDiscoverer(rules ...ExtractionRule) *Discoverer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Discoverer{rules: rules}
}

// Rules returns a copy of the rule table.
func (d *Discoverer) Rules() []ExtractionRule {
	return append([]ExtractionRule(nil), d.rules...)
}

// ExtractReferences applies each rule in order and returns the trimmed,
// de-duplicated references it finds. Within a rule, references appear in
// document order.
func (d *Discoverer) ExtractReferences(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, sitexport.Errorf(sitexport.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]struct{})
	var refs []string
	add := func(ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	for _, rule := range d.rules {
		doc.Find(rule.Selector).Each(func(_ int, sel *goquery.Selection) {
			if rule.Mode == ModeCSSText {
				for _, ref := range CSSURLs(sel.Text()) {
					add(ref)
				}
				return
			}

			val, ok := sel.Attr(rule.Attr)
			if !ok {
				return
			}
			switch rule.Mode {
			case ModeSrcset:
				for _, ref := range SrcsetURLs(val) {
					add(ref)
				}
			case ModeCSS:
				for _, ref := range CSSURLs(val) {
					add(ref)
				}
			default:
				add(val)
			}
		})
	}

	return refs, nil
}

// SrcsetURLs returns the URL of each candidate in a srcset list.
func SrcsetURLs(srcset string) []string {
	var urls []string
	for _, candidate := range strings.Split(srcset, ",") {
		fields := strings.Fields(candidate)
		if len(fields) == 0 {
			continue
		}
		urls = append(urls, fields[0])
	}
	return urls
}

// CSSURLs returns the targets of url(...) occurrences in a CSS fragment.
func CSSURLs(css string) []string {
	matches := cssURLPattern.FindAllStringSubmatch(css, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if u := strings.TrimSpace(m[1]); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}
