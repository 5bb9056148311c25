package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitexport"
	"golang.org/x/net/html"
)

// Content frame defaults.
const (
	DefaultFrameTag = "turbo-frame"
	DefaultFrameID  = "content"
)

// PartialMarkerName is the meta name that flags a page as having a partial.
const PartialMarkerName = "sitexport-partials"

// PartialMarker is inserted into the head of pages that have a partial.
const PartialMarker = `<meta name="` + PartialMarkerName + `" content="true">`

// Ensure Fragments implements sitexport.FragmentExtractor at compile time.
var _ sitexport.FragmentExtractor = (*Fragments)(nil)

// Fragments locates the content frame of a page.
type Fragments struct {
	Tag string
	ID  string
}

// NewFragments returns a Fragments matching the default content frame.
func NewFragments() *Fragments {
	return &Fragments{Tag: DefaultFrameTag, ID: DefaultFrameID}
}

// ExtractContentFrame returns the inner markup of the first frame with the
// configured id that is not nested inside another frame of the same tag.
func (f *Fragments) ExtractContentFrame(page string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", false, sitexport.Errorf(sitexport.EINVALID, "failed to parse HTML: %v", err)
	}

	frame := doc.Find(f.Tag).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		id, _ := sel.Attr("id")
		return id == f.ID && sel.ParentsFiltered(f.Tag).Length() == 0
	}).First()
	if frame.Length() == 0 {
		return "", false, nil
	}

	inner, err := frame.Html()
	if err != nil {
		return "", false, sitexport.Errorf(sitexport.EINTERNAL, "failed to render content frame: %v", err)
	}
	return inner, true, nil
}

// MarkPartial inserts PartialMarker right after the opening head tag.
// Pages without a head get one after the opening html tag, or at the start.
// Already-marked pages are returned unchanged.
func (f *Fragments) MarkPartial(page string) string {
	if strings.Contains(page, `name="`+PartialMarkerName+`"`) {
		return page
	}
	if i := openingTagEnd(page, "head"); i >= 0 {
		return page[:i] + PartialMarker + page[i:]
	}
	if i := openingTagEnd(page, "html"); i >= 0 {
		return page[:i] + "<head>" + PartialMarker + "</head>" + page[i:]
	}
	return PartialMarker + page
}

// openingTagEnd returns the byte offset just past the first start tag named
// name, or -1. Offsets come from the tokenizer's raw token bytes, so tags
// inside comments, scripts or attribute values are never matched.
func openingTagEnd(page, name string) int {
	z := html.NewTokenizer(strings.NewReader(page))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return -1
		}
		offset += len(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		if tn, _ := z.TagName(); string(tn) == name {
			return offset
		}
	}
}
