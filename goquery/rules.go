package goquery

import (
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/sitexport"
)

// ExtractMode controls how a matched element yields references.
type ExtractMode string

// Supported extraction modes.
const (
	// ModeAttr takes the attribute value as a single reference.
	ModeAttr ExtractMode = "attr"
	// ModeSrcset splits the attribute as a srcset candidate list.
	ModeSrcset ExtractMode = "srcset"
	// ModeCSS scans the attribute value for CSS url(...) references.
	ModeCSS ExtractMode = "css"
	// ModeCSSText scans the element text for CSS url(...) references.
	ModeCSSText ExtractMode = "css-text"
)

// ExtractionRule binds a CSS selector to the way references are read from
// matching elements.
type ExtractionRule struct {
	Selector string
	Attr     string
	Mode     ExtractMode
}

// DefaultRules returns the rule table used when none is configured.
func DefaultRules() []ExtractionRule {
	return DefaultRulesFor(DefaultFrameTag)
}

// DefaultRulesFor returns the default rule table with frame sources read
// from elements named frameTag.
func DefaultRulesFor(frameTag string) []ExtractionRule {
	if frameTag == "" {
		frameTag = DefaultFrameTag
	}
	return []ExtractionRule{
		{Selector: "a[href]", Attr: "href", Mode: ModeAttr},
		{Selector: "link[rel~=stylesheet][href]", Attr: "href", Mode: ModeAttr},
		{Selector: "link[rel~=icon][href]", Attr: "href", Mode: ModeAttr},
		{Selector: "script[src]", Attr: "src", Mode: ModeAttr},
		{Selector: "img[src]", Attr: "src", Mode: ModeAttr},
		{Selector: "img[srcset]", Attr: "srcset", Mode: ModeSrcset},
		{Selector: frameTag + "[src]", Attr: "src", Mode: ModeAttr},
		{Selector: "[style]", Attr: "style", Mode: ModeCSS},
		{Selector: "style", Mode: ModeCSSText},
	}
}

// Validate checks that the rule is complete and its selector compiles.
func (r ExtractionRule) Validate() error {
	if r.Selector == "" {
		return sitexport.Errorf(sitexport.EINVALID, "extraction rule requires a selector")
	}
	switch r.Mode {
	case ModeAttr, ModeSrcset, ModeCSS:
		if r.Attr == "" {
			return sitexport.Errorf(sitexport.EINVALID, "extraction rule %q requires an attribute", r.Selector)
		}
	case ModeCSSText:
	default:
		return sitexport.Errorf(sitexport.EINVALID, "extraction rule %q has unknown mode %q", r.Selector, r.Mode)
	}
	// goquery silently matches nothing on a bad selector, so compile it here.
	if _, err := cascadia.Compile(r.Selector); err != nil {
		return sitexport.Errorf(sitexport.EINVALID, "extraction rule selector %q: %v", r.Selector, err)
	}
	return nil
}
