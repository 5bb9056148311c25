package sitexport

import (
	"mime"
	"net/url"
	"regexp"
	"strings"
)

// nonNavigableSchemes are reference schemes that never identify a route.
var nonNavigableSchemes = []string{"mailto:", "tel:", "javascript:", "data:"}

// NormalizeRoute validates a root-relative reference and returns its
// canonical route key: the path with query string and fragment removed.
//
// A reference is valid only if it is non-empty, starts with exactly one "/"
// ("//" is protocol-relative and therefore external), does not use a
// non-navigable scheme and is not fragment-only.
func NormalizeRoute(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", Errorf(EINVALID, "empty route")
	}
	if strings.HasPrefix(ref, "#") {
		return "", Errorf(EINVALID, "fragment-only reference %q", ref)
	}
	lower := strings.ToLower(ref)
	for _, scheme := range nonNavigableSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", Errorf(EINVALID, "non-navigable reference %q", ref)
		}
	}
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return "", Errorf(EINVALID, "reference %q is not root-relative", ref)
	}

	if idx := strings.IndexAny(ref, "?#"); idx != -1 {
		ref = ref[:idx]
	}
	if ref == "" {
		return "/", nil
	}
	return ref, nil
}

// RouteFromReference resolves a reference found in a page or seed file to a
// route on base. Absolute references are accepted only when they share
// base's scheme and host; everything else goes through NormalizeRoute.
func RouteFromReference(base *url.URL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err != nil {
		return "", Errorf(EINVALID, "invalid reference %q: %v", ref, err)
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		if base == nil || !strings.EqualFold(u.Host, base.Host) {
			return "", Errorf(EINVALID, "reference %q is not same-origin", ref)
		}
		path := u.EscapedPath()
		if path == "" {
			path = "/"
		}
		return NormalizeRoute(path)
	}
	return NormalizeRoute(ref)
}

// IsHTML reports whether a Content-Type header denotes an HTML document.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// URLFilter specifies patterns for including/excluding routes.
type URLFilter struct {
	// Include patterns - if set, only routes matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - routes matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// NewURLFilter compiles include and exclude patterns.
// It returns nil when both lists are empty.
func NewURLFilter(include, exclude []string) (*URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	f := &URLFilter{}
	for _, pattern := range include {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", pattern, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", pattern, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// Match returns true if the route passes the filter.
// If the filter is nil, all routes pass.
func (f *URLFilter) Match(route string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(route) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(route) {
			return false
		}
	}

	return true
}
