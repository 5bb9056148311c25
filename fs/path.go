package fs

import (
	"net/url"
	"path"
	"strings"
)

// RouteToPath maps a route to a slash-separated path relative to the
// output directory.
//
//	/               → index.html
//	/docs/          → docs/index.html
//	/docs/index     → docs/index.html
//	/about          → about.html
//	/css/site.css   → css/site.css
//
// Percent-encoded segments are decoded. The result is not checked for
// traversal; Writer does that when resolving against its root.
func RouteToPath(route string) string {
	if decoded, err := url.PathUnescape(route); err == nil {
		route = decoded
	}
	rel := strings.TrimLeft(route, "/")

	switch {
	case rel == "":
		return "index.html"
	case strings.HasSuffix(rel, "/"):
		return rel + "index.html"
	case rel == "index" || strings.HasSuffix(rel, "/index"):
		return rel + ".html"
	case path.Ext(path.Base(rel)) != "":
		return rel
	}
	return rel + ".html"
}

// PartialPath inserts ".partial" before the extension of a mapped path.
//
//	about.html → about.partial.html
func PartialPath(p string) string {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + ".partial" + ext
}
