// Package sitexport turns a running dynamic web application into a static,
// deployable site. It resolves a source (a live URL, a buildable project, or
// a prebuilt executable) to a reachable base URL, crawls the application
// breadth-first, writes pages and assets to disk, and builds a client-side
// search index for the documentation subtree.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, exec/, bleve/).
package sitexport
