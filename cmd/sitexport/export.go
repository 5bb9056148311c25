package main

import (
	"fmt"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/crawl"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	req, err := sitexport.NewSourceRequest(c.URL, c.Project, c.Executable, c.AppArgs, c.SkipBuild)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}

	runtime, err := sitexport.ParseSearchRuntime(c.SearchRuntime)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}

	include := append(append([]string{}, deps.Config.Include...), c.Include...)
	exclude := append(append([]string{}, deps.Config.Exclude...), c.Exclude...)
	filter, err := sitexport.NewURLFilter(include, exclude)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}

	src, err := deps.Resolver.Resolve(deps.Ctx, req)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}
	defer func() { _ = src.Close() }()

	ec := sitexport.NewExportContext(src.BaseURL, c.Output)
	ec.SeedRoutesPath = c.Seeds
	ec.DocsSearchEnabled = !c.NoDocsSearch
	ec.DocsPrefix = c.DocsPrefix
	if deps.Config.DocsPrefix != "" {
		ec.DocsPrefix = deps.Config.DocsPrefix
	}
	ec.SearchRuntime = runtime
	ec.SearchCDNURL = c.SearchCDNURL
	ec.SitemapSeeding = c.Sitemap
	ec.Filter = filter

	fmt.Fprintf(deps.Stdout, "Exporting %s to %s\n", src.BaseURL, c.Output)

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  Seeded %d routes\n", event.Queued)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  failed %s: %v\n", crawl.TruncateRoute(event.Route, 60), event.Error)
		}
	}

	result, err := deps.Exporter.Run(deps.Ctx, ec, progress)
	if err != nil {
		reportError(deps.Stderr, err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d pages, %d assets, %d partials (%s)\n",
		result.Pages, result.Assets, result.Partials, crawl.FormatBytes(result.Bytes))
	if result.Skipped > 0 || result.Failed > 0 {
		fmt.Fprintf(deps.Stdout, "  %d skipped, %d failed\n", result.Skipped, result.Failed)
	}
	if result.Indexed > 0 {
		fmt.Fprintf(deps.Stdout, "  Indexed %d documentation pages\n", result.Indexed)
	}
	return nil
}
