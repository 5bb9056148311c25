// Package crawl exports a running web application to static files.
// It coordinates seeding, fetching, reference discovery, fragment
// partials, file writing and search index generation.
package crawl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/sitexport"
	sitexportfs "github.com/fwojciec/sitexport/fs"
)

// Exporter crawls an application breadth-first and writes what it finds.
// Routes are processed one at a time; the frontier is owned by Run.
type Exporter struct {
	Fetcher   sitexport.Fetcher
	Extractor sitexport.ReferenceExtractor
	Fragments sitexport.FragmentExtractor
	Indexer   sitexport.SearchIndexer
	Sitemaps  sitexport.SitemapService
	Logger    *slog.Logger

	// NewWriter opens the output directory. Defaults to fs.NewWriter.
	NewWriter func(dir string) (sitexport.PageWriter, error)

	Limiter     *Limiter
	RetryDelays []time.Duration

	// MaxRoutes stops the crawl after this many routes. Zero means no limit.
	MaxRoutes int
}

// Result holds the outcome of an export.
type Result struct {
	Pages    int
	Assets   int
	Partials int
	Skipped  int
	Failed   int
	Bytes    int64
	Indexed  int
}

// ProgressEvent reports progress during an export.
type ProgressEvent struct {
	Type    ProgressType
	Route   string
	Visited int
	Queued  int
	Error   error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressSkipped
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting export progress.
type ProgressFunc func(event ProgressEvent)

// Run exports ec.BaseURL into ec.OutputPath. Per-route failures are logged
// and counted; cancellation and fatal setup errors end the run.
func (e *Exporter) Run(ctx context.Context, ec *sitexport.ExportContext, progress ProgressFunc) (*Result, error) {
	logger := e.logger()

	base, err := url.Parse(ec.BaseURL)
	if err != nil || base.Host == "" {
		return nil, sitexport.Errorf(sitexport.EINVALID, "invalid base URL %q", ec.BaseURL)
	}
	baseURL := strings.TrimRight(ec.BaseURL, "/")

	writer, err := e.openWriter(ec.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open output directory: %w", err)
	}

	if ec.Frontier == nil {
		ec.Frontier = NewFrontier(0)
	}
	frontier := ec.Frontier

	seeds, err := ReadSeeds(ec.SeedRoutesPath, logger)
	if err != nil {
		return nil, err
	}
	if ec.SitemapSeeding && e.Sitemaps != nil {
		routes, err := e.Sitemaps.DiscoverRoutes(ctx, baseURL, ec.Filter)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("sitemap discovery: %w", ctx.Err())
			}
			logger.Warn("sitemap discovery failed", "error", err)
		}
		seeds = append(seeds, routes...)
	}
	if len(seeds) == 0 {
		seeds = []string{"/"}
	}
	for _, route := range seeds {
		frontier.Push(route)
	}

	docsPrefix := strings.TrimRight(ec.DocsPrefix, "/")
	if docsPrefix == "" {
		docsPrefix = sitexport.DefaultDocsPrefix
	}
	docs := make(map[string]string)

	notify := func(typ ProgressType, route string, err error) {
		if progress != nil {
			progress(ProgressEvent{
				Type:    typ,
				Route:   route,
				Visited: frontier.VisitedCount(),
				Queued:  frontier.Len(),
				Error:   err,
			})
		}
	}

	logger.Info("export started", "base_url", baseURL, "output", writer.Root(), "seeds", len(seeds))
	notify(ProgressStarted, "", nil)

	var result Result
	for {
		if err := ctx.Err(); err != nil {
			return &result, err
		}
		if e.MaxRoutes > 0 && frontier.VisitedCount() >= e.MaxRoutes {
			logger.Warn("route limit reached", "limit", e.MaxRoutes, "queued", frontier.Len())
			break
		}

		route, ok := frontier.Next()
		if !ok {
			break
		}

		if err := e.Limiter.Wait(ctx); err != nil {
			return &result, err
		}

		page, err := e.exportRoute(ctx, writer, baseURL, route, &result)
		if err != nil {
			if ctx.Err() != nil {
				return &result, ctx.Err()
			}
			result.Failed++
			logger.Warn("route failed", "route", route, "error", err)
			notify(ProgressFailed, route, err)
			continue
		}
		if page == nil {
			notify(ProgressSkipped, route, nil)
			continue
		}

		if page.html != "" {
			e.discover(base, page.html, ec.Filter, frontier, logger, route)
			if ec.DocsSearchEnabled && isDocsRoute(route, docsPrefix) {
				docs[route] = page.html
			}
		}
		notify(ProgressCompleted, route, nil)
	}

	if ec.DocsSearchEnabled && e.Indexer != nil {
		if len(docs) == 0 {
			logger.Info("no documentation pages exported, skipping search index", "prefix", docsPrefix)
		} else {
			records := e.Indexer.BuildRecords(docs)
			opts := sitexport.SearchArtifactOptions{Runtime: ec.SearchRuntime, CDNURL: ec.SearchCDNURL}
			if err := e.Indexer.GenerateArtifacts(ctx, writer.Root(), records, opts); err != nil {
				return &result, fmt.Errorf("generate search artifacts: %w", err)
			}
			result.Indexed = len(records)
			logger.Info("search index written", "documents", len(records), "runtime", string(opts.Runtime))
		}
	}

	logger.Info("export finished",
		"pages", result.Pages,
		"assets", result.Assets,
		"partials", result.Partials,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"bytes", result.Bytes,
	)
	if f, ok := frontier.(*Frontier); ok {
		logger.Debug("visited set", "routes", f.VisitedCount(), "filter_misses", f.FilterMisses())
	}
	notify(ProgressFinished, "", nil)

	return &result, nil
}

// exportedPage is what the crawl loop needs from a successfully written route.
type exportedPage struct {
	html string
}

// exportRoute fetches and writes one route. It returns nil without error
// for non-success responses.
func (e *Exporter) exportRoute(ctx context.Context, writer sitexport.PageWriter, baseURL, route string, result *Result) (*exportedPage, error) {
	logger := e.logger()

	delays := e.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	retryLog := func(u string, attempt int, err error) {
		logger.Debug("retrying fetch", "url", u, "attempt", attempt, "error", err)
	}
	resp, err := FetchWithRetry(ctx, baseURL+route, e.Fetcher.Fetch, retryLog, delays)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if !resp.OK() {
		result.Skipped++
		logger.Warn("non-success status", "route", route, "status", resp.StatusCode)
		return nil, nil
	}

	if !sitexport.IsHTML(resp.ContentType) {
		path, err := writer.WriteRoute(route, resp.Body)
		if err != nil {
			return nil, fmt.Errorf("write: %w", err)
		}
		result.Assets++
		result.Bytes += int64(len(resp.Body))
		logger.Debug("asset written", "route", route, "path", path, "bytes", len(resp.Body), "hash", ComputeHash(resp.Body))
		return &exportedPage{}, nil
	}

	html := string(resp.Body)
	body := resp.Body

	var partial string
	hasPartial := false
	if e.Fragments != nil {
		inner, found, err := e.Fragments.ExtractContentFrame(html)
		if err != nil {
			logger.Warn("content frame extraction failed", "route", route, "error", err)
		} else if found {
			partial, hasPartial = inner, true
			body = []byte(e.Fragments.MarkPartial(html))
		}
	}

	path, err := writer.WriteRoute(route, body)
	if err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	result.Pages++
	result.Bytes += int64(len(body))
	logger.Debug("page written", "route", route, "path", path, "bytes", len(body), "hash", ComputeHash(body))

	if hasPartial {
		path, err := writer.WritePartial(route, []byte(partial))
		if err != nil {
			return nil, fmt.Errorf("write partial: %w", err)
		}
		result.Partials++
		result.Bytes += int64(len(partial))
		logger.Debug("partial written", "route", route, "path", path, "bytes", len(partial))
	}

	return &exportedPage{html: html}, nil
}

// discover enqueues the same-origin routes referenced by html.
func (e *Exporter) discover(base *url.URL, html string, filter *sitexport.URLFilter, frontier sitexport.RouteFrontier, logger *slog.Logger, from string) {
	if e.Extractor == nil {
		return
	}
	refs, err := e.Extractor.ExtractReferences(html)
	if err != nil {
		logger.Warn("reference discovery failed", "route", from, "error", err)
		return
	}

	queued := 0
	for _, ref := range refs {
		route, err := sitexport.RouteFromReference(base, ref)
		if err != nil {
			continue
		}
		if !filter.Match(route) {
			continue
		}
		if frontier.Push(route) {
			queued++
		}
	}
	logger.Debug("references discovered", "route", from, "references", len(refs), "queued", queued)
}

func (e *Exporter) openWriter(dir string) (sitexport.PageWriter, error) {
	if dir == "" {
		dir = sitexport.DefaultOutputPath
	}
	if e.NewWriter != nil {
		return e.NewWriter(dir)
	}
	return sitexportfs.NewWriter(dir)
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// isDocsRoute reports whether route is prefix or lies beneath it.
func isDocsRoute(route, prefix string) bool {
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

// ReadSeeds reads seed routes from path, one route or absolute URL per line.
// Blank lines and lines starting with "#" are ignored; invalid lines are
// logged and skipped. An empty path yields no seeds. A missing file is an
// ENOTFOUND error.
func ReadSeeds(path string, logger *slog.Logger) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sitexport.Errorf(sitexport.ENOTFOUND, "seed routes file %q not found", path)
	} else if err != nil {
		return nil, fmt.Errorf("open seed routes: %w", err)
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		route, err := SeedRoute(line)
		if err != nil {
			logger.Warn("invalid seed route", "line", lineNo, "value", line, "error", err)
			continue
		}
		seeds = append(seeds, route)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed routes: %w", err)
	}

	return seeds, nil
}

// SeedRoute parses one seed line. Absolute URLs contribute their path;
// anything else must be a valid root-relative route.
func SeedRoute(line string) (string, error) {
	u, err := url.Parse(line)
	if err != nil {
		return "", sitexport.Errorf(sitexport.EINVALID, "invalid seed %q: %v", line, err)
	}
	if u.IsAbs() && u.Host != "" {
		path := u.EscapedPath()
		if path == "" {
			path = "/"
		}
		return sitexport.NormalizeRoute(path)
	}
	return sitexport.NormalizeRoute(line)
}
