package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/bleve"
	"github.com/fwojciec/sitexport/crawl"
	"github.com/fwojciec/sitexport/dotnet"
	"github.com/fwojciec/sitexport/exec"
	"github.com/fwojciec/sitexport/goquery"
	sxhttp "github.com/fwojciec/sitexport/http"
	"github.com/fwojciec/sitexport/resolve"
	"github.com/fwojciec/sitexport/search"
	sxslog "github.com/fwojciec/sitexport/slog"
	"github.com/fwojciec/sitexport/yaml"
	"github.com/google/uuid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Services for end-to-end testing. Nil fields are built from flags.
	Resolver sitexport.SourceResolver
	Logger   *slog.Logger
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitexport"),
		kong.Description("Export a running web application to a static site"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sitexport --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = m.Logger
	if deps.Logger == nil {
		deps.Logger = newLogger(stderr, cli.Verbose)
	}

	name, _, _ := strings.Cut(kongCtx.Command(), " ")
	switch name {
	case "export":
		if err := m.wireExport(deps, &cli.Export, cli.Verbose); err != nil {
			return err
		}
	case "search":
		deps.OpenIndex = func(path string) (sitexport.SearchQuerier, error) {
			return bleve.Open(path)
		}
	}

	return kongCtx.Run(deps)
}

// wireExport builds the resolver and exporter for the export command.
func (m *Main) wireExport(deps *Dependencies, c *ExportCmd, verbose bool) error {
	logger := deps.Logger

	cfg := &yaml.Config{}
	if c.Config != "" {
		var err error
		if cfg, err = yaml.Load(c.Config); err != nil {
			return err
		}
	}
	deps.Config = cfg

	deps.Resolver = m.Resolver
	if deps.Resolver == nil {
		starter := &exec.Starter{}
		deps.Resolver = &resolve.Resolver{
			Builder:       dotnet.NewBuilder(starter, logger),
			Starter:       starter,
			Prober:        sxhttp.NewProber(0),
			Logger:        logger,
			ListenTimeout: c.ListenTimeout,
			ReadyTimeout:  c.ReadyTimeout,
		}
	}

	timeout := c.Timeout
	if cfg.FetchTimeout > 0 {
		timeout = cfg.FetchTimeout
	}
	var fetcher sitexport.Fetcher = sxhttp.NewFetcher(sxhttp.WithTimeout(timeout))
	var sitemaps sitexport.SitemapService = sxhttp.NewSitemapService(nil)

	prefix := c.DocsPrefix
	if cfg.DocsPrefix != "" {
		prefix = cfg.DocsPrefix
	}
	var indexer sitexport.SearchIndexer = search.NewBuilder(prefix, logger)

	if verbose {
		deps.Resolver = sxslog.NewLoggingResolver(deps.Resolver, logger)
		fetcher = sxslog.NewLoggingFetcher(fetcher, logger)
		sitemaps = sxslog.NewLoggingSitemapService(sitemaps, logger)
		indexer = sxslog.NewLoggingIndexer(indexer, logger)
	}

	rules, err := cfg.ExtractionRules()
	if err != nil {
		return err
	}

	rate := c.Rate
	if cfg.RatePerSec > 0 {
		rate = cfg.RatePerSec
	}
	maxRoutes := c.MaxRoutes
	if cfg.MaxRoutes > 0 {
		maxRoutes = cfg.MaxRoutes
	}

	deps.Exporter = &crawl.Exporter{
		Fetcher:     fetcher,
		Extractor:   goquery.NewDiscoverer(rules...),
		Fragments:   cfg.Fragments(),
		Indexer:     indexer,
		Sitemaps:    sitemaps,
		Logger:      logger,
		Limiter:     crawl.NewLimiter(rate),
		RetryDelays: cfg.RetryDelays,
		MaxRoutes:   maxRoutes,
	}
	return nil
}

// newLogger returns a text logger on w tagged with a fresh run id.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("run_id", uuid.NewString())
}
