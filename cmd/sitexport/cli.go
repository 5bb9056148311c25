package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/crawl"
	"github.com/fwojciec/sitexport/yaml"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   *yaml.Config
	Resolver sitexport.SourceResolver
	Exporter *crawl.Exporter

	// OpenIndex opens a search index file for querying.
	OpenIndex func(path string) (sitexport.SearchQuerier, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" env:"SITEXPORT_VERBOSE" help:"Enable debug logging"`

	Export ExportCmd `cmd:"" help:"Export a running application to static files"`
	Search SearchCmd `cmd:"" help:"Query an exported documentation search index"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	URL        string   `name:"url" env:"SITEXPORT_URL" help:"Base URL of an already running application"`
	Project    string   `name:"project" env:"SITEXPORT_PROJECT" help:"Path to a .csproj file or project directory"`
	Executable string   `name:"exe" env:"SITEXPORT_EXE" help:"Path to a built application executable or .dll"`
	AppArgs    []string `name:"app-arg" sep:"none" help:"Argument passed to the launched application (repeatable)"`
	SkipBuild  bool     `name:"skip-build" help:"Use existing build output instead of building the project"`

	Output string `short:"o" default:"dist" env:"SITEXPORT_OUTPUT" help:"Output directory"`
	Seeds  string `name:"seeds" env:"SITEXPORT_SEEDS" help:"File with one seed route or URL per line"`
	Config string `name:"config" short:"c" env:"SITEXPORT_CONFIG" help:"YAML file with crawl settings and extraction rules"`

	Sitemap   bool     `name:"sitemap" help:"Seed the crawl from the site's sitemap"`
	Include   []string `short:"I" name:"include" sep:"none" help:"Only crawl routes matching regex (repeatable)"`
	Exclude   []string `short:"X" name:"exclude" sep:"none" help:"Skip routes matching regex (repeatable)"`
	Rate      float64  `name:"rate" help:"Maximum requests per second (0 for unlimited)"`
	MaxRoutes int      `name:"max-routes" help:"Stop after exporting this many routes (0 for unlimited)"`

	NoDocsSearch  bool   `name:"no-docs-search" help:"Do not generate documentation search artifacts"`
	DocsPrefix    string `name:"docs-prefix" default:"/docs" help:"Route prefix of the documentation section"`
	SearchRuntime string `name:"search-runtime" default:"local" enum:"local,cdn" help:"Where the search runtime is loaded from (local, cdn)"`
	SearchCDNURL  string `name:"search-cdn-url" help:"Runtime URL used with --search-runtime=cdn"`

	ListenTimeout time.Duration `name:"listen-timeout" default:"60s" help:"How long to wait for a launched application to report its URL"`
	ReadyTimeout  time.Duration `name:"ready-timeout" default:"30s" help:"How long to wait for a launched application to answer HTTP"`
	Timeout       time.Duration `name:"timeout" default:"30s" help:"Per-request fetch timeout"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Index string `arg:"" help:"Path to search-index.json"`
	Query string `arg:"" help:"Search query"`
	Limit int    `short:"n" default:"10" help:"Maximum number of results"`
}

// reportError writes a user-facing message for err to w.
func reportError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "error: interrupted")
		return
	}
	fmt.Fprintf(w, "error: %s\n", sitexport.ErrorMessage(err))
}
