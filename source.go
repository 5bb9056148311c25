package sitexport

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// SourceKind identifies how the target application is reached.
type SourceKind string

// Supported source kinds.
const (
	SourceURL        SourceKind = "url"
	SourceProject    SourceKind = "project"
	SourceExecutable SourceKind = "executable"
)

// ExportSourceRequest describes the application to export.
// Kind and Value are rewritten from SourceProject to SourceExecutable
// once the project has been built.
type ExportSourceRequest struct {
	Kind      SourceKind
	Value     string
	AppArgs   []string
	SkipBuild bool
}

// NewSourceRequest selects the single non-empty source among rawURL, project
// and executable. Zero or multiple non-empty values return EINVALID.
func NewSourceRequest(rawURL, project, executable string, appArgs []string, skipBuild bool) (*ExportSourceRequest, error) {
	var selected []SourceKind
	var value string
	if s := strings.TrimSpace(rawURL); s != "" {
		selected = append(selected, SourceURL)
		value = s
	}
	if s := strings.TrimSpace(project); s != "" {
		selected = append(selected, SourceProject)
		value = s
	}
	if s := strings.TrimSpace(executable); s != "" {
		selected = append(selected, SourceExecutable)
		value = s
	}

	switch len(selected) {
	case 0:
		return nil, Errorf(EINVALID, "one of url, project or executable is required")
	case 1:
	default:
		return nil, Errorf(EINVALID, "url, project and executable are mutually exclusive (got %d)", len(selected))
	}

	req := &ExportSourceRequest{
		Kind:      selected[0],
		Value:     value,
		AppArgs:   appArgs,
		SkipBuild: skipBuild,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate returns an error if the request contains invalid fields.
func (r *ExportSourceRequest) Validate() error {
	if r.Value == "" {
		return Errorf(EINVALID, "source value required")
	}
	switch r.Kind {
	case SourceURL:
		u, err := url.Parse(r.Value)
		if err != nil {
			return Errorf(EINVALID, "invalid url %q: %v", r.Value, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return Errorf(EINVALID, "url %q must be absolute http or https", r.Value)
		}
		if u.Host == "" {
			return Errorf(EINVALID, "url %q has no host", r.Value)
		}
	case SourceProject, SourceExecutable:
	default:
		return Errorf(EINVALID, "unknown source kind %q", r.Kind)
	}
	return nil
}

// ResolvedSource is a reachable base URL plus the process serving it, if one
// was started. Close terminates the owned process.
type ResolvedSource struct {
	BaseURL string
	Process Process

	once sync.Once
	err  error
}

// Close disposes the owned process. It is safe to call multiple times.
func (s *ResolvedSource) Close() error {
	s.once.Do(func() {
		if s.Process != nil {
			s.err = s.Process.Close()
		}
	})
	return s.err
}

// ProcessLaunchSpec is a fully resolved description of how to start the
// target process.
type ProcessLaunchSpec struct {
	FileName   string
	Arguments  []string
	Env        map[string]string
	WorkingDir string
}

// ProcessHooks receive process events. Nil hooks are ignored.
// Line hooks fire once per non-empty line, from background goroutines.
type ProcessHooks struct {
	OnOutput func(line string)
	OnError  func(line string)
	OnExit   func(err error)
}

// Process is a handle to exactly one OS process.
type Process interface {
	// Start begins execution and asynchronous capture of both output streams.
	Start() error

	// HasExited reports whether the process is not running.
	// It is true before Start is called.
	HasExited() bool

	// Exited is closed once the process has exited.
	Exited() <-chan struct{}

	// PID returns the OS process id, or 0 if not started.
	PID() int

	// Close terminates the process tree. It is idempotent and never
	// fails on a process that has already exited.
	Close() error
}

// ProcessStarter creates process handles from launch specs.
type ProcessStarter interface {
	Create(spec ProcessLaunchSpec, hooks ProcessHooks) Process
}

// ProjectBuilder turns project requests into executable requests.
type ProjectBuilder interface {
	// ResolveLaunchRequest is a no-op for URL and executable requests.
	// For project requests it builds the project (unless SkipBuild) and
	// rewrites the request to SourceExecutable.
	ResolveLaunchRequest(ctx context.Context, req *ExportSourceRequest) error

	// LaunchSpec builds a launch spec for an executable request.
	LaunchSpec(req *ExportSourceRequest) (ProcessLaunchSpec, error)
}

// SourceResolver turns a source request into a reachable base URL.
type SourceResolver interface {
	Resolve(ctx context.Context, req *ExportSourceRequest) (*ResolvedSource, error)
}

// ReadinessProber checks whether an application answers HTTP requests.
type ReadinessProber interface {
	// Probe returns nil once any HTTP response is received, regardless of status.
	Probe(ctx context.Context, url string) error
}
