package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/sitexport"
)

// Compile-time interface verification.
var (
	_ sitexport.Process        = (*Process)(nil)
	_ sitexport.ProcessStarter = (*ProcessStarter)(nil)
	_ sitexport.ProjectBuilder = (*ProjectBuilder)(nil)
	_ sitexport.SourceResolver = (*SourceResolver)(nil)
)

// Process is a scriptable in-memory process. StartFn receives the hooks
// passed to Create and may emit lines or call Exit from any goroutine.
type Process struct {
	Spec    sitexport.ProcessLaunchSpec
	Hooks   sitexport.ProcessHooks
	StartFn func(p *Process) error

	mu       sync.Mutex
	started  bool
	exited   chan struct{}
	exitOnce sync.Once
	closed   int
}

// NewProcess returns a mock process that runs startFn on Start.
func NewProcess(startFn func(p *Process) error) *Process {
	return &Process{StartFn: startFn, exited: make(chan struct{})}
}

func (p *Process) Start() error {
	p.mu.Lock()
	p.started = true
	if p.exited == nil {
		p.exited = make(chan struct{})
	}
	p.mu.Unlock()
	if p.StartFn != nil {
		return p.StartFn(p)
	}
	return nil
}

// Output emits a stdout line.
func (p *Process) Output(line string) {
	if p.Hooks.OnOutput != nil {
		p.Hooks.OnOutput(line)
	}
}

// Error emits a stderr line.
func (p *Process) Error(line string) {
	if p.Hooks.OnError != nil {
		p.Hooks.OnError(line)
	}
}

// Exit marks the process as exited and fires OnExit once.
func (p *Process) Exit(err error) {
	p.exitOnce.Do(func() {
		p.mu.Lock()
		if p.exited == nil {
			p.exited = make(chan struct{})
		}
		ch := p.exited
		p.mu.Unlock()
		close(ch)
		if p.Hooks.OnExit != nil {
			p.Hooks.OnExit(err)
		}
	})
}

func (p *Process) HasExited() bool {
	p.mu.Lock()
	started, ch := p.started, p.exited
	p.mu.Unlock()
	if !started {
		return true
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func (p *Process) Exited() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited == nil {
		p.exited = make(chan struct{})
	}
	return p.exited
}

func (p *Process) PID() int { return 4242 }

// Close records the call and exits the process.
func (p *Process) Close() error {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
	p.Exit(nil)
	return nil
}

// CloseCount returns how many times Close was called.
func (p *Process) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ProcessStarter is a mock implementation of sitexport.ProcessStarter.
type ProcessStarter struct {
	CreateFn func(spec sitexport.ProcessLaunchSpec, hooks sitexport.ProcessHooks) sitexport.Process
}

func (s *ProcessStarter) Create(spec sitexport.ProcessLaunchSpec, hooks sitexport.ProcessHooks) sitexport.Process {
	return s.CreateFn(spec, hooks)
}

// ProjectBuilder is a mock implementation of sitexport.ProjectBuilder.
type ProjectBuilder struct {
	ResolveLaunchRequestFn func(ctx context.Context, req *sitexport.ExportSourceRequest) error
	LaunchSpecFn           func(req *sitexport.ExportSourceRequest) (sitexport.ProcessLaunchSpec, error)
}

func (b *ProjectBuilder) ResolveLaunchRequest(ctx context.Context, req *sitexport.ExportSourceRequest) error {
	return b.ResolveLaunchRequestFn(ctx, req)
}

func (b *ProjectBuilder) LaunchSpec(req *sitexport.ExportSourceRequest) (sitexport.ProcessLaunchSpec, error) {
	return b.LaunchSpecFn(req)
}

// SourceResolver is a mock implementation of sitexport.SourceResolver.
type SourceResolver struct {
	ResolveFn func(ctx context.Context, req *sitexport.ExportSourceRequest) (*sitexport.ResolvedSource, error)
}

func (r *SourceResolver) Resolve(ctx context.Context, req *sitexport.ExportSourceRequest) (*sitexport.ResolvedSource, error) {
	return r.ResolveFn(ctx, req)
}

// StarterFor returns a starter that hands out p, recording the spec and hooks.
func StarterFor(p *Process) *ProcessStarter {
	return &ProcessStarter{
		CreateFn: func(spec sitexport.ProcessLaunchSpec, hooks sitexport.ProcessHooks) sitexport.Process {
			p.Spec = spec
			p.Hooks = hooks
			return p
		},
	}
}
