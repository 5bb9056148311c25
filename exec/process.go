// Package exec supervises child processes started from a
// sitexport.ProcessLaunchSpec. Output is streamed line by line to hooks and
// the whole process tree is terminated on Close.
package exec

import (
	"bufio"
	"io"
	"os"
	osexec "os/exec"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/sitexport"
	"golang.org/x/sync/errgroup"
)

// DefaultGracePeriod is how long Close waits after a graceful termination
// request before force-killing the process tree.
const DefaultGracePeriod = 5 * time.Second

// maxLineSize bounds a single captured output line.
const maxLineSize = 1024 * 1024

// drainTimeout bounds how long output is read after the process exits.
const drainTimeout = 250 * time.Millisecond

// Compile-time interface verification.
var (
	_ sitexport.Process        = (*Process)(nil)
	_ sitexport.ProcessStarter = (*Starter)(nil)
)

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Starter creates Process handles.
type Starter struct {
	GracePeriod time.Duration
}

// Create returns an unstarted process for spec.
func (s *Starter) Create(spec sitexport.ProcessLaunchSpec, hooks sitexport.ProcessHooks) sitexport.Process {
	p := NewProcess(spec, hooks)
	if s != nil && s.GracePeriod > 0 {
		p.grace = s.GracePeriod
	}
	return p
}

// Process is a handle to exactly one OS process.
// It is safe for concurrent use.
type Process struct {
	spec  sitexport.ProcessLaunchSpec
	hooks sitexport.ProcessHooks
	grace time.Duration

	mu      sync.Mutex
	cmd     *osexec.Cmd
	started bool
	exited  chan struct{}
	exitErr error

	closeOnce sync.Once
	closeErr  error
}

// NewProcess returns an unstarted process for spec.
func NewProcess(spec sitexport.ProcessLaunchSpec, hooks sitexport.ProcessHooks) *Process {
	return &Process{
		spec:   spec,
		hooks:  hooks,
		grace:  DefaultGracePeriod,
		exited: make(chan struct{}),
	}
}

// Start launches the process and begins capturing stdout and stderr.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return sitexport.Errorf(sitexport.EINVALID, "process %q already started", p.spec.FileName)
	}
	if p.spec.FileName == "" {
		return sitexport.Errorf(sitexport.EINVALID, "process file name required")
	}

	cmd := osexec.Command(p.spec.FileName, p.spec.Arguments...)
	cmd.Dir = p.spec.WorkingDir
	cmd.Env = mergeEnv(os.Environ(), p.spec.Env)
	setProcessGroup(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return err
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()
	// The child holds its own copies of the write ends.
	_ = stdoutW.Close()
	_ = stderrW.Close()
	if err != nil {
		_ = stdoutR.Close()
		_ = stderrR.Close()
		return sitexport.Errorf(sitexport.EINVALID, "starting %q: %v", p.spec.FileName, err)
	}
	p.cmd = cmd
	p.started = true

	go p.wait(stdoutR, stderrR)
	return nil
}

// wait reaps the process, then gives the readers drainTimeout to deliver
// buffered lines before closing the pipes. Descendants that inherited the
// pipes cannot delay exit detection past that window.
func (p *Process) wait(stdout, stderr *os.File) {
	var g errgroup.Group
	g.Go(func() error { return scanLines(stdout, p.hooks.OnOutput) })
	g.Go(func() error { return scanLines(stderr, p.hooks.OnError) })
	drained := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(drained)
	}()

	err := p.cmd.Wait()

	closePipes := func() {
		_ = stdout.Close()
		_ = stderr.Close()
	}
	timer := time.NewTimer(drainTimeout)
	select {
	case <-drained:
		closePipes()
	case <-timer.C:
		// Close can block on platforms without pollable pipes.
		go closePipes()
	}
	timer.Stop()

	p.mu.Lock()
	p.exitErr = err
	p.mu.Unlock()
	close(p.exited)

	if p.hooks.OnExit != nil {
		p.hooks.OnExit(err)
	}
}

func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || fn == nil {
			continue
		}
		fn(line)
	}
	// Keep draining so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, r)
	return scanner.Err()
}

// HasExited reports whether the process is not running.
// It is true before Start is called.
func (p *Process) HasExited() bool {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return true
	}
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Exited returns a channel closed once the process has exited.
// Before Start the returned channel is already closed.
func (p *Process) Exited() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return closedCh
	}
	return p.exited
}

// ExitErr returns the error reported by the process on exit, if any.
func (p *Process) ExitErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitErr
}

// PID returns the OS process id, or 0 if not started.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Close requests graceful termination, then force-kills the process tree if
// it is still running after the grace period. Close is safe to call
// multiple times and returns nil for processes that already exited.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.terminate()
	})
	return p.closeErr
}

func (p *Process) terminate() error {
	p.mu.Lock()
	cmd, started := p.cmd, p.started
	p.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-p.exited:
		return nil
	default:
	}

	if err := interruptTree(cmd); err != nil {
		return killTree(cmd)
	}

	timer := time.NewTimer(p.grace)
	defer timer.Stop()
	select {
	case <-p.exited:
		return nil
	case <-timer.C:
	}

	if err := killTree(cmd); err != nil {
		return err
	}

	timer.Reset(p.grace)
	select {
	case <-p.exited:
	case <-timer.C:
	}
	return nil
}

// mergeEnv overlays overrides on base, replacing existing keys.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}
