// Package resolve turns an export source request into a reachable base URL.
// For project and executable sources it launches the application, waits for
// it to report its bound address and polls that address until the
// application answers HTTP requests.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/sitexport"
)

// Readiness defaults.
const (
	DefaultListenTimeout = 60 * time.Second
	DefaultReadyTimeout  = 30 * time.Second
	DefaultPollInterval  = 250 * time.Millisecond
	DefaultLogLines      = 200
)

// Compile-time interface verification.
var _ sitexport.SourceResolver = (*Resolver)(nil)

// Resolver implements sitexport.SourceResolver.
type Resolver struct {
	Builder sitexport.ProjectBuilder
	Starter sitexport.ProcessStarter
	Prober  sitexport.ReadinessProber
	Logger  *slog.Logger

	ListenTimeout time.Duration
	ReadyTimeout  time.Duration
	PollInterval  time.Duration
	LogLines      int
}

// Resolve returns the base URL for req. URL requests resolve immediately
// with no owned process. Otherwise the application is started and must
// complete the readiness handshake; on any failure the process is disposed
// before the error is returned. Context cancellation is returned as a
// wrapped context error, never as ETIMEOUT.
func (r *Resolver) Resolve(ctx context.Context, req *sitexport.ExportSourceRequest) (*sitexport.ResolvedSource, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Kind == sitexport.SourceURL {
		return &sitexport.ResolvedSource{BaseURL: strings.TrimRight(req.Value, "/")}, nil
	}

	if err := r.Builder.ResolveLaunchRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("resolving launch request: %w", err)
	}
	spec, err := r.Builder.LaunchSpec(req)
	if err != nil {
		return nil, err
	}

	logger := r.logger()
	logs := newLogBuffer(r.LogLines)
	bound := make(chan string, 1)
	var boundOnce sync.Once
	capture := func(stream string) func(string) {
		return func(line string) {
			logs.Add(line)
			logger.Debug("app output", "stream", stream, "line", line)
			if u, ok := ParseListeningURL(line); ok {
				boundOnce.Do(func() { bound <- u })
			}
		}
	}

	proc := r.Starter.Create(spec, sitexport.ProcessHooks{
		OnOutput: capture("stdout"),
		OnError:  capture("stderr"),
		OnExit: func(err error) {
			logger.Debug("app exited", "err", err)
		},
	})

	logger.Info("starting application", "file", spec.FileName, "args", spec.Arguments)
	if err := proc.Start(); err != nil {
		return nil, fmt.Errorf("starting application: %w", err)
	}

	owned := false
	defer func() {
		if !owned {
			_ = proc.Close()
		}
	}()

	baseURL, err := r.awaitListening(ctx, proc, bound, logs)
	if err != nil {
		return nil, err
	}
	logger.Info("application listening", "url", baseURL)

	if err := r.awaitReady(ctx, proc, baseURL, logs); err != nil {
		return nil, err
	}
	logger.Info("application ready", "url", baseURL)

	owned = true
	return &sitexport.ResolvedSource{BaseURL: baseURL, Process: proc}, nil
}

// awaitListening races the bound-address signal against process exit,
// cancellation and the listening timeout.
func (r *Resolver) awaitListening(ctx context.Context, proc sitexport.Process, bound <-chan string, logs *logBuffer) (string, error) {
	timeout := r.listenTimeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case u := <-bound:
		return u, nil
	default:
	}

	select {
	case u := <-bound:
		return u, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for listening address: %w", ctx.Err())
	case <-proc.Exited():
		// A line matched just before exit still wins.
		select {
		case u := <-bound:
			return u, nil
		default:
		}
		return "", sitexport.Errorf(sitexport.EEXITED, "application exited before reporting a listening address\n%s", logs.Tail())
	case <-timer.C:
		return "", sitexport.Errorf(sitexport.ETIMEOUT, "application did not report a listening address within %s\n%s", timeout, logs.Tail())
	}
}

// awaitReady polls baseURL until any HTTP response arrives.
// Transport errors mean "not ready yet".
func (r *Resolver) awaitReady(ctx context.Context, proc sitexport.Process, baseURL string, logs *logBuffer) error {
	timeout := r.readyTimeout()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(r.pollInterval())
	defer ticker.Stop()

	for {
		if proc.HasExited() {
			return sitexport.Errorf(sitexport.EEXITED, "application exited before answering requests\n%s", logs.Tail())
		}

		err := r.Prober.Probe(ctx, baseURL)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("waiting for application readiness: %w", ctx.Err())
		}
		r.logger().Debug("readiness probe failed", "url", baseURL, "err", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for application readiness: %w", ctx.Err())
		case <-proc.Exited():
			return sitexport.Errorf(sitexport.EEXITED, "application exited before answering requests\n%s", logs.Tail())
		case <-deadline.C:
			return sitexport.Errorf(sitexport.ETIMEOUT, "application at %s did not answer within %s\n%s", baseURL, timeout, logs.Tail())
		case <-ticker.C:
		}
	}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Resolver) listenTimeout() time.Duration {
	if r.ListenTimeout <= 0 {
		return DefaultListenTimeout
	}
	return r.ListenTimeout
}

func (r *Resolver) readyTimeout() time.Duration {
	if r.ReadyTimeout <= 0 {
		return DefaultReadyTimeout
	}
	return r.ReadyTimeout
}

func (r *Resolver) pollInterval() time.Duration {
	if r.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return r.PollInterval
}
