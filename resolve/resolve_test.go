package resolve_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/mock"
	"github.com/fwojciec/sitexport/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executableRequest() *sitexport.ExportSourceRequest {
	return &sitexport.ExportSourceRequest{Kind: sitexport.SourceExecutable, Value: "/app/Web"}
}

func newBuilder() *mock.ProjectBuilder {
	return &mock.ProjectBuilder{
		ResolveLaunchRequestFn: func(context.Context, *sitexport.ExportSourceRequest) error { return nil },
		LaunchSpecFn: func(req *sitexport.ExportSourceRequest) (sitexport.ProcessLaunchSpec, error) {
			return sitexport.ProcessLaunchSpec{FileName: req.Value}, nil
		},
	}
}

func readyProber() *mock.ReadinessProber {
	return &mock.ReadinessProber{ProbeFn: func(context.Context, string) error { return nil }}
}

func newResolver(proc *mock.Process, prober sitexport.ReadinessProber) *resolve.Resolver {
	return &resolve.Resolver{
		Builder:       newBuilder(),
		Starter:       mock.StarterFor(proc),
		Prober:        prober,
		ListenTimeout: time.Second,
		ReadyTimeout:  time.Second,
		PollInterval:  5 * time.Millisecond,
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("returns url sources without a process", func(t *testing.T) {
		t.Parallel()

		r := &resolve.Resolver{}
		src, err := r.Resolve(context.Background(), &sitexport.ExportSourceRequest{
			Kind:  sitexport.SourceURL,
			Value: "http://localhost:5000/",
		})

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000", src.BaseURL)
		assert.Nil(t, src.Process)
		assert.NoError(t, src.Close())
	})

	t.Run("rejects invalid url before doing any work", func(t *testing.T) {
		t.Parallel()

		r := &resolve.Resolver{}
		_, err := r.Resolve(context.Background(), &sitexport.ExportSourceRequest{
			Kind:  sitexport.SourceURL,
			Value: "localhost:5000",
		})

		assert.Equal(t, sitexport.EINVALID, sitexport.ErrorCode(err))
	})

	t.Run("returns bound url once the application answers", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Output("info: Microsoft.Hosting.Lifetime[14]")
			p.Output("      Now listening on: http://127.0.0.1:5123")
			return nil
		})
		var probed string
		prober := &mock.ReadinessProber{ProbeFn: func(_ context.Context, url string) error {
			probed = url
			return nil
		}}

		src, err := newResolver(proc, prober).Resolve(context.Background(), executableRequest())

		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:5123", src.BaseURL)
		assert.Equal(t, "http://127.0.0.1:5123", probed)
		assert.Equal(t, proc, src.Process)
		assert.Equal(t, 0, proc.CloseCount())

		require.NoError(t, src.Close())
		require.NoError(t, src.Close())
		assert.Equal(t, 1, proc.CloseCount())
	})

	t.Run("detects listening line on stderr", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Error("NOW LISTENING ON: https://[::1]:7001")
			return nil
		})

		src, err := newResolver(proc, readyProber()).Resolve(context.Background(), executableRequest())

		require.NoError(t, err)
		assert.Equal(t, "https://[::1]:7001", src.BaseURL)
	})

	t.Run("times out when no listening line is printed", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Output("starting up")
			return nil
		})
		r := newResolver(proc, readyProber())
		r.ListenTimeout = 100 * time.Millisecond

		begin := time.Now()
		_, err := r.Resolve(context.Background(), executableRequest())
		elapsed := time.Since(begin)

		require.Error(t, err)
		assert.Equal(t, sitexport.ETIMEOUT, sitexport.ErrorCode(err))
		assert.Contains(t, sitexport.ErrorMessage(err), "starting up")
		assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
		assert.Less(t, elapsed, 2*time.Second)
		assert.Equal(t, 1, proc.CloseCount())
	})

	t.Run("fails immediately when the process exits early", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Error("Unhandled exception: port in use")
			go p.Exit(errors.New("exit status 1"))
			return nil
		})
		r := newResolver(proc, readyProber())
		r.ListenTimeout = 10 * time.Second

		begin := time.Now()
		_, err := r.Resolve(context.Background(), executableRequest())

		assert.Equal(t, sitexport.EEXITED, sitexport.ErrorCode(err))
		assert.Contains(t, sitexport.ErrorMessage(err), "port in use")
		assert.Less(t, time.Since(begin), 5*time.Second)
		assert.Equal(t, 1, proc.CloseCount())
	})

	t.Run("keeps polling until the application answers", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Output("Now listening on: http://localhost:5000")
			return nil
		})
		var calls atomic.Int32
		prober := &mock.ReadinessProber{ProbeFn: func(context.Context, string) error {
			if calls.Add(1) < 3 {
				return errors.New("connection refused")
			}
			return nil
		}}

		src, err := newResolver(proc, prober).Resolve(context.Background(), executableRequest())

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000", src.BaseURL)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("times out when the application never answers", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Output("Now listening on: http://localhost:5000")
			return nil
		})
		prober := &mock.ReadinessProber{ProbeFn: func(context.Context, string) error {
			return errors.New("connection refused")
		}}
		r := newResolver(proc, prober)
		r.ReadyTimeout = 50 * time.Millisecond

		_, err := r.Resolve(context.Background(), executableRequest())

		assert.Equal(t, sitexport.ETIMEOUT, sitexport.ErrorCode(err))
		assert.Contains(t, sitexport.ErrorMessage(err), "Now listening on")
		assert.Equal(t, 1, proc.CloseCount())
	})

	t.Run("fails when the process exits while polling", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Output("Now listening on: http://localhost:5000")
			return nil
		})
		prober := &mock.ReadinessProber{ProbeFn: func(context.Context, string) error {
			proc.Exit(errors.New("crashed"))
			return errors.New("connection refused")
		}}
		r := newResolver(proc, prober)
		r.ReadyTimeout = 10 * time.Second

		_, err := r.Resolve(context.Background(), executableRequest())

		assert.Equal(t, sitexport.EEXITED, sitexport.ErrorCode(err))
	})

	t.Run("propagates cancellation distinctly from timeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		proc := mock.NewProcess(func(p *mock.Process) error {
			go func() {
				time.Sleep(20 * time.Millisecond)
				cancel()
			}()
			return nil
		})
		r := newResolver(proc, readyProber())
		r.ListenTimeout = 10 * time.Second

		_, err := r.Resolve(ctx, executableRequest())

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotEqual(t, sitexport.ETIMEOUT, sitexport.ErrorCode(err))
		assert.Equal(t, 1, proc.CloseCount())
	})

	t.Run("propagates cancellation during readiness polling", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		proc := mock.NewProcess(func(p *mock.Process) error {
			p.Output("Now listening on: http://localhost:5000")
			return nil
		})
		prober := &mock.ReadinessProber{ProbeFn: func(context.Context, string) error {
			cancel()
			return errors.New("connection refused")
		}}

		_, err := newResolver(proc, prober).Resolve(ctx, executableRequest())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, proc.CloseCount())
	})

	t.Run("returns build errors without starting a process", func(t *testing.T) {
		t.Parallel()

		builder := newBuilder()
		builder.ResolveLaunchRequestFn = func(context.Context, *sitexport.ExportSourceRequest) error {
			return sitexport.Errorf(sitexport.ENOTFOUND, "no project file")
		}
		r := &resolve.Resolver{
			Builder: builder,
			Starter: &mock.ProcessStarter{CreateFn: func(sitexport.ProcessLaunchSpec, sitexport.ProcessHooks) sitexport.Process {
				t.Fatal("process should not be created")
				return nil
			}},
		}

		_, err := r.Resolve(context.Background(), &sitexport.ExportSourceRequest{Kind: sitexport.SourceProject, Value: "Web"})

		assert.Equal(t, sitexport.ENOTFOUND, sitexport.ErrorCode(err))
	})

	t.Run("returns start errors", func(t *testing.T) {
		t.Parallel()

		proc := mock.NewProcess(func(*mock.Process) error {
			return fmt.Errorf("exec format error")
		})

		_, err := newResolver(proc, readyProber()).Resolve(context.Background(), executableRequest())

		assert.ErrorContains(t, err, "exec format error")
	})
}

func TestParseListeningURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"Now listening on: http://127.0.0.1:5123", "http://127.0.0.1:5123", true},
		{"info: now listening on: http://localhost:5000/", "http://localhost:5000", true},
		{"Now listening on: https://[::1]:7001", "https://[::1]:7001", true},
		{"Now listening on: http://[::]:8080", "http://[::1]:8080", true},
		{"Now listening on: http://0.0.0.0:8080", "http://127.0.0.1:8080", true},
		{"Now listening on: http://+:8080", "http://127.0.0.1:8080", true},
		{"Now listening on: http://*:8080", "http://127.0.0.1:8080", true},
		{"Now listening on: https://*", "https://127.0.0.1", true},
		{"Application started. Press Ctrl+C to shut down.", "", false},
		{"Now listening on: not-a-url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			got, ok := resolve.ParseListeningURL(tt.line)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
