package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/mock"
	sxslog "github.com/fwojciec/sitexport/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("logs resolved base URL and pid", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		proc := mock.NewProcess(nil)
		inner := &mock.SourceResolver{
			ResolveFn: func(ctx context.Context, req *sitexport.ExportSourceRequest) (*sitexport.ResolvedSource, error) {
				// Resolvers may rewrite the request; the log shows what was asked for.
				req.Kind = sitexport.SourceExecutable
				return &sitexport.ResolvedSource{BaseURL: "http://127.0.0.1:5000", Process: proc}, nil
			},
		}

		r := sxslog.NewLoggingResolver(inner, logger)
		src, err := r.Resolve(context.Background(), &sitexport.ExportSourceRequest{Kind: sitexport.SourceProject, Value: "app.csproj"})

		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:5000", src.BaseURL)
		output := buf.String()
		assert.Contains(t, output, "source resolution")
		assert.Contains(t, output, "kind=project")
		assert.Contains(t, output, "source=app.csproj")
		assert.Contains(t, output, "base_url=http://127.0.0.1:5000")
		assert.Contains(t, output, "pid=4242")
	})

	t.Run("logs error code on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SourceResolver{
			ResolveFn: func(ctx context.Context, req *sitexport.ExportSourceRequest) (*sitexport.ResolvedSource, error) {
				return nil, sitexport.Errorf(sitexport.ETIMEOUT, "no listening URL")
			},
		}

		r := sxslog.NewLoggingResolver(inner, logger)
		_, err := r.Resolve(context.Background(), &sitexport.ExportSourceRequest{Kind: sitexport.SourceExecutable, Value: "./app"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=ERROR")
		assert.Contains(t, output, "code=timeout")
	})
}
