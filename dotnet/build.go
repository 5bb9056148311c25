package dotnet

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fwojciec/sitexport"
)

// Defaults for building and launching.
const (
	DefaultDotnetPath    = "dotnet"
	DefaultConfiguration = "Release"
	DefaultBindURL       = "http://127.0.0.1:0"
	urlsFlag             = "--urls"
)

// productionEnv is forced on the launched application so exported markup
// matches deployed behavior.
var productionEnv = map[string]string{
	"ASPNETCORE_ENVIRONMENT": "Production",
	"DOTNET_ENVIRONMENT":     "Production",
}

// Compile-time interface verification.
var _ sitexport.ProjectBuilder = (*Builder)(nil)

// Builder builds .NET projects and produces launch specs.
type Builder struct {
	Starter       sitexport.ProcessStarter
	Logger        *slog.Logger
	DotnetPath    string
	Configuration string
}

// NewBuilder returns a Builder that runs the dotnet CLI through starter.
func NewBuilder(starter sitexport.ProcessStarter, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{
		Starter:       starter,
		Logger:        logger,
		DotnetPath:    DefaultDotnetPath,
		Configuration: DefaultConfiguration,
	}
}

// ResolveLaunchRequest builds a project request (unless SkipBuild) and
// rewrites it to point at the produced executable. URL and executable
// requests are left untouched.
func (b *Builder) ResolveLaunchRequest(ctx context.Context, req *sitexport.ExportSourceRequest) error {
	if req.Kind != sitexport.SourceProject {
		return nil
	}

	projectFile, err := findProjectFile(req.Value)
	if err != nil {
		return err
	}
	assembly, err := AssemblyName(projectFile)
	if err != nil {
		return err
	}

	if !req.SkipBuild {
		if err := b.build(ctx, projectFile); err != nil {
			return err
		}
	}

	exe, err := LocateExecutable(filepath.Join(filepath.Dir(projectFile), "bin"), assembly)
	if err != nil {
		return err
	}
	b.Logger.Info("located executable", "assembly", assembly, "path", exe)

	req.Kind = sitexport.SourceExecutable
	req.Value = exe
	return nil
}

// build runs "dotnet build" and waits for it to finish.
func (b *Builder) build(ctx context.Context, projectFile string) error {
	exitCh := make(chan error, 1)
	spec := sitexport.ProcessLaunchSpec{
		FileName:   b.dotnet(),
		Arguments:  []string{"build", projectFile, "-c", b.configuration(), "--nologo"},
		WorkingDir: filepath.Dir(projectFile),
	}
	proc := b.Starter.Create(spec, sitexport.ProcessHooks{
		OnOutput: func(line string) { b.Logger.Debug("build", "line", line) },
		OnError:  func(line string) { b.Logger.Warn("build", "line", line) },
		OnExit:   func(err error) { exitCh <- err },
	})

	b.Logger.Info("building project", "project", projectFile, "configuration", b.configuration())
	if err := proc.Start(); err != nil {
		return err
	}
	defer proc.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-exitCh:
		if err != nil {
			return sitexport.Errorf(sitexport.EINVALID, "building %q: %v", projectFile, err)
		}
	}
	return nil
}

// LaunchSpec describes how to start an executable request. It forces a
// production environment and binds an ephemeral loopback port unless the
// caller already passed --urls.
func (b *Builder) LaunchSpec(req *sitexport.ExportSourceRequest) (sitexport.ProcessLaunchSpec, error) {
	if req.Kind != sitexport.SourceExecutable {
		return sitexport.ProcessLaunchSpec{}, sitexport.Errorf(sitexport.EINTERNAL, "launch spec requires an executable request, got %q", req.Kind)
	}

	exe, err := filepath.Abs(req.Value)
	if err != nil {
		return sitexport.ProcessLaunchSpec{}, err
	}

	spec := sitexport.ProcessLaunchSpec{
		FileName:   exe,
		WorkingDir: filepath.Dir(exe),
		Env:        make(map[string]string, len(productionEnv)),
	}
	if strings.EqualFold(filepath.Ext(exe), ".dll") {
		spec.FileName = b.dotnet()
		spec.Arguments = append(spec.Arguments, exe)
	}
	spec.Arguments = append(spec.Arguments, req.AppArgs...)
	if !HasURLsArgument(req.AppArgs) {
		spec.Arguments = append(spec.Arguments, urlsFlag, DefaultBindURL)
	}
	for k, v := range productionEnv {
		spec.Env[k] = v
	}
	return spec, nil
}

// HasURLsArgument reports whether args already specify a bind address,
// either as "--urls value" or "--urls=value".
func HasURLsArgument(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return strings.EqualFold(arg, urlsFlag) || strings.HasPrefix(strings.ToLower(arg), urlsFlag+"=")
	})
}

func (b *Builder) dotnet() string {
	if b.DotnetPath == "" {
		return DefaultDotnetPath
	}
	return b.DotnetPath
}

func (b *Builder) configuration() string {
	if b.Configuration == "" {
		return DefaultConfiguration
	}
	return b.Configuration
}
