package dotnet

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/sitexport"
	"golang.org/x/mod/semver"
)

// frameworkDir matches target-framework output folders such as net8.0,
// net9.0-windows or netcoreapp3.1.
var frameworkDir = regexp.MustCompile(`^net(?:coreapp)?(\d+)\.(\d+)(?:-.*)?$`)

// excludedDirs hold reference-only or intermediate assemblies.
var excludedDirs = map[string]bool{
	"ref":    true,
	"refint": true,
	"obj":    true,
}

type candidate struct {
	path      string
	framework string // semver form, e.g. v8.0; empty if unknown
	modTime   time.Time
}

// LocateExecutable scans root for the artifact produced for assembly.
// The highest target framework wins; ties are broken by the newest
// modification time, then by path.
func LocateExecutable(root, assembly string) (string, error) {
	names := map[string]bool{
		assembly:          true,
		assembly + ".exe": true,
		assembly + ".dll": true,
	}

	var candidates []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excludedDirs[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !names[d.Name()] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		candidates = append(candidates, candidate{
			path:      path,
			framework: frameworkVersion(root, path),
			modTime:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return "", sitexport.Errorf(sitexport.ENOTFOUND, "build output %q not found", root)
		}
		return "", err
	}
	if len(candidates) == 0 {
		return "", sitexport.Errorf(sitexport.ENOTFOUND, "no build output for %q under %q", assembly, root)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if c := semver.Compare(a.framework, b.framework); c != 0 {
			return c > 0
		}
		if !a.modTime.Equal(b.modTime) {
			return a.modTime.After(b.modTime)
		}
		return a.path < b.path
	})
	return candidates[0].path, nil
}

// frameworkVersion returns the semver form of the nearest target-framework
// folder between root and path.
func frameworkVersion(root, path string) string {
	dir := filepath.Dir(path)
	for dir != root && len(dir) >= len(root) {
		if m := frameworkDir.FindStringSubmatch(strings.ToLower(filepath.Base(dir))); m != nil {
			return "v" + m[1] + "." + m[2]
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
