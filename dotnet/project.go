// Package dotnet builds .NET projects and describes how to launch the
// resulting application for export.
package dotnet

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/sitexport"
)

// AssemblyName returns the assembly name declared in a project file,
// falling back to the file name without extension.
func AssemblyName(projectPath string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(projectPath), filepath.Ext(projectPath))

	data, err := os.ReadFile(projectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", sitexport.Errorf(sitexport.ENOTFOUND, "project file %q not found", projectPath)
		}
		return "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return stem, nil
	}
	root := doc.Root()
	if root == nil {
		return stem, nil
	}

	for _, group := range root.SelectElements("PropertyGroup") {
		el := group.SelectElement("AssemblyName")
		if el == nil {
			continue
		}
		name := strings.TrimSpace(el.Text())
		// MSBuild property references cannot be evaluated here.
		if name != "" && !strings.Contains(name, "$(") {
			return name, nil
		}
	}
	return stem, nil
}

// findProjectFile resolves a directory to the single project file it contains.
func findProjectFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", sitexport.Errorf(sitexport.ENOTFOUND, "project %q not found", path)
		}
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*.csproj"))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", sitexport.Errorf(sitexport.ENOTFOUND, "no project file in %q", path)
	case 1:
		return matches[0], nil
	}
	return "", sitexport.Errorf(sitexport.EINVALID, "multiple project files in %q; specify one", path)
}
