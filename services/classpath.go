package services

import (
	"errors"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
)

var ErrEmptyClasspath = errors.New("no libraries found on disk, reinstall the version")

// libraryPath is the repository-relative location of lib's main jar.
func libraryPath(lib util.Library) (string, error) {
	if art := lib.Artifact(); art != nil && art.Path != "" {
		return art.Path, nil
	}
	return util.MavenPath(lib.Name)
}

type classpath struct {
	layout  fileutils.Layout
	entries []string
	seen    map[string]bool
}

func (c *classpath) add(path string) {
	if c.seen[path] || !fileutils.Exists(path) {
		return
	}
	c.seen[path] = true
	c.entries = append(c.entries, path)
}

func (c *classpath) addLibraries(libs []util.Library, p util.Platform) {
	for _, lib := range libs {
		if !util.IncludeLibrary(lib, p) {
			continue
		}
		rel, err := libraryPath(lib)
		if err != nil {
			continue
		}
		c.add(c.layout.Library(rel))
	}
}

// BuildClasspath lists the jars of every applicable library that exists on
// disk, in declaration order, followed by the version's client jar.
func BuildClasspath(details util.VersionDetails, layout fileutils.Layout, versionId string, p util.Platform) []string {
	c := &classpath{layout: layout, seen: map[string]bool{}}
	c.addLibraries(details.Libraries, p)
	c.add(layout.VersionJar(versionId))
	return c.entries
}

// BuildNeoForgeClasspath puts the loader's libraries ahead of vanilla's and
// ends with the vanilla client jar.
func BuildNeoForgeClasspath(loader util.VersionDetails, vanilla util.VersionDetails, layout fileutils.Layout, p util.Platform) []string {
	c := &classpath{layout: layout, seen: map[string]bool{}}
	c.addLibraries(loader.Libraries, p)
	c.addLibraries(vanilla.Libraries, p)

	parent := loader.InheritsFrom
	if parent == "" {
		parent = vanilla.Id
	}
	c.add(layout.VersionJar(parent))
	return c.entries
}
