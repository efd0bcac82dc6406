package fileutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/mrnavastar/mclaunch/util"
)

var ErrVersionNotFound = errors.New("version directory does not exist")

// Layout resolves paths inside a game directory.
type Layout struct {
	GameDir string
}

func (l Layout) VersionsDir() string {
	return filepath.Join(l.GameDir, "versions")
}

func (l Layout) VersionDir(id string) string {
	return filepath.Join(l.GameDir, "versions", id)
}

func (l Layout) VersionJson(id string) string {
	return filepath.Join(l.VersionDir(id), id+".json")
}

func (l Layout) VersionJar(id string) string {
	return filepath.Join(l.VersionDir(id), id+".jar")
}

func (l Layout) NativesDir(id string) string {
	return filepath.Join(l.VersionDir(id), "natives")
}

func (l Layout) LibrariesDir() string {
	return filepath.Join(l.GameDir, "libraries")
}

// Library maps a repository-relative path (always slash separated) into the
// library store.
func (l Layout) Library(rel string) string {
	return filepath.Join(l.LibrariesDir(), filepath.FromSlash(rel))
}

func (l Layout) AssetsDir() string {
	return filepath.Join(l.GameDir, "assets")
}

func (l Layout) AssetIndex(id string) string {
	return filepath.Join(l.AssetsDir(), "indexes", id+".json")
}

func (l Layout) AssetObject(hash string) string {
	return filepath.Join(l.AssetsDir(), "objects", hash[:2], hash)
}

func (l Layout) ModsDir() string {
	return filepath.Join(l.GameDir, "mods")
}

func (l Layout) ShaderpacksDir() string {
	return filepath.Join(l.GameDir, "shaderpacks")
}

// IsInstalled requires both the descriptor and the client jar.
func (l Layout) IsInstalled(id string) bool {
	return Exists(l.VersionJson(id)) && Exists(l.VersionJar(id))
}

func (l Layout) HasDescriptor(id string) bool {
	return Exists(l.VersionJson(id))
}

func (l Layout) listVersions(keep func(id string) bool) ([]string, error) {
	entries, err := os.ReadDir(l.VersionsDir())
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() && keep(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// InstalledVersions lists versions with both a descriptor and a client jar.
// NeoForge versions never have a jar of their own and are listed by
// InstalledNeoForgeVersions instead.
func (l Layout) InstalledVersions() ([]string, error) {
	return l.listVersions(l.IsInstalled)
}

func (l Layout) InstalledNeoForgeVersions() ([]string, error) {
	return l.listVersions(func(id string) bool {
		return strings.HasPrefix(id, "neoforge-") && l.HasDescriptor(id)
	})
}

func (l Layout) DeleteVersion(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid version id %q", id)
	}
	dir := l.VersionDir(id)
	if !Exists(dir) {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}
	return os.RemoveAll(dir)
}

func (l Layout) ReadVersion(id string) (util.VersionDetails, error) {
	data, err := os.ReadFile(l.VersionJson(id))
	if err != nil {
		return util.VersionDetails{}, err
	}
	return util.ParseVersionDetails(data)
}

// WriteVersion stores the descriptor exactly as given.
func (l Layout) WriteVersion(id string, raw []byte) error {
	return WriteFile(l.VersionJson(id), raw)
}

// SetVersionIdentity rewrites id and, when the document has none,
// inheritsFrom in a raw descriptor while leaving every other byte alone.
func SetVersionIdentity(raw []byte, id string, inheritsFrom string) ([]byte, error) {
	idValue, _ := json.Marshal(id)
	out, err := jsonparser.Set(raw, idValue, "id")
	if err != nil {
		return nil, fmt.Errorf("%w: set id: %v", util.ErrMalformed, err)
	}

	if current, err1 := jsonparser.GetString(out, "inheritsFrom"); err1 == nil && current != "" {
		return out, nil
	}
	parentValue, _ := json.Marshal(inheritsFrom)
	out, err = jsonparser.Set(out, parentValue, "inheritsFrom")
	if err != nil {
		return nil, fmt.Errorf("%w: set inheritsFrom: %v", util.ErrMalformed, err)
	}
	return out, nil
}

// AssetHashes lists the object hashes of an asset index in document order.
func AssetHashes(index []byte) ([]string, error) {
	var hashes []string
	var bad error
	err := jsonparser.ObjectEach(index, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		hash, err := jsonparser.GetString(value, "hash")
		if err != nil || !isSha1Hex(hash) {
			bad = fmt.Errorf("%w: asset %s has no usable hash", util.ErrMalformed, key)
			return bad
		}
		hashes = append(hashes, hash)
		return nil
	}, "objects")
	if bad != nil {
		return nil, bad
	}
	if err != nil {
		return nil, fmt.Errorf("%w: asset index: %v", util.ErrMalformed, err)
	}
	return hashes, nil
}

// isSha1Hex accepts exactly 40 lowercase hex digits, the only form an asset
// hash may take before it becomes part of a path.
func isSha1Hex(hash string) bool {
	if len(hash) != 40 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
