package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
	"github.com/pelletier/go-toml/v2"
)

const disabledSuffix = ".disabled"

var ErrAddonNotFound = errors.New("no such mod or shaderpack")

// Addon is a mod jar or shaderpack zip in the game directory.
type Addon struct {
	File    string
	Name    string
	Version string
	Enabled bool
	Size    string
}

type ModJson struct {
	Id          string
	Version     string
	Name        string
	Description string
}

type modsToml struct {
	Mods []struct {
		ModId       string `toml:"modId"`
		Version     string `toml:"version"`
		DisplayName string `toml:"displayName"`
	} `toml:"mods"`
}

var versionSuffix = regexp.MustCompile(`[-_+]v?\d[\w.+-]*$`)

// readModInfo looks for fabric.mod.json and then META-INF/neoforge.mods.toml.
func readModInfo(path string) (ModJson, bool) {
	if content, err := fileutils.ReadEntry(path, "fabric.mod.json"); err == nil {
		var modJson ModJson
		content = []byte(strings.ReplaceAll(string(content), "\n", ""))
		if err1 := json.Unmarshal(content, &modJson); err1 == nil && modJson.Name != "" {
			return modJson, true
		}
	}

	if content, err := fileutils.ReadEntry(path, "META-INF/neoforge.mods.toml"); err == nil {
		var info modsToml
		if err1 := toml.Unmarshal(content, &info); err1 == nil && len(info.Mods) > 0 && info.Mods[0].DisplayName != "" {
			mod := info.Mods[0]
			return ModJson{Id: mod.ModId, Name: mod.DisplayName, Version: mod.Version}, true
		}
	}
	return ModJson{}, false
}

func nameFromFile(file string) string {
	name := strings.TrimSuffix(file, disabledSuffix)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if trimmed := versionSuffix.ReplaceAllString(name, ""); trimmed != "" {
		name = trimmed
	}
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

func scanAddons(dir string, ext string, inspect bool) ([]Addon, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Addon{}, nil
	}
	if err != nil {
		return nil, err
	}

	addons := make([]Addon, 0, len(entries))
	for _, entry := range entries {
		file := entry.Name()
		base := strings.TrimSuffix(file, disabledSuffix)
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(base), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		addon := Addon{
			File:    file,
			Name:    nameFromFile(file),
			Enabled: !strings.HasSuffix(file, disabledSuffix),
			Size:    util.HumanSize(info.Size()),
		}
		if inspect {
			if mod, ok := readModInfo(filepath.Join(dir, file)); ok {
				addon.Name = mod.Name
				addon.Version = mod.Version
			}
		}
		addons = append(addons, addon)
	}

	sort.Slice(addons, func(i, j int) bool {
		return strings.ToLower(addons[i].Name) < strings.ToLower(addons[j].Name)
	})
	return addons, nil
}

func (l *Launcher) ScanMods() ([]Addon, error) {
	return scanAddons(l.Layout.ModsDir(), ".jar", true)
}

func (l *Launcher) ScanShaderpacks() ([]Addon, error) {
	return scanAddons(l.Layout.ShaderpacksDir(), ".zip", false)
}

// toggleAddon flips file between enabled and disabled by renaming it and
// returns the new file name.
func toggleAddon(dir string, file string) (string, error) {
	if file == "" || file != filepath.Base(file) {
		return "", fmt.Errorf("%w: %q", ErrAddonNotFound, file)
	}
	from := filepath.Join(dir, file)
	if !fileutils.Exists(from) {
		return "", fmt.Errorf("%w: %q", ErrAddonNotFound, file)
	}

	to := file + disabledSuffix
	if strings.HasSuffix(file, disabledSuffix) {
		to = strings.TrimSuffix(file, disabledSuffix)
	}
	if fileutils.Exists(filepath.Join(dir, to)) {
		return "", fmt.Errorf("cannot toggle %s: %s already exists", file, to)
	}
	if err := os.Rename(from, filepath.Join(dir, to)); err != nil {
		return "", err
	}
	return to, nil
}

func (l *Launcher) ToggleMod(file string) (string, error) {
	to, err := toggleAddon(l.Layout.ModsDir(), file)
	if err == nil {
		l.Logger.Info("toggled mod", l.Logger.Args("from", file, "to", to))
	}
	return to, err
}

func (l *Launcher) ToggleShaderpack(file string) (string, error) {
	to, err := toggleAddon(l.Layout.ShaderpacksDir(), file)
	if err == nil {
		l.Logger.Info("toggled shaderpack", l.Logger.Args("from", file, "to", to))
	}
	return to, err
}
