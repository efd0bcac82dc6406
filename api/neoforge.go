package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mrnavastar/mclaunch/util"
	"golang.org/x/mod/semver"
)

type NeoForgeVersion struct {
	Version     string
	McVersion   string
	FullVersion string
}

// Id is the version directory name the loader is installed under.
func (v NeoForgeVersion) Id() string {
	return "neoforge-" + v.FullVersion
}

func NewNeoForgeVersion(mcVersion string, version string) NeoForgeVersion {
	return NeoForgeVersion{Version: version, McVersion: mcVersion, FullVersion: mcVersion + "-" + version}
}

// NeoForgeLine maps a Minecraft version to the major.minor prefix NeoForge
// releases for it carry: 1.21.1 -> 21.1, 1.21 -> 21.0.
func NeoForgeLine(mcVersion string) string {
	parts := strings.Split(mcVersion, ".")
	if len(parts) < 2 {
		return ""
	}
	minor := "0"
	if len(parts) > 2 {
		minor = parts[2]
	}
	return parts[1] + "." + minor
}

// GetNeoForgeVersions lists releases for mcVersion, newest first.
func (c *Client) GetNeoForgeVersions(ctx context.Context, mcVersion string) ([]NeoForgeVersion, error) {
	body, err := c.get(ctx, c.Endpoints.NeoForgeVersions)
	if err != nil {
		return nil, fmt.Errorf("fetch neoforge versions: %w", err)
	}

	var manifest struct {
		Versions []string `json:"versions"`
	}
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("%w: neoforge versions: %v", util.ErrMalformed, err)
	}

	line := NeoForgeLine(mcVersion)
	var matching []string
	for _, v := range manifest.Versions {
		parts := strings.Split(v, ".")
		if len(parts) >= 2 && parts[0]+"."+parts[1] == line {
			matching = append(matching, v)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return semver.Compare("v"+matching[i], "v"+matching[j]) > 0
	})

	versions := make([]NeoForgeVersion, 0, len(matching))
	for _, v := range matching {
		versions = append(versions, NewNeoForgeVersion(mcVersion, v))
	}
	return versions, nil
}

func (c *Client) GetLatestNeoForgeVersion(ctx context.Context, mcVersion string) (NeoForgeVersion, error) {
	versions, err := c.GetNeoForgeVersions(ctx, mcVersion)
	if err != nil {
		return NeoForgeVersion{}, err
	}
	if len(versions) == 0 {
		return NeoForgeVersion{}, fmt.Errorf("no neoforge release for minecraft %s", mcVersion)
	}
	return versions[0], nil
}

func (c *Client) NeoForgeInstallerUrl(version string) string {
	return c.Endpoints.NeoForgeMaven + "/net/neoforged/neoforge/" + version + "/neoforge-" + version + "-installer.jar"
}

// LibraryMirrors lists the places a loader library is tried from, in order:
// its own declared url, Mojang, NeoForge, then the legacy Forge maven.
func (c *Client) LibraryMirrors(lib util.Library, rel string) []string {
	var urls []string
	if art := lib.Artifact(); art != nil && art.Url != "" {
		urls = append(urls, art.Url)
	} else if lib.Url != "" {
		urls = append(urls, strings.TrimSuffix(lib.Url, "/")+"/"+rel)
	}

	for _, base := range []string{c.Endpoints.MojangLibraries, c.Endpoints.NeoForgeMaven, c.Endpoints.ForgeMaven} {
		url := base + "/" + rel
		if !util.Contains(urls, url) {
			urls = append(urls, url)
		}
	}
	return urls
}
