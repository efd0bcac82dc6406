package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrnavastar/mclaunch/api"
	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
	"github.com/pterm/pterm"
)

var (
	ErrUnknownVersion      = errors.New("version is not listed in the manifest")
	ErrNotInstalled        = errors.New("version is not installed")
	ErrMissingInheritsFrom = errors.New("loader version does not name its vanilla parent")
)

// Launcher ties the game directory, remote catalogues and session state
// together. Install and launch progress, game output and exit are
// published on Progress and Game.
type Launcher struct {
	Api      *api.Client
	Layout   fileutils.Layout
	Platform util.Platform
	Logger   *pterm.Logger
	Progress *Broadcaster[util.ProgressEvent]
	Game     *Broadcaster[util.GameEvent]

	session *Session
}

func NewLauncher(client *api.Client, gameDir string, logger *pterm.Logger) *Launcher {
	if logger == nil {
		logger = util.DiscardLogger()
	}
	return &Launcher{
		Api:      client,
		Layout:   fileutils.Layout{GameDir: gameDir},
		Platform: util.CurrentPlatform(),
		Logger:   logger,
		Progress: NewBroadcaster[util.ProgressEvent](),
		Game:     NewBroadcaster[util.GameEvent](),
		session:  NewSession(),
	}
}

// GetVersionManifest returns the manifest, fetching it on first use only.
func (l *Launcher) GetVersionManifest(ctx context.Context) (util.VersionManifest, error) {
	return l.session.Manifest(ctx, l.Api.GetVersionManifest)
}

// GetVersions lists manifest entries of the given type, or all of them when
// versionType is empty.
func (l *Launcher) GetVersions(ctx context.Context, versionType string) ([]util.VersionSummary, error) {
	manifest, err := l.GetVersionManifest(ctx)
	if err != nil {
		return nil, err
	}
	if versionType == "" {
		return manifest.Versions, nil
	}

	var versions []util.VersionSummary
	for _, v := range manifest.Versions {
		if v.Type == versionType {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

func (l *Launcher) LatestRelease(ctx context.Context) (string, error) {
	manifest, err := l.GetVersionManifest(ctx)
	if err != nil {
		return "", err
	}
	return manifest.Latest.Release, nil
}

func (l *Launcher) InstalledVersions() ([]string, error) {
	return l.Layout.InstalledVersions()
}

func (l *Launcher) InstalledNeoForgeVersions() ([]string, error) {
	return l.Layout.InstalledNeoForgeVersions()
}

func (l *Launcher) DeleteVersion(id string) error {
	if err := l.Layout.DeleteVersion(id); err != nil {
		return err
	}
	l.Logger.Info("deleted version", l.Logger.Args("version", id))
	return nil
}

func (l *Launcher) readInstalled(id string) (util.VersionDetails, error) {
	if !l.Layout.HasDescriptor(id) {
		return util.VersionDetails{}, fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	return l.Layout.ReadVersion(id)
}
