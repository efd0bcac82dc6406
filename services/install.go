package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrnavastar/mclaunch/api"
	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
)

type InstallResult struct {
	VersionId  string
	Downloaded int
	Skipped    int
	Extracted  int
	Warnings   []string
}

// reporter maps stage-local percentages into a slice of the overall range
// and never lets the published percentage go backwards.
type reporter struct {
	publish func(util.ProgressEvent)
	lo, hi  float64
	last    *float64
}

func newReporter(publish func(util.ProgressEvent)) reporter {
	return reporter{publish: publish, lo: 0, hi: 100, last: new(float64)}
}

func (r reporter) sub(lo float64, hi float64) reporter {
	span := r.hi - r.lo
	return reporter{publish: r.publish, lo: r.lo + span*lo/100, hi: r.lo + span*hi/100, last: r.last}
}

func (r reporter) report(stage string, message string, percent float64) {
	percent = min(max(percent, 0), 100)
	overall := r.lo + (r.hi-r.lo)*percent/100
	if overall < *r.last {
		overall = *r.last
	}
	*r.last = overall
	r.publish(util.ProgressEvent{Stage: stage, Message: message, Percent: overall})
}

func fraction(done int, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(done) / float64(total)
}

// fetch downloads url to dest unless dest already exists.
func (l *Launcher) fetch(ctx context.Context, url string, dest string, res *InstallResult, onProgress func(size int64, total int64)) error {
	if fileutils.Exists(dest) {
		res.Skipped++
		return nil
	}
	l.Logger.Trace("downloading", l.Logger.Args("url", url, "dest", dest))
	if err := l.Api.Download(ctx, url, dest, onProgress); err != nil {
		return err
	}
	res.Downloaded++
	return nil
}

// Install downloads a vanilla version with its libraries and assets.
func (l *Launcher) Install(ctx context.Context, versionId string) (InstallResult, error) {
	res := InstallResult{VersionId: versionId}
	r := newReporter(l.Progress.Publish)

	if err := l.installVanilla(ctx, versionId, r, &res); err != nil {
		l.Logger.Error("install failed", l.Logger.Args("version", versionId, "error", err))
		return res, err
	}
	r.report("done", "Installed "+versionId, 100)
	l.Logger.Info("installed version", l.Logger.Args("version", versionId, "downloaded", res.Downloaded, "skipped", res.Skipped))
	return res, nil
}

func (l *Launcher) installVanilla(ctx context.Context, versionId string, r reporter, res *InstallResult) error {
	r.report("manifest", "Fetching version manifest", 0)
	manifest, err := l.GetVersionManifest(ctx)
	if err != nil {
		return err
	}
	summary, ok := manifest.Find(versionId)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVersion, versionId)
	}

	r.report("details", "Fetching version details", 5)
	details, raw, err := l.Api.GetVersionDetails(ctx, summary.Url)
	if err != nil {
		return err
	}
	if details.Downloads.Client == nil || details.Downloads.Client.Url == "" {
		return fmt.Errorf("%w: version %s has no client download", util.ErrMalformed, versionId)
	}
	if details.AssetIndex.Id == "" || details.AssetIndex.Url == "" {
		return fmt.Errorf("%w: version %s has no asset index", util.ErrMalformed, versionId)
	}
	if err := l.Layout.WriteVersion(versionId, raw); err != nil {
		return err
	}

	r.report("client", "Downloading client", 10)
	err = l.fetch(ctx, details.Downloads.Client.Url, l.Layout.VersionJar(versionId), res, func(size, total int64) {
		if total > 0 {
			r.report("client", "Downloading client", 10+20*float64(size)/float64(total))
		}
	})
	if err != nil {
		return fmt.Errorf("client jar: %w", err)
	}

	if err := l.installLibraries(ctx, details, r, res); err != nil {
		return err
	}
	return l.installAssets(ctx, details.AssetIndex, r, res)
}

func (l *Launcher) installLibraries(ctx context.Context, details util.VersionDetails, r reporter, res *InstallResult) error {
	var libs []util.Library
	for _, lib := range details.Libraries {
		if util.IncludeLibrary(lib, l.Platform) {
			libs = append(libs, lib)
		}
	}

	for i, lib := range libs {
		r.report("libraries", "Downloading "+lib.Name, 30+30*fraction(i, len(libs)))

		if art := lib.Artifact(); art != nil && art.Url != "" {
			rel, err := libraryPath(lib)
			if err != nil {
				return err
			}
			if err := l.fetch(ctx, art.Url, l.Layout.Library(rel), res, nil); err != nil {
				return fmt.Errorf("library %s: %w", lib.Name, err)
			}
		}

		if classifier, ok := util.NativeClassifier(lib, l.Platform); ok && lib.Downloads != nil {
			if native, ok := lib.Downloads.Classifiers[classifier]; ok && native.Url != "" && native.Path != "" {
				if err := l.fetch(ctx, native.Url, l.Layout.Library(native.Path), res, nil); err != nil {
					return fmt.Errorf("natives %s: %w", lib.Name, err)
				}
			}
		}
	}
	r.report("libraries", "Libraries ready", 60)
	return nil
}

func (l *Launcher) installAssets(ctx context.Context, index util.AssetIndexRef, r reporter, res *InstallResult) error {
	r.report("assets", "Fetching asset index", 60)
	indexPath := l.Layout.AssetIndex(index.Id)
	if err := l.fetch(ctx, index.Url, indexPath, res, nil); err != nil {
		return fmt.Errorf("asset index: %w", err)
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return err
	}
	hashes, err := fileutils.AssetHashes(data)
	if err != nil {
		return err
	}

	for i, hash := range hashes {
		if err := l.fetch(ctx, l.Api.AssetUrl(hash), l.Layout.AssetObject(hash), res, nil); err != nil {
			return fmt.Errorf("asset %s: %w", hash, err)
		}
		done := i + 1
		if done%100 == 0 || done == len(hashes) {
			r.report("assets", fmt.Sprintf("Downloading assets %d/%d", done, len(hashes)), 60+35*fraction(done, len(hashes)))
		}
	}
	r.report("assets", "Assets ready", 95)
	return nil
}

// InstallNeoForge installs the loader on top of its Minecraft version,
// installing that version first when it is missing.
func (l *Launcher) InstallNeoForge(ctx context.Context, version api.NeoForgeVersion) (InstallResult, error) {
	versionId := version.Id()
	res := InstallResult{VersionId: versionId}
	r := newReporter(l.Progress.Publish)

	loader := r
	if !l.Layout.IsInstalled(version.McVersion) {
		vanilla := InstallResult{VersionId: version.McVersion}
		if err := l.installVanilla(ctx, version.McVersion, r.sub(0, 50), &vanilla); err != nil {
			l.Logger.Error("install failed", l.Logger.Args("version", version.McVersion, "error", err))
			return res, err
		}
		res.Downloaded += vanilla.Downloaded
		res.Skipped += vanilla.Skipped
		loader = r.sub(50, 100)
	}

	if err := l.installLoader(ctx, version, loader, &res); err != nil {
		l.Logger.Error("neoforge install failed", l.Logger.Args("version", versionId, "error", err))
		return res, err
	}
	r.report("done", "Installed "+versionId, 100)
	l.Logger.Info("installed neoforge", l.Logger.Args("version", versionId, "warnings", len(res.Warnings)))
	return res, nil
}

func (l *Launcher) installLoader(ctx context.Context, version api.NeoForgeVersion, r reporter, res *InstallResult) error {
	versionId := version.Id()
	installer := filepath.Join(l.Layout.VersionDir(versionId), "neoforge-"+version.Version+"-installer.jar")

	r.report("download", "Downloading NeoForge installer", 5)
	err := l.fetch(ctx, l.Api.NeoForgeInstallerUrl(version.Version), installer, res, func(size, total int64) {
		if total > 0 {
			r.report("download", "Downloading NeoForge installer", 10+20*float64(size)/float64(total))
		}
	})
	if err != nil {
		return fmt.Errorf("installer: %w", err)
	}

	r.report("process", "Reading installer", 35)
	raw, err := fileutils.ReadEntry(installer, "version.json")
	if err != nil {
		return err
	}
	details, err := util.ParseVersionDetails(raw)
	if err != nil {
		return err
	}
	profileData, err := fileutils.ReadEntry(installer, "install_profile.json")
	if err != nil {
		return err
	}
	profile, err := util.ParseInstallProfile(profileData)
	if err != nil {
		return err
	}

	rewritten, err := fileutils.SetVersionIdentity(raw, versionId, version.McVersion)
	if err != nil {
		return err
	}
	if err := l.Layout.WriteVersion(versionId, rewritten); err != nil {
		return err
	}

	libs := append(append([]util.Library{}, details.Libraries...), profile.Libraries...)
	for i, lib := range libs {
		r.report("libraries", "Downloading "+lib.Name, 40+40*fraction(i, len(libs)))
		if !util.IncludeLibrary(lib, l.Platform) {
			continue
		}
		if err := l.fetchLoaderLibrary(ctx, lib, res); err != nil {
			return err
		}
	}

	r.report("extract", "Extracting installer libraries", 85)
	n, err := fileutils.ExtractPrefix(installer, "maven/", l.Layout.LibrariesDir())
	res.Extracted = n
	if err != nil {
		l.Logger.Warn("some installer libraries failed to extract", l.Logger.Args("error", err))
		res.Warnings = append(res.Warnings, err.Error())
	}

	if err := os.Remove(installer); err != nil {
		l.Logger.Debug("could not remove installer", l.Logger.Args("path", installer, "error", err))
	}
	return nil
}

// fetchLoaderLibrary tries each mirror in turn. Only context cancellation
// aborts; a library no mirror serves becomes a warning.
func (l *Launcher) fetchLoaderLibrary(ctx context.Context, lib util.Library, res *InstallResult) error {
	rel, err := libraryPath(lib)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
		return nil
	}
	dest := l.Layout.Library(rel)
	if fileutils.Exists(dest) {
		res.Skipped++
		return nil
	}

	for _, url := range l.Api.LibraryMirrors(lib, rel) {
		err = l.Api.Download(ctx, url, dest, nil)
		if err == nil {
			res.Downloaded++
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Logger.Trace("mirror failed", l.Logger.Args("library", lib.Name, "url", url, "error", err))
	}

	l.Logger.Warn("failed to download library", l.Logger.Args("library", lib.Name, "error", err))
	res.Warnings = append(res.Warnings, fmt.Sprintf("library %s: %v", lib.Name, err))
	return nil
}
