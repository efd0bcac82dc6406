package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
)

type LaunchOptions struct {
	JavaPath   string
	VersionId  string
	Session    util.AuthSession
	Memory     Memory
	Resolution *Resolution
	JvmArgs    []string
}

// LaunchPlan is everything needed to start the game: the java binary, its
// working directory and the full argument list ending in game arguments.
type LaunchPlan struct {
	JavaPath   string
	Dir        string
	MainClass  string
	Classpath  []string
	NativesDir string
	Args       []string
}

// Prepare resolves an installed version into a launch plan. Loader versions
// are merged with the vanilla version they inherit from. Natives are
// extracted as a side effect.
func (l *Launcher) Prepare(opts LaunchOptions) (LaunchPlan, error) {
	details, err := l.readInstalled(opts.VersionId)
	if err != nil {
		return LaunchPlan{}, err
	}

	merged := details
	jvmVersionName := opts.VersionId
	var cp []string
	if details.InheritsFrom != "" || strings.HasPrefix(opts.VersionId, "neoforge-") {
		if details.InheritsFrom == "" {
			return LaunchPlan{}, fmt.Errorf("%w: %s", ErrMissingInheritsFrom, opts.VersionId)
		}
		vanilla, err1 := l.readInstalled(details.InheritsFrom)
		if err1 != nil {
			return LaunchPlan{}, fmt.Errorf("parent of %s: %w", opts.VersionId, err1)
		}
		merged = MergeVersions(details, vanilla)
		cp = BuildNeoForgeClasspath(details, vanilla, l.Layout, l.Platform)
		// NeoForge matches the vanilla jar by this name.
		jvmVersionName = details.InheritsFrom
	} else {
		cp = BuildClasspath(details, l.Layout, opts.VersionId, l.Platform)
	}

	nativesDir := l.Layout.NativesDir(opts.VersionId)
	l.extractNatives(merged.Libraries, nativesDir)

	if len(cp) == 0 {
		return LaunchPlan{}, ErrEmptyClasspath
	}

	memory := opts.Memory
	if memory.MinMB <= 0 {
		memory.MinMB = 1024
	}
	if memory.MaxMB <= 0 {
		memory.MaxMB = 4096
	}
	javaPath := opts.JavaPath
	if javaPath == "" {
		javaPath = "java"
	}

	jvm := BuildJvmArgs(merged, JvmContext{
		NativesDirectory: nativesDir,
		LibraryDirectory: l.Layout.LibrariesDir(),
		Classpath:        cp,
		VersionName:      jvmVersionName,
	}, memory, opts.JvmArgs, l.Platform)

	game := BuildGameArgs(merged, GameContext{
		Username:        opts.Session.Username,
		Uuid:            opts.Session.Uuid,
		AccessToken:     opts.Session.AccessToken,
		VersionName:     opts.VersionId,
		VersionType:     merged.Type,
		GameDirectory:   l.Layout.GameDir,
		AssetsRoot:      l.Layout.AssetsDir(),
		AssetsIndexName: merged.AssetIndex.Id,
	}, opts.Resolution, l.Platform)

	args := make([]string, 0, len(jvm)+1+len(game))
	args = append(args, jvm...)
	args = append(args, merged.MainClass)
	args = append(args, game...)

	return LaunchPlan{
		JavaPath:   javaPath,
		Dir:        l.Layout.GameDir,
		MainClass:  merged.MainClass,
		Classpath:  cp,
		NativesDir: nativesDir,
		Args:       args,
	}, nil
}

func (l *Launcher) extractNatives(libs []util.Library, nativesDir string) {
	for _, lib := range libs {
		if !util.IncludeLibrary(lib, l.Platform) || lib.Downloads == nil {
			continue
		}
		classifier, ok := util.NativeClassifier(lib, l.Platform)
		if !ok {
			continue
		}
		native, ok := lib.Downloads.Classifiers[classifier]
		if !ok || native.Path == "" {
			continue
		}

		archive := l.Layout.Library(native.Path)
		if !fileutils.Exists(archive) {
			continue
		}
		if _, err := fileutils.ExtractNatives(archive, nativesDir, lib.Excludes()); err != nil {
			l.Logger.Warn("native extraction failed", l.Logger.Args("library", lib.Name, "error", err))
		}
	}
}

// Launch starts the game and returns its pid. Output lines and the final
// exit are published on l.Game. Only one game may run at a time.
func (l *Launcher) Launch(ctx context.Context, opts LaunchOptions) (int, error) {
	if err := l.session.begin(); err != nil {
		return 0, err
	}

	plan, err := l.Prepare(opts)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		l.session.transition(Failed)
		return 0, err
	}

	l.session.transition(Launching)
	l.Logger.Debug("launching", l.Logger.Args("java", plan.JavaPath, "args", strings.Join(plan.Args, " ")))

	cmd := exec.Command(plan.JavaPath, plan.Args...)
	cmd.Dir = plan.Dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, l.spawnFailed(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, l.spawnFailed(err)
	}
	if err := cmd.Start(); err != nil {
		return 0, l.spawnFailed(err)
	}

	proc := &GameProcess{Pid: cmd.Process.Pid, cmd: cmd}
	l.session.attach(proc)
	l.Logger.Info("game started", l.Logger.Args("version", opts.VersionId, "pid", proc.Pid))

	go l.watch(proc, stdout, stderr)
	return proc.Pid, nil
}

func (l *Launcher) spawnFailed(err error) error {
	l.session.transition(Failed)
	l.Logger.Error("game failed to start", l.Logger.Args("error", err))
	l.Game.Publish(util.GameEvent{Kind: util.GameError, Err: err})
	return err
}

func (l *Launcher) watch(proc *GameProcess, stdout io.Reader, stderr io.Reader) {
	var wg sync.WaitGroup
	wg.Add(2)
	go l.stream(&wg, "stdout", stdout)
	go l.stream(&wg, "stderr", stderr)
	wg.Wait()

	code := 0
	if err := proc.cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	state := Idle
	if code != 0 && !l.session.wasKilled(proc) {
		state = Failed
	}
	l.session.release(proc, state)
	l.Logger.Info("game exited", l.Logger.Args("pid", proc.Pid, "code", code))
	l.Game.Publish(util.GameEvent{Kind: util.GameExit, Code: code})
}

func (l *Launcher) stream(wg *sync.WaitGroup, name string, r io.Reader) {
	defer wg.Done()
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			l.Game.Publish(util.GameEvent{Kind: util.GameLog, Stream: name, Line: line})
		}
		if err != nil {
			return
		}
	}
}

// Kill terminates the running game. The slot is freed immediately; the exit
// event still follows once the process is gone.
func (l *Launcher) Kill() error {
	proc := l.session.detach()
	if proc == nil {
		return ErrNotRunning
	}
	l.Logger.Info("killing game", l.Logger.Args("pid", proc.Pid))
	return proc.cmd.Process.Kill()
}

func (l *Launcher) IsRunning() bool {
	return l.session.process() != nil
}

func (l *Launcher) State() LaunchState {
	return l.session.State()
}
