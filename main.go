package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/text"
	"github.com/mrnavastar/mclaunch/api"
	"github.com/mrnavastar/mclaunch/config"
	"github.com/mrnavastar/mclaunch/services"
	"github.com/mrnavastar/mclaunch/slp"
	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
	"github.com/pterm/pterm"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

type env struct {
	configPath string
	settings   config.Settings
	logger     *pterm.Logger
	client     *api.Client
	launcher   *services.Launcher
	accounts   *fileutils.AccountStore
}

var app env

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		pterm.Warning.Println("could not read .env: " + err.Error())
	}

	cliApp := &cli.App{
		Name:  "mclaunch",
		Usage: "Install and launch Minecraft from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "settings file", Value: config.DefaultPath(), EnvVars: []string{"MCLAUNCH_CONFIG"}},
			&cli.StringFlag{Name: "game-dir", Usage: "override the game directory", EnvVars: []string{"MCLAUNCH_GAME_DIR"}},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn, error or off", EnvVars: []string{"MCLAUNCH_LOG_LEVEL"}},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:  "versions",
				Usage: "List available Minecraft versions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "release, snapshot, old_beta or old_alpha; empty for all", Value: "release", EnvVars: []string{"MCLAUNCH_VERSION_TYPE"}},
				},
				Action: func(c *cli.Context) error {
					versions, err := app.launcher.GetVersions(c.Context, c.String("type"))
					if err != nil {
						return err
					}
					rows := make([][]string, 0, len(versions))
					for _, v := range versions {
						rows = append(rows, []string{v.Id, v.Type, v.ReleaseTime})
					}
					printTable([]string{"ID:", "TYPE:", "RELEASED:"}, rows)
					return nil
				},
			},
			{
				Name:    "installed",
				Aliases: []string{"ls"},
				Usage:   "List installed versions",
				Action: func(c *cli.Context) error {
					vanilla, err := app.launcher.InstalledVersions()
					if err != nil {
						return err
					}
					neoforge, err1 := app.launcher.InstalledNeoForgeVersions()
					if err1 != nil {
						return err1
					}

					var rows [][]string
					for _, id := range vanilla {
						rows = append(rows, []string{id, "vanilla", selectedMark(id)})
					}
					for _, id := range neoforge {
						rows = append(rows, []string{id, "neoforge", selectedMark(id)})
					}
					if len(rows) == 0 {
						pterm.Info.Println("Nothing installed yet")
						return nil
					}
					printTable([]string{"ID:", "LOADER:", ""}, rows)
					return nil
				},
			},
			{
				Name:      "install",
				Usage:     "Install a Minecraft version",
				ArgsUsage: "<version|latest>",
				Action: func(c *cli.Context) error {
					id := c.Args().Get(0)
					if id == "" || id == "latest" {
						latest, err := app.launcher.LatestRelease(c.Context)
						if err != nil {
							return err
						}
						id = latest
					}

					res, err := withProgress("Installing "+id, func() (services.InstallResult, error) {
						return app.launcher.Install(c.Context, id)
					})
					if err != nil {
						return err
					}
					pterm.Success.Printf("Installed %s (%d downloaded, %d already present)\n", id, res.Downloaded, res.Skipped)
					return nil
				},
			},
			{
				Name:      "neoforge-versions",
				Usage:     "List NeoForge releases for a Minecraft version",
				ArgsUsage: "<minecraft version>",
				Action: func(c *cli.Context) error {
					mc := c.Args().Get(0)
					if mc == "" {
						return errors.New("a minecraft version is required")
					}
					versions, err := app.client.GetNeoForgeVersions(c.Context, mc)
					if err != nil {
						return err
					}
					if len(versions) == 0 {
						pterm.Info.Println("No NeoForge releases for " + mc)
						return nil
					}
					rows := make([][]string, 0, len(versions))
					for _, v := range versions {
						rows = append(rows, []string{v.Version, v.Id()})
					}
					printTable([]string{"VERSION:", "ID:"}, rows)
					return nil
				},
			},
			{
				Name:      "install-neoforge",
				Usage:     "Install NeoForge, and its Minecraft version if needed",
				ArgsUsage: "<minecraft version> [neoforge version]",
				Action: func(c *cli.Context) error {
					mc := c.Args().Get(0)
					if mc == "" {
						return errors.New("a minecraft version is required")
					}

					version := api.NewNeoForgeVersion(mc, c.Args().Get(1))
					if version.Version == "" {
						latest, err := app.client.GetLatestNeoForgeVersion(c.Context, mc)
						if err != nil {
							return err
						}
						version = latest
					}

					res, err := withProgress("Installing "+version.Id(), func() (services.InstallResult, error) {
						return app.launcher.InstallNeoForge(c.Context, version)
					})
					if err != nil {
						return err
					}
					for _, warning := range res.Warnings {
						pterm.Warning.Println(warning)
					}
					pterm.Success.Println("Installed " + version.Id())
					return nil
				},
			},
			{
				Name:      "select",
				Usage:     "Choose the version launch uses by default",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					id := c.Args().Get(0)
					if !app.launcher.Layout.HasDescriptor(id) {
						return fmt.Errorf("%w: %s", services.ErrNotInstalled, id)
					}
					app.settings.SelectedVersion = id
					if err := config.Save(app.configPath, app.settings); err != nil {
						return err
					}
					pterm.Success.Println("Selected " + id)
					return nil
				},
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove an installed version",
				ArgsUsage: "<version>",
				Action: func(c *cli.Context) error {
					id := c.Args().Get(0)
					if err := app.launcher.DeleteVersion(id); err != nil {
						if errors.Is(err, fileutils.ErrVersionNotFound) {
							pterm.Warning.Println(id + " is not installed")
							return nil
						}
						return err
					}
					pterm.Success.Println("Removed " + id)
					return nil
				},
			},
			{
				Name:      "launch",
				Aliases:   []string{"play"},
				Usage:     "Start the game and stream its output",
				ArgsUsage: "[version]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "java", Usage: "java binary", EnvVars: []string{"MCLAUNCH_JAVA"}},
					&cli.IntFlag{Name: "min-memory", Usage: "initial heap in MB", EnvVars: []string{"MCLAUNCH_MIN_MEMORY"}},
					&cli.IntFlag{Name: "max-memory", Usage: "maximum heap in MB", EnvVars: []string{"MCLAUNCH_MAX_MEMORY"}},
					&cli.BoolFlag{Name: "fullscreen", EnvVars: []string{"MCLAUNCH_FULLSCREEN"}},
				},
				Action: launch,
			},
			{
				Name:  "login",
				Usage: "Sign in with a Microsoft account",
				Action: func(c *cli.Context) error {
					auth := newAuthenticator()
					events, unsubscribe := auth.Events.Subscribe()
					go func() {
						for e := range events {
							if e.State == util.AuthDeviceCodeRequested {
								pterm.Info.Printf("Open %s and enter the code %s\n", e.VerificationUri, text.Bold.Sprint(e.UserCode))
							}
						}
					}()
					defer unsubscribe()

					session, err := auth.Login(c.Context)
					if err != nil {
						return err
					}
					if err := app.accounts.Save(session); err != nil {
						return err
					}
					pterm.Success.Println("Logged in as " + session.Username)
					return nil
				},
			},
			{
				Name:  "refresh",
				Usage: "Renew the saved Microsoft session",
				Action: func(c *cli.Context) error {
					session, err := app.accounts.Load()
					if err != nil {
						return err
					}
					if session.Type != util.Microsoft {
						pterm.Info.Println("Offline accounts do not need refreshing")
						return nil
					}
					refreshed, err := refresh(c.Context, session)
					if err != nil {
						return err
					}
					pterm.Success.Printf("Session for %s valid until %s\n", refreshed.Username, refreshed.ExpiresAt.Local().Format(time.RFC1123))
					return nil
				},
			},
			{
				Name:      "offline",
				Usage:     "Play without a Microsoft account",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					session, err := services.OfflineSession(c.Args().Get(0))
					if err != nil {
						return err
					}
					if err := app.accounts.Save(session); err != nil {
						return err
					}
					pterm.Success.Println("Playing offline as " + session.Username)
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Forget the saved account",
				Action: func(c *cli.Context) error {
					if err := app.accounts.Clear(); err != nil {
						return err
					}
					pterm.Success.Println("Logged out")
					return nil
				},
			},
			{
				Name:      "ping",
				Usage:     "Query a server's status",
				ArgsUsage: "[host[:port]]",
				Action:    ping,
			},
			{
				Name:  "mods",
				Usage: "List mods, or shaderpacks with --shaders",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shaders", Usage: "list shaderpacks instead"},
				},
				Action: func(c *cli.Context) error {
					var addons []services.Addon
					var err error
					if c.Bool("shaders") {
						addons, err = app.launcher.ScanShaderpacks()
					} else {
						addons, err = app.launcher.ScanMods()
					}
					if err != nil {
						return err
					}
					if len(addons) == 0 {
						pterm.Info.Println("Nothing found in " + app.launcher.Layout.GameDir)
						return nil
					}

					rows := make([][]string, 0, len(addons))
					for _, a := range addons {
						state := "enabled"
						if !a.Enabled {
							state = "disabled"
						}
						rows = append(rows, []string{a.Name, a.Version, state, a.Size, a.File})
					}
					printTable([]string{"NAME:", "VERSION:", "STATE:", "SIZE:", "FILENAME:"}, rows)
					return nil
				},
			},
			{
				Name:      "toggle",
				Usage:     "Enable or disable a mod or shaderpack by file name",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "shaders", Usage: "toggle a shaderpack"},
				},
				Action: func(c *cli.Context) error {
					file := c.Args().Get(0)
					toggle := app.launcher.ToggleMod
					if c.Bool("shaders") {
						toggle = app.launcher.ToggleShaderpack
					}
					to, err := toggle(file)
					if err != nil {
						return err
					}
					if strings.HasSuffix(to, ".disabled") {
						pterm.Success.Println("Disabled " + file)
					} else {
						pterm.Success.Println("Enabled " + to)
					}
					return nil
				},
			},
			{
				Name:  "java",
				Usage: "List Java installations found on this machine",
				Action: func(c *cli.Context) error {
					found := services.FindJava(app.launcher.Layout.GameDir)
					if len(found) == 0 {
						pterm.Warning.Println("No Java installation found, set java_path in " + app.configPath)
						return nil
					}
					for _, path := range found {
						fmt.Println(path)
					}
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		util.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	app.configPath = c.String("config")
	settings, err := config.Load(app.configPath)
	if err != nil {
		return err
	}
	if dir := c.String("game-dir"); dir != "" {
		settings.GameDir = dir
	}
	if level := c.String("log-level"); level != "" {
		settings.LogLevel = level
	}
	app.settings = settings

	app.logger = util.NewLogger(settings.LogLevel, os.Stderr)
	app.client = api.NewClient(api.DefaultEndpoints(), settings.HttpTimeout(), settings.Http.Retries)
	app.launcher = services.NewLauncher(app.client, settings.GameDir, app.logger)
	app.accounts = fileutils.NewAccountStore()
	return nil
}

func selectedMark(id string) string {
	if id == app.settings.SelectedVersion {
		return "*"
	}
	return ""
}

func printTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	fmt.Println()
	line := ""
	for i, h := range header {
		line += text.AlignDefault.Apply(h, widths[i]+2)
	}
	fmt.Println(text.Bold.Sprint(line))
	for _, row := range rows {
		line = ""
		for i, cell := range row {
			line += text.AlignDefault.Apply(cell, widths[i]+2)
		}
		fmt.Println(line)
	}
	fmt.Println()
}

// withProgress renders install progress events as a bar while run works.
func withProgress(title string, run func() (services.InstallResult, error)) (services.InstallResult, error) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(title),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	events, unsubscribe := app.launcher.Progress.Subscribe()
	done := make(chan struct{})
	go func() {
		for e := range events {
			bar.Describe(e.Message)
			bar.Set(int(e.Percent))
		}
		close(done)
	}()

	res, err := run()
	unsubscribe()
	<-done
	bar.Finish()
	return res, err
}

func newAuthenticator() *services.Authenticator {
	auth := services.NewAuthenticator(app.client, app.logger)
	auth.Invalidate = app.accounts.Clear
	return auth
}

func refresh(ctx context.Context, session util.AuthSession) (util.AuthSession, error) {
	refreshed, err := newAuthenticator().Refresh(ctx, session.RefreshToken)
	if err != nil {
		return util.AuthSession{}, fmt.Errorf("session expired, run login again: %w", err)
	}
	if err := app.accounts.Save(refreshed); err != nil {
		return util.AuthSession{}, err
	}
	return refreshed, nil
}

func launch(c *cli.Context) error {
	id := c.Args().Get(0)
	if id == "" {
		id = app.settings.SelectedVersion
	}
	if id == "" {
		return errors.New("no version given and none selected")
	}

	session, err := app.accounts.Load()
	if errors.Is(err, fileutils.ErrNoAccount) {
		return errors.New("not logged in, run login or offline first")
	}
	if err != nil {
		return err
	}
	if session.Type == util.Microsoft && session.Expired(time.Now()) {
		if session, err = refresh(c.Context, session); err != nil {
			return err
		}
	}

	opts := services.LaunchOptions{
		JavaPath:  firstNonEmpty(c.String("java"), app.settings.JavaPath),
		VersionId: id,
		Session:   session,
		Memory: services.Memory{
			MinMB: firstPositive(c.Int("min-memory"), app.settings.Memory.MinMB),
			MaxMB: firstPositive(c.Int("max-memory"), app.settings.Memory.MaxMB),
		},
		Resolution: &services.Resolution{
			Width:      app.settings.Resolution.Width,
			Height:     app.settings.Resolution.Height,
			Fullscreen: app.settings.Resolution.Fullscreen || c.Bool("fullscreen"),
		},
		JvmArgs: app.settings.JvmArgs,
	}

	events, unsubscribe := app.launcher.Game.Subscribe()
	defer unsubscribe()

	pid, err := app.launcher.Launch(c.Context, opts)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Started %s as %s (pid %d)\n", id, session.Username, pid)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	for {
		select {
		case <-interrupt:
			pterm.Warning.Println("Stopping the game")
			if err := app.launcher.Kill(); err != nil && !errors.Is(err, services.ErrNotRunning) {
				return err
			}
		case e := <-events:
			switch e.Kind {
			case util.GameLog:
				if e.Stream == "stderr" {
					fmt.Fprintln(os.Stderr, e.Line)
				} else {
					fmt.Println(e.Line)
				}
			case util.GameError:
				return e.Err
			case util.GameExit:
				if e.Code != 0 {
					pterm.Warning.Printf("Game exited with code %d\n", e.Code)
				} else {
					pterm.Info.Println("Game closed")
				}
				return nil
			}
		}
	}
}

func ping(c *cli.Context) error {
	host := app.settings.Server.Host
	port := app.settings.Server.Port
	if arg := c.Args().Get(0); arg != "" {
		host, port = splitHostPort(arg, slp.DefaultPort)
	}
	if host == "" {
		return errors.New("no server given and server.host is not set")
	}

	status := slp.NewPinger(app.settings.PingTimeout(), app.logger).Ping(c.Context, host, port)
	if !status.Online {
		pterm.Error.Printf("%s:%d is offline: %s\n", status.Host, status.Port, status.Error)
		return nil
	}

	pterm.Success.Printf("%s:%d is online (%d ms)\n", status.Host, status.Port, status.Ping.Milliseconds())
	if status.Description != "" {
		fmt.Println(text.AlignDefault.Apply("MOTD:", 10) + status.Description)
	}
	if status.Version != nil {
		fmt.Println(text.AlignDefault.Apply("VERSION:", 10) + status.Version.Name)
	}
	if status.Players != nil {
		fmt.Println(text.AlignDefault.Apply("PLAYERS:", 10) + strconv.Itoa(status.Players.Online) + "/" + strconv.Itoa(status.Players.Max))
		for _, p := range status.Players.Sample {
			fmt.Println(text.AlignDefault.Apply("", 10) + p.Name)
		}
	}
	return nil
}

func splitHostPort(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
