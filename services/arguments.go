package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrnavastar/mclaunch/util"
)

const (
	LauncherName    = "mclaunch"
	LauncherVersion = "1.0.5"
)

// JvmContext holds the values JVM argument placeholders resolve to.
type JvmContext struct {
	NativesDirectory string
	LibraryDirectory string
	Classpath        []string
	VersionName      string
}

func (c JvmContext) values(p util.Platform) map[string]string {
	sep := p.ClasspathSeparator()
	return map[string]string{
		"natives_directory":   c.NativesDirectory,
		"launcher_name":       LauncherName,
		"launcher_version":    LauncherVersion,
		"classpath":           strings.Join(c.Classpath, sep),
		"library_directory":   c.LibraryDirectory,
		"classpath_separator": sep,
		"version_name":        c.VersionName,
	}
}

// GameContext holds the values game argument placeholders resolve to.
type GameContext struct {
	Username        string
	Uuid            string
	AccessToken     string
	VersionName     string
	VersionType     string
	GameDirectory   string
	AssetsRoot      string
	AssetsIndexName string
}

func (c GameContext) values() map[string]string {
	return map[string]string{
		"auth_player_name":  c.Username,
		"version_name":      c.VersionName,
		"game_directory":    c.GameDirectory,
		"assets_root":       c.AssetsRoot,
		"assets_index_name": c.AssetsIndexName,
		"auth_uuid":         c.Uuid,
		"auth_access_token": c.AccessToken,
		"user_type":         "msa",
		"version_type":      c.VersionType,
		"user_properties":   "{}",
		"clientid":          "",
		"auth_xuid":         "",
	}
}

type Memory struct {
	MinMB int
	MaxMB int
}

type Resolution struct {
	Width      int
	Height     int
	Fullscreen bool
}

// Substitute replaces every ${key} in template with values[key] in a single
// left-to-right pass. Substituted text is never rescanned and unknown keys
// are left as they are.
func Substitute(template string, values map[string]string) string {
	if !strings.Contains(template, "${") {
		return template
	}

	var b strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+2:], '}')
		if end < 0 {
			break
		}
		end += start + 2

		b.WriteString(rest[:start])
		if v, ok := values[rest[start+2:end]]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return b.String()
}

var moduleArg = regexp.MustCompile(`^[A-Za-z0-9._]+/[A-Za-z0-9._]+(=.*)?$`)

// localizePath converts forward slashes for Windows. Arguments shaped like
// module/package[=value] keep theirs, as do option names; a -Dkey=value
// option has only its value converted.
func localizePath(arg string, p util.Platform) string {
	if !p.IsWindows() || !strings.Contains(arg, "/") || moduleArg.MatchString(arg) {
		return arg
	}
	if strings.HasPrefix(arg, "-") {
		i := strings.IndexByte(arg, '=')
		if i < 0 || moduleArg.MatchString(arg[i+1:]) {
			return arg
		}
		return arg[:i+1] + strings.ReplaceAll(arg[i+1:], "/", `\`)
	}
	return strings.ReplaceAll(arg, "/", `\`)
}

func SubstituteJvmArg(template string, ctx JvmContext, p util.Platform) string {
	return localizePath(Substitute(template, ctx.values(p)), p)
}

func SubstituteGameArg(template string, ctx GameContext) string {
	return Substitute(template, ctx.values())
}

// expand evaluates argument rules and returns every value that applies.
func expand(args []util.Argument, p util.Platform) []string {
	var out []string
	for _, arg := range args {
		if util.ApplyArgumentRules(arg.Rules, p) {
			out = append(out, arg.Values...)
		}
	}
	return out
}

// BuildJvmArgs produces the JVM part of the command line: memory limits,
// native path and launcher identity, extra user arguments, then the
// version's own JVM arguments. Versions without structured arguments get a
// plain -cp.
func BuildJvmArgs(details util.VersionDetails, ctx JvmContext, memory Memory, extra []string, p util.Platform) []string {
	args := []string{
		"-Xms" + strconv.Itoa(memory.MinMB) + "M",
		"-Xmx" + strconv.Itoa(memory.MaxMB) + "M",
		localizePath("-Djava.library.path="+ctx.NativesDirectory, p),
		"-Dminecraft.launcher.brand=" + LauncherName,
		"-Dminecraft.launcher.version=" + LauncherVersion,
	}
	args = append(args, extra...)

	if details.Arguments != nil && len(details.Arguments.Jvm) > 0 {
		for _, template := range expand(details.Arguments.Jvm, p) {
			args = append(args, SubstituteJvmArg(template, ctx, p))
		}
		return args
	}

	return append(args, "-cp", localizePath(strings.Join(ctx.Classpath, p.ClasspathSeparator()), p))
}

// BuildGameArgs produces the game part of the command line from either the
// legacy flat template or the structured list, followed by the window size.
func BuildGameArgs(details util.VersionDetails, ctx GameContext, resolution *Resolution, p util.Platform) []string {
	var args []string

	if details.MinecraftArguments != "" {
		for _, token := range strings.Fields(details.MinecraftArguments) {
			args = append(args, SubstituteGameArg(token, ctx))
		}
	}
	if details.Arguments != nil {
		for _, template := range expand(details.Arguments.Game, p) {
			args = append(args, SubstituteGameArg(template, ctx))
		}
	}

	if resolution != nil {
		if resolution.Fullscreen {
			args = append(args, "--fullscreen")
		} else if resolution.Width > 0 && resolution.Height > 0 {
			args = append(args, "--width", strconv.Itoa(resolution.Width), "--height", strconv.Itoa(resolution.Height))
		}
	}
	return args
}
