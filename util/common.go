package util

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pterm/pterm"
)

func Contains(list []string, str string) bool {
	for _, v := range list {
		if v == str {
			return true
		}
	}
	return false
}

func Fatal(err error) {
	if err != nil {
		pterm.Fatal.Println(err)
	}
}

// MavenPath turns group:artifact:version[:classifier[:extension]] into a
// repository-relative path. A trailing @ext on the coordinate also sets the
// extension.
func MavenPath(name string) (string, error) {
	extension := "jar"
	if i := strings.LastIndex(name, "@"); i >= 0 {
		extension = name[i+1:]
		name = name[:i]
	}

	parts := strings.Split(name, ":")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("%w: maven coordinate %q", ErrMalformed, name)
	}
	if len(parts) > 4 && parts[4] != "" {
		extension = parts[4]
	}

	group := strings.ReplaceAll(parts[0], ".", "/")
	artifact, version := parts[1], parts[2]
	file := artifact + "-" + version
	if len(parts) > 3 && parts[3] != "" {
		file += "-" + parts[3]
	}
	return group + "/" + artifact + "/" + version + "/" + file + "." + extension, nil
}

var logLevels = map[string]pterm.LogLevel{
	"trace": pterm.LogLevelTrace,
	"debug": pterm.LogLevelDebug,
	"info":  pterm.LogLevelInfo,
	"warn":  pterm.LogLevelWarn,
	"error": pterm.LogLevelError,
	"off":   pterm.LogLevelDisabled,
}

// NewLogger builds a structured logger writing to w. Unknown levels fall
// back to info.
func NewLogger(level string, w io.Writer) *pterm.Logger {
	l, ok := logLevels[strings.ToLower(level)]
	if !ok {
		l = pterm.LogLevelInfo
	}
	return pterm.DefaultLogger.WithLevel(l).WithWriter(w)
}

// DiscardLogger drops everything; components fall back to it when no logger
// is configured.
func DiscardLogger() *pterm.Logger {
	return NewLogger("off", io.Discard)
}

func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

func HumanSize(bytes int64) string {
	mb := float64(bytes) / (1024 * 1024)
	if mb >= 1 {
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.0f KB", float64(bytes)/1024)
}
