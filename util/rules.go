package util

import (
	"runtime"
	"strings"
)

// Platform is the OS/architecture pair rules are evaluated against. OS uses
// Mojang's names: windows, osx, linux.
type Platform struct {
	OS   string
	Arch string
}

func CurrentPlatform() Platform {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

func PlatformFor(goos string, goarch string) Platform {
	var p Platform
	switch goos {
	case "windows":
		p.OS = "windows"
	case "darwin":
		p.OS = "osx"
	default:
		p.OS = "linux"
	}

	switch goarch {
	case "amd64":
		p.Arch = "x64"
	case "arm64":
		p.Arch = "arm64"
	default:
		p.Arch = "x86"
	}
	return p
}

func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

func (p Platform) ClasspathSeparator() string {
	if p.IsWindows() {
		return ";"
	}
	return ":"
}

// Bits is the value legacy native classifiers use for ${arch}.
func (p Platform) Bits() string {
	if p.Arch == "x86" {
		return "32"
	}
	return "64"
}

func (p Platform) matches(os *OsRule) bool {
	if os == nil {
		return true
	}
	if os.Name != "" && os.Name != p.OS {
		return false
	}
	if os.Arch != "" && os.Arch != p.Arch {
		return false
	}
	return true
}

// IncludeLibrary reports whether lib applies on p. The last matching rule
// decides; a rule list where nothing matched leaves the library included.
func IncludeLibrary(lib Library, p Platform) bool {
	if len(lib.Rules) == 0 {
		return true
	}

	include := true
	for _, rule := range lib.Rules {
		if p.matches(rule.Os) {
			include = rule.Action == "allow"
		}
	}
	return include
}

// ApplyArgumentRules reports whether a guarded argument is emitted on p.
// The last matching rule decides and an unmatched list keeps the argument.
// An allow rule scoped to another platform counts as a drop, while a
// disallow rule scoped elsewhere is ignored. Feature-gated arguments are
// never emitted.
func ApplyArgumentRules(rules []Rule, p Platform) bool {
	if len(rules) == 0 {
		return true
	}

	apply := true
	for _, rule := range rules {
		if len(rule.Features) > 0 {
			return false
		}
		if p.matches(rule.Os) {
			apply = rule.Action == "allow"
		} else if rule.Action == "allow" {
			apply = false
		}
	}
	return apply
}

// NativeClassifier returns the classifier holding lib's natives for p.
func NativeClassifier(lib Library, p Platform) (string, bool) {
	classifier, ok := lib.Natives[p.OS]
	if !ok || classifier == "" {
		return "", false
	}
	return strings.ReplaceAll(classifier, "${arch}", p.Bits()), true
}
