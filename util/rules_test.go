package util

import "testing"

var linux = Platform{OS: "linux", Arch: "x64"}

func TestIncludeLibrary(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		want  bool
	}{
		{"no rules", nil, true},
		{"last match wins", []Rule{{Action: "disallow"}, {Action: "allow", Os: &OsRule{Name: "linux"}}}, true},
		{"other os never matches", []Rule{{Action: "allow", Os: &OsRule{Name: "linux"}}, {Action: "disallow", Os: &OsRule{Name: "osx"}}}, true},
		{"disallowed on current os", []Rule{{Action: "allow"}, {Action: "disallow", Os: &OsRule{Name: "linux"}}}, false},
		{"nothing matched", []Rule{{Action: "disallow", Os: &OsRule{Name: "windows"}}}, true},
		{"arch mismatch", []Rule{{Action: "disallow", Os: &OsRule{Name: "linux", Arch: "x86"}}}, true},
		{"arch match", []Rule{{Action: "disallow", Os: &OsRule{Name: "linux", Arch: "x64"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IncludeLibrary(Library{Name: "a:b:1", Rules: tt.rules}, linux)
			if got != tt.want {
				t.Fatalf("IncludeLibrary = %v, want %v", got, tt.want)
			}
			if again := IncludeLibrary(Library{Name: "a:b:1", Rules: tt.rules}, linux); again != got {
				t.Fatal("IncludeLibrary is not deterministic")
			}
		})
	}
}

func TestApplyArgumentRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		want  bool
	}{
		{"no rules", nil, true},
		{"os match", []Rule{{Action: "allow", Os: &OsRule{Name: "linux"}}}, true},
		{"os mismatch", []Rule{{Action: "allow", Os: &OsRule{Name: "osx"}}}, false},
		{"arch only", []Rule{{Action: "allow", Os: &OsRule{Arch: "x86"}}}, false},
		{"features dropped", []Rule{{Action: "allow", Features: map[string]bool{"is_demo_user": true}}}, false},
		{"features after match", []Rule{{Action: "allow"}, {Action: "allow", Features: map[string]bool{"has_custom_resolution": true}}}, false},
		{"disallow wins", []Rule{{Action: "allow"}, {Action: "disallow", Os: &OsRule{Name: "linux"}}}, false},
		{"disallow only, other os", []Rule{{Action: "disallow", Os: &OsRule{Name: "osx"}}}, true},
		{"disallow other arch", []Rule{{Action: "disallow", Os: &OsRule{Name: "linux", Arch: "x86"}}}, true},
		{"allow elsewhere then here", []Rule{{Action: "allow", Os: &OsRule{Name: "osx"}}, {Action: "allow", Os: &OsRule{Name: "linux"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyArgumentRules(tt.rules, linux); got != tt.want {
				t.Fatalf("ApplyArgumentRules = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Platform
	}{
		{"windows", "amd64", Platform{"windows", "x64"}},
		{"darwin", "arm64", Platform{"osx", "arm64"}},
		{"linux", "386", Platform{"linux", "x86"}},
		{"freebsd", "amd64", Platform{"linux", "x64"}},
	}
	for _, tt := range tests {
		if got := PlatformFor(tt.goos, tt.goarch); got != tt.want {
			t.Errorf("PlatformFor(%s, %s) = %+v, want %+v", tt.goos, tt.goarch, got, tt.want)
		}
	}

	if sep := (Platform{OS: "windows"}).ClasspathSeparator(); sep != ";" {
		t.Errorf("windows separator = %q", sep)
	}
	if sep := linux.ClasspathSeparator(); sep != ":" {
		t.Errorf("linux separator = %q", sep)
	}
}

func TestNativeClassifier(t *testing.T) {
	lib := Library{Name: "org.lwjgl.lwjgl:lwjgl-platform:2.9.4", Natives: map[string]string{
		"linux":   "natives-linux",
		"windows": "natives-windows-${arch}",
	}}

	if c, ok := NativeClassifier(lib, linux); !ok || c != "natives-linux" {
		t.Fatalf("linux classifier = %q, %v", c, ok)
	}
	if c, _ := NativeClassifier(lib, Platform{OS: "windows", Arch: "x86"}); c != "natives-windows-32" {
		t.Fatalf("windows classifier = %q", c)
	}
	if _, ok := NativeClassifier(lib, Platform{OS: "osx", Arch: "x64"}); ok {
		t.Fatal("osx classifier should not exist")
	}
}
