package services

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/mrnavastar/mclaunch/util/fileutils"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func artifactLib(name string, path string) util.Library {
	return util.Library{Name: name, Downloads: &util.LibraryDownloads{Artifact: &util.Artifact{Path: path, Url: "http://example/" + path}}}
}

func TestBuildClasspath(t *testing.T) {
	layout := fileutils.Layout{GameDir: t.TempDir()}
	details := util.VersionDetails{
		Id: "1.21.1",
		Libraries: []util.Library{
			artifactLib("com.example:a:1", "com/example/a/1/a-1.jar"),
			artifactLib("com.example:missing:1", "com/example/missing/1/missing-1.jar"),
			{Name: "com.example:b:2"},
			artifactLib("com.example:a:1", "com/example/a/1/a-1.jar"),
			{
				Name:  "com.example:mac-only:1",
				Rules: []util.Rule{{Action: "allow", Os: &util.OsRule{Name: "osx"}}, {Action: "disallow", Os: &util.OsRule{Name: "linux"}}},
				Downloads: &util.LibraryDownloads{Artifact: &util.Artifact{Path: "com/example/mac/1/mac-1.jar"}},
			},
		},
	}
	touch(t, layout.Library("com/example/a/1/a-1.jar"))
	touch(t, layout.Library("com/example/b/2/b-2.jar"))
	touch(t, layout.Library("com/example/mac/1/mac-1.jar"))
	touch(t, layout.VersionJar("1.21.1"))

	want := []string{
		layout.Library("com/example/a/1/a-1.jar"),
		layout.Library("com/example/b/2/b-2.jar"),
		layout.VersionJar("1.21.1"),
	}
	for i := 0; i < 3; i++ {
		if got := BuildClasspath(details, layout, "1.21.1", linux); !reflect.DeepEqual(got, want) {
			t.Fatalf("classpath\n got %v\nwant %v", got, want)
		}
	}
}

func TestBuildClasspathEmpty(t *testing.T) {
	layout := fileutils.Layout{GameDir: t.TempDir()}
	if got := BuildClasspath(util.VersionDetails{Id: "x"}, layout, "x", linux); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestNeoForgeClasspathAndMerge(t *testing.T) {
	layout := fileutils.Layout{GameDir: t.TempDir()}
	vanilla := util.VersionDetails{
		Id:        "1.21.1",
		MainClass: "net.minecraft.client.main.Main",
		Type:      "release",
		Arguments: &util.Arguments{
			Game: []util.Argument{{Values: []string{"--username"}}},
			Jvm:  []util.Argument{{Values: []string{"-cp"}}},
		},
		Libraries: []util.Library{artifactLib("com.mojang:brigadier:1", "com/mojang/brigadier/1/brigadier-1.jar")},
	}
	loader := util.VersionDetails{
		Id:           "neoforge-1.21.1-21.1.77",
		InheritsFrom: "1.21.1",
		MainClass:    "cpw.mods.bootstraplauncher.BootstrapLauncher",
		Arguments: &util.Arguments{
			Game: []util.Argument{{Values: []string{"--fml.neoForgeVersion", "21.1.77"}}},
			Jvm:  []util.Argument{{Values: []string{"-DlibraryDirectory=${library_directory}"}}},
		},
		Libraries: []util.Library{
			{Name: "net.neoforged:loader:4.0.0"},
			artifactLib("com.mojang:brigadier:1", "com/mojang/brigadier/1/brigadier-1.jar"),
		},
	}
	touch(t, layout.Library("net/neoforged/loader/4.0.0/loader-4.0.0.jar"))
	touch(t, layout.Library("com/mojang/brigadier/1/brigadier-1.jar"))
	touch(t, layout.VersionJar("1.21.1"))

	cp := BuildNeoForgeClasspath(loader, vanilla, layout, linux)
	want := []string{
		layout.Library("net/neoforged/loader/4.0.0/loader-4.0.0.jar"),
		layout.Library("com/mojang/brigadier/1/brigadier-1.jar"),
		layout.VersionJar("1.21.1"),
	}
	if !reflect.DeepEqual(cp, want) {
		t.Errorf("classpath\n got %v\nwant %v", cp, want)
	}

	merged := MergeVersions(loader, vanilla)
	if merged.MainClass != loader.MainClass || merged.Id != "1.21.1" || merged.Type != "release" {
		t.Errorf("merged = %+v", merged)
	}
	if merged.Libraries[0].Name != "net.neoforged:loader:4.0.0" || len(merged.Libraries) != 3 {
		t.Errorf("libraries = %+v", merged.Libraries)
	}
	gotGame := expand(merged.Arguments.Game, linux)
	if !reflect.DeepEqual(gotGame, []string{"--username", "--fml.neoForgeVersion", "21.1.77"}) {
		t.Errorf("game = %v", gotGame)
	}
	gotJvm := expand(merged.Arguments.Jvm, linux)
	if !reflect.DeepEqual(gotJvm, []string{"-cp", "-DlibraryDirectory=${library_directory}"}) {
		t.Errorf("jvm = %v", gotJvm)
	}
	if len(vanilla.Arguments.Game) != 1 || len(vanilla.Libraries) != 1 {
		t.Error("merge modified the vanilla descriptor")
	}
}
