package util

import (
	"errors"
	"testing"
)

const modernVersion = `{
	"id": "1.21.1",
	"type": "release",
	"mainClass": "net.minecraft.client.main.Main",
	"arguments": {
		"game": ["--username", "${auth_player_name}", {"rules": [{"action": "allow", "features": {"is_demo_user": true}}], "value": "--demo"}],
		"jvm": [{"rules": [{"action": "allow", "os": {"name": "osx"}}], "value": ["-XstartOnFirstThread"]}, "-cp", "${classpath}"]
	},
	"libraries": [{"name": "com.mojang:brigadier:1.2.9", "downloads": {"artifact": {"path": "com/mojang/brigadier/1.2.9/brigadier-1.2.9.jar", "url": "https://libraries.minecraft.net/x.jar"}}}],
	"downloads": {"client": {"url": "https://example.invalid/client.jar"}},
	"assetIndex": {"id": "17", "url": "https://example.invalid/17.json"}
}`

func TestParseVersionDetails(t *testing.T) {
	details, err := ParseVersionDetails([]byte(modernVersion))
	if err != nil {
		t.Fatal(err)
	}

	game := details.Arguments.Game
	if len(game) != 3 {
		t.Fatalf("game args = %d", len(game))
	}
	if game[1].Values[0] != "${auth_player_name}" || len(game[1].Rules) != 0 {
		t.Fatalf("plain argument decoded as %+v", game[1])
	}
	if game[2].Values[0] != "--demo" || game[2].Rules[0].Features["is_demo_user"] != true {
		t.Fatalf("guarded argument decoded as %+v", game[2])
	}
	if jvm := details.Arguments.Jvm[0]; jvm.Values[0] != "-XstartOnFirstThread" || jvm.Rules[0].Os.Name != "osx" {
		t.Fatalf("list argument decoded as %+v", jvm)
	}
	if art := details.Libraries[0].Artifact(); art == nil || art.Path == "" {
		t.Fatal("library artifact missing")
	}
}

func TestParseVersionDetailsRejectsIncomplete(t *testing.T) {
	tests := []string{
		`{"mainClass": "a.B"}`,
		`{"id": "x"}`,
		`{"id": "x", "mainClass": "a.B", "libraries": [{"url": "https://example.invalid"}]}`,
		`{"id": "x", "mainClass": "a.B", "arguments": {"game": [42]}}`,
		`not json`,
	}
	for _, doc := range tests {
		if _, err := ParseVersionDetails([]byte(doc)); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseVersionDetails(%s) error = %v, want ErrMalformed", doc, err)
		}
	}
}

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest([]byte(`{"latest": {"release": "1.21.1", "snapshot": "24w40a"}, "versions": [{"id": "1.21.1", "type": "release", "url": "https://example.invalid/1.21.1.json"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if manifest.Latest.Release != "1.21.1" {
		t.Fatalf("latest release = %q", manifest.Latest.Release)
	}
	if _, ok := manifest.Find("1.21.1"); !ok {
		t.Fatal("Find did not locate 1.21.1")
	}
	if _, ok := manifest.Find("1.8.9"); ok {
		t.Fatal("Find located a missing version")
	}
	if _, err := ParseManifest([]byte(`{"versions": [{"id": "x"}]}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
