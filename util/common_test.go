package util

import (
	"errors"
	"testing"
)

func TestMavenPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"com.mojang:brigadier:1.2.9", "com/mojang/brigadier/1.2.9/brigadier-1.2.9.jar"},
		{"org.lwjgl:lwjgl:3.3.3:natives-linux", "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar"},
		{"net.neoforged:neoform:1.21.1-20240808.144430:mappings:txt", "net/neoforged/neoform/1.21.1-20240808.144430/neoform-1.21.1-20240808.144430-mappings.txt"},
		{"de.oceanlabs.mcp:mcp_config:1.16.5@zip", "de/oceanlabs/mcp/mcp_config/1.16.5/mcp_config-1.16.5.zip"},
	}
	for _, tt := range tests {
		got, err := MavenPath(tt.name)
		if err != nil {
			t.Fatalf("MavenPath(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("MavenPath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}

	if _, err := MavenPath("broken:coordinate"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestHumanSize(t *testing.T) {
	if got := HumanSize(512 * 1024); got != "512 KB" {
		t.Errorf("HumanSize = %q", got)
	}
	if got := HumanSize(3 * 1024 * 1024 / 2); got != "1.5 MB" {
		t.Errorf("HumanSize = %q", got)
	}
}
