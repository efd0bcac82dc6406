package fileutils

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buger/jsonparser"
	"github.com/mrnavastar/mclaunch/util"
	"github.com/zalando/go-keyring"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteStreamRemovesPartialFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b.jar")
	r := io.MultiReader(strings.NewReader("partial"), failingReader{})

	if _, err := WriteStream(dest, r); err == nil {
		t.Fatal("expected error")
	}
	if Exists(dest) {
		t.Fatal("partial file left behind")
	}

	n, err := WriteStream(dest, strings.NewReader("complete"))
	if err != nil || n != 8 {
		t.Fatalf("WriteStream = %d, %v", n, err)
	}
}

func TestWriteCounter(t *testing.T) {
	var seen []int64
	wc := &WriteCounter{Total: 10, OnWrite: func(size, total int64) { seen = append(seen, size) }}
	io.Copy(io.Discard, io.TeeReader(strings.NewReader("0123456789"), wc))
	if wc.Size != 10 || len(seen) == 0 || seen[len(seen)-1] != 10 {
		t.Fatalf("counter = %d, seen %v", wc.Size, seen)
	}
}

func TestExtractNatives(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "natives.jar")
	writeZip(t, jar, map[string]string{
		"linux/x64/org/lwjgl/liblwjgl.so": "lwjgl",
		"windows/lwjgl.dll":               "dll",
		"macos/liblwjgl.dylib":            "dylib",
		"META-INF/MANIFEST.MF":            "manifest",
		"META-INF/libsigned.so":           "excluded",
		"org/lwjgl/Version.class":         "class",
	})

	dest := filepath.Join(dir, "natives")
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "lwjgl.dll"), []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := ExtractNatives(jar, dest, []string{"META-INF/"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("extracted %d entries, want 2", n)
	}

	if data, _ := os.ReadFile(filepath.Join(dest, "liblwjgl.so")); string(data) != "lwjgl" {
		t.Fatalf("liblwjgl.so = %q", data)
	}
	if data, _ := os.ReadFile(filepath.Join(dest, "lwjgl.dll")); string(data) != "existing" {
		t.Fatal("existing native was overwritten")
	}
	for _, name := range []string{"libsigned.so", "MANIFEST.MF", "Version.class"} {
		if Exists(filepath.Join(dest, name)) {
			t.Errorf("%s should not be extracted", name)
		}
	}

	if _, err := ExtractNatives(filepath.Join(dir, "missing.jar"), dest, nil); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestExtractPrefixAndReadEntry(t *testing.T) {
	dir := t.TempDir()
	installer := filepath.Join(dir, "installer.jar")
	writeZip(t, installer, map[string]string{
		"version.json": `{"id":"neoforge"}`,
		"maven/net/neoforged/neoforge/21.1.77/neoforge-21.1.77-universal.jar": "universal",
		"data/client.lzma":       "lzma",
	})

	libs := filepath.Join(dir, "libraries")
	n, err := ExtractPrefix(installer, "maven/", libs)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("extracted %d, want 1", n)
	}
	if data, _ := os.ReadFile(filepath.Join(libs, "net", "neoforged", "neoforge", "21.1.77", "neoforge-21.1.77-universal.jar")); string(data) != "universal" {
		t.Fatalf("universal jar = %q", data)
	}
	if Exists(filepath.Join(libs, "client.lzma")) || Exists(filepath.Join(libs, "version.json")) {
		t.Fatal("entries outside the prefix were extracted")
	}

	data, err := ReadEntry(installer, "version.json")
	if err != nil || string(data) != `{"id":"neoforge"}` {
		t.Fatalf("ReadEntry = %q, %v", data, err)
	}
	if _, err := ReadEntry(installer, "install_profile.json"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestInstalledVersions(t *testing.T) {
	layout := Layout{GameDir: t.TempDir()}

	touch := func(path string) {
		t.Helper()
		if err := WriteFile(path, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	touch(layout.VersionJson("1.21.1"))
	touch(layout.VersionJar("1.21.1"))
	touch(layout.VersionJson("1.20.4"))
	touch(layout.VersionJar("1.8.9"))
	touch(layout.VersionJson("neoforge-1.21.1-21.1.77"))

	installed, err := layout.InstalledVersions()
	if err != nil {
		t.Fatal(err)
	}
	if len(installed) != 1 || installed[0] != "1.21.1" {
		t.Fatalf("installed = %v", installed)
	}

	neo, err := layout.InstalledNeoForgeVersions()
	if err != nil || len(neo) != 1 || neo[0] != "neoforge-1.21.1-21.1.77" {
		t.Fatalf("neoforge = %v, %v", neo, err)
	}

	if err := layout.DeleteVersion("1.20.4"); err != nil {
		t.Fatal(err)
	}
	if err := layout.DeleteVersion("1.20.4"); !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("expected ErrVersionNotFound, got %v", err)
	}
	if err := layout.DeleteVersion("../x"); err == nil {
		t.Fatal("expected error for path-like id")
	}

	empty := Layout{GameDir: filepath.Join(t.TempDir(), "nothing")}
	if ids, err := empty.InstalledVersions(); err != nil || len(ids) != 0 {
		t.Fatalf("empty layout = %v, %v", ids, err)
	}
}

func TestSetVersionIdentity(t *testing.T) {
	raw := []byte(`{"id":"neoforge-21.1.77","mainClass":"cpw.mods.bootstraplauncher.BootstrapLauncher","libraries":[]}`)
	out, err := SetVersionIdentity(raw, "neoforge-1.21.1-21.1.77", "1.21.1")
	if err != nil {
		t.Fatal(err)
	}
	if id, _ := jsonparser.GetString(out, "id"); id != "neoforge-1.21.1-21.1.77" {
		t.Fatalf("id = %q", id)
	}
	if parent, _ := jsonparser.GetString(out, "inheritsFrom"); parent != "1.21.1" {
		t.Fatalf("inheritsFrom = %q", parent)
	}
	if main, _ := jsonparser.GetString(out, "mainClass"); main != "cpw.mods.bootstraplauncher.BootstrapLauncher" {
		t.Fatalf("mainClass = %q", main)
	}

	kept, err := SetVersionIdentity([]byte(`{"id":"x","inheritsFrom":"1.20.6"}`), "y", "1.21.1")
	if err != nil {
		t.Fatal(err)
	}
	if parent, _ := jsonparser.GetString(kept, "inheritsFrom"); parent != "1.20.6" {
		t.Fatalf("existing inheritsFrom replaced with %q", parent)
	}
}

func TestAssetHashes(t *testing.T) {
	index := []byte(`{"objects": {"icons/icon.png": {"hash": "bdf48ef6b5d0d23bbb02e17d04865216179f510a", "size": 3665}, "lang/en.json": {"hash": "aa00000000000000000000000000000000000001", "size": 1}}}`)
	hashes, err := AssetHashes(index)
	if err != nil {
		t.Fatal(err)
	}
	if len(hashes) != 2 || hashes[0] != "bdf48ef6b5d0d23bbb02e17d04865216179f510a" {
		t.Fatalf("hashes = %v", hashes)
	}

	bad := []string{
		`{"objects": {"x": {"size": 1}}}`,
		`{"objects": {"x": {"hash": "aa", "size": 1}}}`,
		`{"objects": {"x": {"hash": "../../../../../../../../../../../../etc/x", "size": 1}}}`,
		`{"objects": {"x": {"hash": "aa/0000000000000000000000000000000000000", "size": 1}}}`,
		`{"objects": {"x": {"hash": "BDF48EF6B5D0D23BBB02E17D04865216179F510A", "size": 1}}}`,
	}
	for _, index := range bad {
		if _, err := AssetHashes([]byte(index)); !errors.Is(err, util.ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", index, err)
		}
	}
}

func TestAccountStore(t *testing.T) {
	keyring.MockInit()
	store := NewAccountStore()

	if _, err := store.Load(); !errors.Is(err, ErrNoAccount) {
		t.Fatalf("expected ErrNoAccount, got %v", err)
	}

	session := util.AuthSession{Id: "abc", Username: "Steve", Uuid: "abc", AccessToken: "token", Type: util.Microsoft}
	if err := store.Save(session); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load()
	if err != nil || loaded.Username != "Steve" || loaded.Type != util.Microsoft {
		t.Fatalf("Load = %+v, %v", loaded, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear = %v", err)
	}
}
