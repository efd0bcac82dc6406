package services

import (
	"os"
	"path/filepath"
	"runtime"
)

func javaBinary(goos string) string {
	if goos == "windows" {
		return "javaw.exe"
	}
	return "java"
}

// JavaCandidates lists where a Java runtime is commonly installed, most
// specific first. Directory globs are expanded.
func JavaCandidates(goos string, gameDir string) []string {
	bin := javaBinary(goos)
	var dirs []string
	if home := os.Getenv("JAVA_HOME"); home != "" {
		dirs = append(dirs, home)
	}
	dirs = append(dirs, filepath.Join(gameDir, "runtime", "*", "*", "*"))

	switch goos {
	case "windows":
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			root := os.Getenv(env)
			if root == "" {
				continue
			}
			for _, vendor := range []string{"Java", "Eclipse Adoptium", "Microsoft", "Zulu"} {
				dirs = append(dirs, filepath.Join(root, vendor, "*"))
			}
		}
	case "darwin":
		dirs = append(dirs, "/Library/Java/JavaVirtualMachines/*/Contents/Home")
	default:
		dirs = append(dirs, "/usr/lib/jvm/*", "/usr/java/*", "/opt/java/*")
	}

	var candidates []string
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "bin", bin))
		if err != nil {
			continue
		}
		candidates = append(candidates, matches...)
	}
	if goos != "windows" {
		candidates = append(candidates, "/usr/bin/java", "/usr/local/bin/java")
	}
	return candidates
}

// FindJava returns the candidate Java binaries that exist on this machine.
func FindJava(gameDir string) []string {
	seen := map[string]bool{}
	var found []string
	for _, path := range JavaCandidates(runtime.GOOS, gameDir) {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || seen[path] {
			continue
		}
		seen[path] = true
		found = append(found, path)
	}
	return found
}
