//go:build ignore

// build.go - nepsecli build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, standardize, features, web, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

const version = "1.0.0"

var (
	rootDir string
	distDir string

	// key = directory under cmd/, value = binary name
	executables = map[string]string{
		"standardize": "nepse-standardize",
		"features":    "nepse-features",
		"web":         "nepse-web",
	}

	// GOOS/GOARCH pairs built by the release target
	releaseTargets = [][2]string{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		printError(fmt.Sprintf("Failed to get current directory: %v", err))
		os.Exit(1)
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	printHeader()
	start := time.Now()

	switch *target {
	case "all":
		for _, name := range sortedExecutables() {
			build(name, runtime.GOOS, runtime.GOARCH, *verbose)
		}
		copyConfig()
	case "standardize", "features", "web":
		build(*target, runtime.GOOS, runtime.GOARCH, *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	case "release":
		for _, t := range releaseTargets {
			for _, name := range sortedExecutables() {
				build(name, t[0], t[1], *verbose)
			}
		}
		copyConfig()
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func sortedExecutables() []string {
	names := make([]string, 0, len(executables))
	for name := range executables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func build(name, goos, goarch string, verbose bool) {
	out := executables[name]
	if goos == "windows" {
		out += ".exe"
	}
	dir := distDir
	if goos != runtime.GOOS || goarch != runtime.GOARCH {
		dir = filepath.Join(distDir, goos+"_"+goarch)
	}
	outPath := filepath.Join(dir, out)

	printInfo(fmt.Sprintf("Building %s (%s/%s)...", name, goos, goarch))

	args := []string{"build", "-trimpath",
		"-ldflags", "-s -w",
		"-o", outPath, "./cmd/" + name}
	if verbose {
		args = append(args, "-v")
	}

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build %s: %v", name, err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Built %s", outPath))
}

func copyConfig() {
	src := filepath.Join(rootDir, "configs", "config.yaml")
	data, err := os.ReadFile(src)
	if err != nil {
		printError(fmt.Sprintf("Skipping config copy: %v", err))
		return
	}
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create dist directory: %v", err))
		return
	}
	if err := os.WriteFile(filepath.Join(distDir, "config.yaml"), data, 0644); err != nil {
		printError(fmt.Sprintf("Failed to copy config: %v", err))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all          Build every command for this platform (default)")
	fmt.Println("  standardize  Build the standardizer CLI")
	fmt.Println("  features     Build the feature pipeline CLI")
	fmt.Println("  web          Build the web service")
	fmt.Println("  test         Run go test -race ./...")
	fmt.Println("  clean        Remove dist/")
	fmt.Println("  release      Cross-compile every command into dist/<os>_<arch>/")
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "     nepsecli " + version + " - Build System" + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}
