//go:build ignore

// build.go - SalesPulse Build System
// Usage: go run build.go [-target=TARGET]
// Targets: all, salespulse, salesreport, processor, clean, test, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "1.0.0"
	module  = "salespulse"
)

var (
	distDir = "dist"

	// Executables built from ./cmd/<name>
	executables = []string{"salespulse", "salesreport", "processor"}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(*goos, *verbose)
	case "salespulse", "salesreport", "processor":
		err = buildExecutable(*target, *goos, *verbose)
	case "clean":
		err = clean()
	case "test":
		err = runTests(*verbose)
	case "release":
		err = buildRelease(*goos, *verbose)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        SalesPulse - Build System          " + colorReset)
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

func buildAll(goos string, verbose bool) error {
	printInfo("Building all components...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", distDir, err)
	}
	for _, name := range executables {
		if err := buildExecutable(name, goos, verbose); err != nil {
			return err
		}
	}
	return copyConfigFiles()
}

func buildExecutable(name, goos string, verbose bool) error {
	printInfo(fmt.Sprintf("Building %s...", name))

	exeName := name
	if goos == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(distDir, exeName)

	ldflags := fmt.Sprintf("-s -w -X %[1]s/internal/app.Version=%[2]s -X %[1]s/internal/app.BuildTime=%[3]s",
		module, version, time.Now().Format(time.RFC3339))

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+goos)
	if verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, float64(info.Size())/1024/1024))
	}
	return nil
}

func clean() error {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		return fmt.Errorf("clean %s: %w", distDir, err)
	}
	printSuccess("Build artifacts cleaned")
	return nil
}

func runTests(verbose bool) error {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go tests failed: %w", err)
	}
	printSuccess("All tests passed")
	return nil
}

func buildRelease(goos string, verbose bool) error {
	printInfo("Building release version...")
	if err := clean(); err != nil {
		return err
	}
	os.Setenv("CGO_ENABLED", "0")
	if err := buildAll(goos, verbose); err != nil {
		return err
	}

	content := fmt.Sprintf("SalesPulse v%s\nBuilt: %s\n", version, time.Now().Format("2006-01-02 15:04:05"))
	return os.WriteFile(filepath.Join(distDir, "VERSION.txt"), []byte(content), 0644)
}

// copyConfigFiles ships the sample configuration next to the binaries.
func copyConfigFiles() error {
	for _, name := range []string{"config.example.yaml", "calendar.example.yaml"} {
		data, err := os.ReadFile(filepath.Join("configs", name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(distDir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all               Build all executables (default)")
	fmt.Println("  salespulse        Build the HTTP server")
	fmt.Println("  salesreport       Build the report CLI")
	fmt.Println("  processor         Build the order table normalizer")
	fmt.Println("  clean             Remove build artifacts")
	fmt.Println("  test              Run all tests")
	fmt.Println("  release           Clean, then build static binaries")
}
