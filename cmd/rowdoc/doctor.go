package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-rowdoc/internal/assets"
	"github.com/alnah/go-rowdoc/internal/config"
	"github.com/alnah/go-rowdoc/internal/fileutil"
)

type checkLevel string

const (
	levelOK    checkLevel = "ok"
	levelWarn  checkLevel = "warn"
	levelError checkLevel = "error"
)

// doctorCheck is one diagnostic line.
type doctorCheck struct {
	Section string     `json:"section"`
	Name    string     `json:"name"`
	Level   checkLevel `json:"level"`
	Detail  string     `json:"detail"`
}

// doctorReport is the result of all checks, in display order.
type doctorReport struct {
	Status  string        `json:"status"` // "ready", "warnings", "errors"
	Formats []string      `json:"formats"`
	Styles  []string      `json:"styles"`
	Checks  []doctorCheck `json:"checks"`
}

func (r *doctorReport) add(section, name string, level checkLevel, format string, args ...any) {
	r.Checks = append(r.Checks, doctorCheck{
		Section: section,
		Name:    name,
		Level:   level,
		Detail:  fmt.Sprintf(format, args...),
	})
}

func (r *doctorReport) count(level checkLevel) int {
	n := 0
	for _, c := range r.Checks {
		if c.Level == level {
			n++
		}
	}
	return n
}

// lookPath locates a browser; replaced in tests.
var lookPath = launcher.LookPath

// runDoctorCmd checks whether a conversion with the effective configuration
// can run. Warnings exit 0; errors exit 1.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	var (
		configName string
		jsonOutput bool
	)
	fs.StringVarP(&configName, "config", "c", "", "config file name or path")
	fs.BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	fs.SetOutput(env.Stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	report := runDoctor(configName)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printDoctorReport(env.Stdout, report)
	}

	if report.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all checks against the configuration named by
// configName (or ROWDOC_CONFIG, or the defaults).
func runDoctor(configName string) *doctorReport {
	report := &doctorReport{
		Formats: []string{"docx", "html"},
		Styles:  assets.StyleNames(),
	}

	cfg := checkConfig(report, configName)
	checkPaths(report, cfg)
	checkBrowser(report, cfg.Output.Format)
	checkTempDir(report)

	switch {
	case report.count(levelError) > 0:
		report.Status = "errors"
	case report.count(levelWarn) > 0:
		report.Status = "warnings"
	default:
		report.Status = "ready"
	}
	return report
}

// checkConfig loads and validates the configuration. On failure the
// remaining checks run against the defaults.
func checkConfig(report *doctorReport, configName string) *config.Config {
	cfg, err := loadConfig(configName, loadEnvConfig())
	if err != nil {
		report.add("Config", "load", levelError, "%v", err)
		return config.DefaultConfig()
	}

	source := "built-in defaults"
	if configName != "" {
		source = configName
	} else if v := os.Getenv("ROWDOC_CONFIG"); v != "" {
		source = v
	}
	report.add("Config", "source", levelOK, "%s", source)

	if err := cfg.Validate(); err != nil {
		report.add("Config", "validate", levelError, "%v", err)
		return cfg
	}
	if cfg.Document.IDColumn == "" {
		report.add("Config", "id column", levelWarn, "not set, pass --id-column to convert")
	} else {
		report.add("Config", "id column", levelOK, "%s", cfg.Document.IDColumn)
	}
	report.add("Config", "columns", levelOK, "%d configured", len(cfg.Columns))
	return cfg
}

// checkPaths reports on the configured input file and output directory.
func checkPaths(report *doctorReport, cfg *config.Config) {
	switch in := cfg.Input.Path; {
	case in == "":
		report.add("Paths", "input", levelOK, "not configured, given on the command line")
	case fileutil.FileExists(in):
		report.add("Paths", "input", levelOK, "%s", in)
	default:
		report.add("Paths", "input", levelWarn, "%s does not exist", in)
	}

	dir := cfg.Output.Dir
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		report.add("Paths", "output", levelOK, "%s will be created", dir)
	case err != nil:
		report.add("Paths", "output", levelError, "%s: %v", dir, err)
	case !info.IsDir():
		report.add("Paths", "output", levelError, "%s is not a directory", dir)
	default:
		report.add("Paths", "output", levelOK, "%s", dir)
	}
}

// checkBrowser looks for Chrome/Chromium. A missing browser only matters
// when pdf is the configured format.
func checkBrowser(report *doctorReport, format string) {
	missing := levelWarn
	if strings.EqualFold(format, "pdf") {
		missing = levelError
	}

	path := os.Getenv("ROD_BROWSER_BIN")
	if path == "" {
		var found bool
		if path, found = lookPath(); !found {
			report.add("Browser", "chrome", missing, "not found, pdf output unavailable (install Chrome or set ROD_BROWSER_BIN)")
			return
		}
	}
	if !fileutil.FileExists(path) {
		report.add("Browser", "chrome", missing, "%s does not exist, pdf output unavailable", path)
		return
	}

	report.Formats = append(report.Formats, "pdf")
	report.add("Browser", "chrome", levelOK, "%s", path)

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- browser path from launcher or ROD_BROWSER_BIN
	if err != nil {
		report.add("Browser", "version", levelWarn, "could not run --version: %v", err)
	} else {
		report.add("Browser", "version", levelOK, "%s", strings.TrimSpace(string(out)))
	}

	sandboxed := os.Getenv("ROD_NO_SANDBOX") != "1"
	if hint, ok := detectContainer(); ok && sandboxed {
		report.add("Browser", "sandbox", levelWarn, "container detected (%s), set ROD_NO_SANDBOX=1 for pdf output", hint)
	} else if sandboxed {
		report.add("Browser", "sandbox", levelOK, "enabled")
	} else {
		report.add("Browser", "sandbox", levelOK, "disabled (ROD_NO_SANDBOX=1)")
	}
}

// detectContainer reports container or CI environments, where Chrome's
// sandbox usually cannot start.
func detectContainer() (string, bool) {
	if os.Getenv("ROWDOC_CONTAINER") == "1" {
		return "ROWDOC_CONTAINER=1", true
	}
	if fileutil.FileExists("/.dockerenv") {
		return "/.dockerenv", true
	}
	for _, v := range []string{"container", "KUBERNETES_SERVICE_HOST", "CI", "GITHUB_ACTIONS", "GITLAB_CI"} {
		if os.Getenv(v) != "" {
			return v, true
		}
	}
	return "", false
}

// checkTempDir verifies the temp directory used to stage pdf pages.
func checkTempDir(report *doctorReport) {
	_, cleanup, err := fileutil.WriteTempFile([]byte("rowdoc"), "html")
	if err != nil {
		report.add("System", "temp dir", levelError, "%s not writable: %v", os.TempDir(), err)
		return
	}
	cleanup()
	report.add("System", "temp dir", levelOK, "%s", os.TempDir())
	report.add("System", "platform", levelOK, "%s/%s %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// printDoctorReport writes the report grouped by section.
func printDoctorReport(w io.Writer, r *doctorReport) {
	fmt.Fprintln(w, "rowdoc doctor")
	fmt.Fprintf(w, "\nFormats: %s\nStyles:  %s\n", strings.Join(r.Formats, ", "), strings.Join(r.Styles, ", "))

	section := ""
	for _, c := range r.Checks {
		if c.Section != section {
			section = c.Section
			fmt.Fprintf(w, "\n%s\n", section)
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", strings.ToUpper(string(c.Level)), c.Name, c.Detail)
	}

	fmt.Fprintln(w)
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: ready")
	case "warnings":
		fmt.Fprintf(w, "Status: ready with %d warning(s)\n", r.count(levelWarn))
	default:
		fmt.Fprintf(w, "Status: not ready, %d error(s)\n", r.count(levelError))
	}
}
