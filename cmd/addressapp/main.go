// cmd/addressapp/main.go
//
// This is the entry point for the address book.
//
// Flow:
// 1. Resolve the addressapp home directory and load config.yaml
// 2. Open the log file and the preferences file
// 3. With no arguments, launch the TUI; otherwise run a subcommand

package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/addressapp/internal/app"
	"github.com/kingrea/addressapp/internal/config"
	"github.com/kingrea/addressapp/internal/logbook"
	"github.com/kingrea/addressapp/internal/prefs"
	"github.com/kingrea/addressapp/internal/tui"
)

func main() {
	env, err := setup()
	if err != nil {
		die("%v", err)
	}
	if len(os.Args) > 1 {
		code := runCommand(env, os.Args[1:], os.Stdout, os.Stderr)
		env.log.Close()
		os.Exit(code)
	}
	defer env.log.Close()

	model := tui.NewApp(env.ctrl, env.log)
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		die("Error running TUI: %v", err)
	}
}

// environment bundles what both the TUI and the subcommands need.
type environment struct {
	cfg  *config.Config
	log  *logbook.Logbook
	ctrl *app.App
}

func setup() (*environment, error) {
	home, err := config.HomeDir()
	if err != nil {
		return nil, err
	}
	if err := config.InitHomeDir(home); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", home, err)
	}
	cfg, err := config.NewConfig(home)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogPath(), logbook.ParseLevel(cfg.LogLevel()))
	if err != nil {
		// The address book works without a log file.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		lb = nil
	}
	return newEnvironment(cfg, lb)
}

func newEnvironment(cfg *config.Config, lb *logbook.Logbook) (*environment, error) {
	prefsPath, err := cfg.PreferencesPath()
	if err != nil {
		return nil, err
	}
	settings, err := prefs.OpenFile(prefsPath, cfg.PreferencesNode())
	if err != nil {
		return nil, err
	}
	ctrl := app.New(app.Options{
		Prefs:      settings,
		Log:        lb,
		Samples:    cfg.SeedSamples(),
		DateFormat: cfg.DateFormat(),
	})
	lb.Info("Session opened · home %s", cfg.HomeDir)
	return &environment{cfg: cfg, log: lb, ctrl: ctrl}, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printNotification(w io.Writer, n app.Notification) {
	fmt.Fprintf(w, "%s: %s\n%s\n", n.Title, n.Header, n.Content)
}
