package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/addressapp/internal/config"
)

func newTestEnv(t *testing.T) *environment {
	t.Helper()
	t.Setenv("ADDRESSAPP_PREFS", "")
	t.Setenv("ADDRESSAPP_NO_SAMPLES", "")
	t.Setenv("ADDRESSAPP_LOG_LEVEL", "")
	home := t.TempDir()
	if err := config.InitHomeDir(home); err != nil {
		t.Fatalf("InitHomeDir: %v", err)
	}
	cfg, err := config.NewConfig(home)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	env, err := newEnvironment(cfg, nil)
	if err != nil {
		t.Fatalf("newEnvironment: %v", err)
	}
	return env
}

func run(t *testing.T, env *environment, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := runCommand(env, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestAddListStatsRemove(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(t.TempDir(), "book.xml")

	code, out, errOut := run(t, env, "add", "--file", file, "--new",
		"--first", "Ada", "--last", "Lovelace", "--city", "London", "--birthday", "10.12.1815")
	if code != 0 {
		t.Fatalf("add exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Added Ada Lovelace (1 person(s)") {
		t.Fatalf("add output = %q", out)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("book not written: %v", err)
	}
	if !strings.Contains(string(data), "<birthday>1815-12-10</birthday>") {
		t.Fatalf("unexpected file content:\n%s", data)
	}

	code, _, errOut = run(t, env, "add", "--file", file, "--first", "Alan", "--last", "Turing", "--postal", "9")
	if code != 0 {
		t.Fatalf("second add exit %d: %s", code, errOut)
	}

	code, out, _ = run(t, env, "list", "--file", file, "--where", `lastName == "Turing"`)
	if code != 0 || !strings.Contains(out, "Alan") || strings.Contains(out, "Ada") {
		t.Fatalf("filtered list exit %d:\n%s", code, out)
	}

	code, out, _ = run(t, env, "stats", "--file", file)
	if code != 0 || !strings.Contains(out, "Dec   1 #") || !strings.Contains(out, "Jan   0") {
		t.Fatalf("stats exit %d:\n%s", code, out)
	}

	code, out, errOut = run(t, env, "remove", "--file", file, "--index", "0")
	if code != 0 {
		t.Fatalf("remove exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "1 person(s) left") {
		t.Fatalf("remove output = %q", out)
	}
	code, out, _ = run(t, env, "list")
	if code != 0 || strings.Contains(out, "Ada") || !strings.Contains(out, "Alan") {
		t.Fatalf("list of remembered file exit %d:\n%s", code, out)
	}
}

func TestRemoveOutOfRangeShowsNoSelection(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(t.TempDir(), "book.xml")
	if code, _, errOut := run(t, env, "add", "--file", file, "--new", "--first", "Solo"); code != 0 {
		t.Fatalf("add exit %d: %s", code, errOut)
	}
	code, _, errOut := run(t, env, "remove", "--file", file, "--index", "5")
	if code != 1 || !strings.Contains(errOut, "No Person Selected") {
		t.Fatalf("exit %d stderr %q", code, errOut)
	}
}

func TestListMissingFileReportsLoadError(t *testing.T) {
	env := newTestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.xml")
	code, _, errOut := run(t, env, "list", "--file", missing)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(errOut, "Could not load data") || !strings.Contains(errOut, missing) {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestListWithoutFileUsesSamples(t *testing.T) {
	env := newTestEnv(t)
	code, out, _ := run(t, env, "list")
	if code != 0 || !strings.Contains(out, "Hans") || !strings.Contains(out, "Martin") {
		t.Fatalf("exit %d:\n%s", code, out)
	}
}

func TestListSearch(t *testing.T) {
	env := newTestEnv(t)
	code, out, _ := run(t, env, "list", "--search", "meier")
	if code != 0 || !strings.Contains(out, "Cornelia") || !strings.Contains(out, "Stefan") || strings.Contains(out, "Hans") {
		t.Fatalf("exit %d:\n%s", code, out)
	}
	if code, _, _ := run(t, env, "list", "--search", "x", "--where", "true"); code != 2 {
		t.Fatalf("exclusive flags accepted")
	}
}

func TestInvalidWhereIsUsageError(t *testing.T) {
	env := newTestEnv(t)
	code, _, errOut := run(t, env, "list", "--where", "city ==")
	if code != 2 || errOut == "" {
		t.Fatalf("exit %d stderr %q", code, errOut)
	}
}

func TestPathShowAndClear(t *testing.T) {
	env := newTestEnv(t)
	_, out, _ := run(t, env, "path")
	if !strings.Contains(out, "No remembered file") {
		t.Fatalf("path output = %q", out)
	}
	file := filepath.Join(t.TempDir(), "book.xml")
	run(t, env, "add", "--file", file, "--new", "--first", "Solo")
	_, out, _ = run(t, env, "path")
	if strings.TrimSpace(out) != file {
		t.Fatalf("path = %q, want %q", out, file)
	}
	if code, _, _ := run(t, env, "path", "--clear"); code != 0 {
		t.Fatalf("path --clear exit %d", code)
	}
	if _, ok := env.ctrl.FilePath(); ok {
		t.Fatalf("path still remembered")
	}
}

func TestDateFormatCommand(t *testing.T) {
	env := newTestEnv(t)
	_, out, _ := run(t, env, "dateformat")
	if strings.TrimSpace(out) != "dd.MM.yyyy" {
		t.Fatalf("dateformat = %q", out)
	}
	if code, _, _ := run(t, env, "dateformat", "MM/dd"); code != 2 {
		t.Fatalf("invalid pattern accepted")
	}
	if code, _, errOut := run(t, env, "dateformat", "yyyy/MM/dd"); code != 0 {
		t.Fatalf("dateformat exit %d: %s", code, errOut)
	}
	reloaded, err := config.NewConfig(env.cfg.HomeDir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.DateFormat() != "yyyy/MM/dd" {
		t.Fatalf("pattern not persisted: %q", reloaded.DateFormat())
	}
}

func TestUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	code, _, errOut := run(t, env, "frobnicate")
	if code != 2 || !strings.Contains(errOut, "Usage:") {
		t.Fatalf("exit %d stderr %q", code, errOut)
	}
}
