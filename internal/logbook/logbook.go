package logbook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel maps a config value onto a Level, defaulting to info.
func ParseLevel(value string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(value))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

// Logbook writes human-readable, leveled lines to a file the TUI can tail.
// A nil *Logbook discards everything.
type Logbook struct {
	path   string
	file   *os.File
	logger zerolog.Logger
	mu     *sync.Mutex
}

// New opens (or creates) the log file at path.
func New(path string, level Level) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: open log file: %w", err)
	}
	book := newLogbook(f, level)
	book.path = path
	book.file = f
	return book, nil
}

// NewWriter logs to w instead of a file. Tail returns nothing for such a
// logbook.
func NewWriter(w io.Writer, level Level) *Logbook {
	return newLogbook(w, level)
}

func newLogbook(w io.Writer, level Level) *Logbook {
	mu := &sync.Mutex{}
	console := zerolog.ConsoleWriter{
		Out:        lockedWriter{w: w, mu: mu},
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(console).Level(level.zerolog()).With().Timestamp().Logger()
	return &Logbook{logger: logger, mu: mu}
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (lw lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close releases the file handle.
func (l *Logbook) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// With returns a logbook that adds key=value to every entry.
func (l *Logbook) With(key string, value any) *Logbook {
	if l == nil {
		return nil
	}
	cp := *l
	cp.logger = l.logger.With().Interface(key, value).Logger()
	return &cp
}

// Append writes a single entry.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.logger.WithLevel(level.zerolog()).Msg(strings.TrimSpace(message))
}

// Debug appends a debug entry.
func (l *Logbook) Debug(format string, args ...any) {
	l.Append(LevelDebug, fmt.Sprintf(format, args...))
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Tail returns up to maxLines of the most recent entries and the total
// number of lines in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || l.path == "" || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	total := len(lines)
	if total == 0 {
		return nil, 0
	}
	if total > maxLines {
		lines = lines[total-maxLines:]
	}
	return lines, total
}
