package progress

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
	return func() time.Time { return t }
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code_log.txt")
	l, err := Open(path, WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	if err := l.Log(MsgPreliminaries); err != nil {
		t.Fatalf("Log: %v", err)
	}

	lines := readLines(t, path)
	want := "2024-03-05 14:07:09 : Preliminaries complete. Initiating ETL process"
	if len(lines) != 1 || lines[0] != want {
		t.Errorf("got %q, want [%q]", lines, want)
	}
}

func TestLogAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code_log.txt")

	for _, msg := range []string{MsgExtracted, MsgTransformed} {
		l, err := Open(path, WithClock(fixedClock()))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := l.Log(msg); err != nil {
			t.Fatalf("Log: %v", err)
		}
		l.Close()
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[0], MsgExtracted) || !strings.HasSuffix(lines[1], MsgTransformed) {
		t.Errorf("lines out of order: %q", lines)
	}
}

func TestTimestampIsSecondPrecision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code_log.txt")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	if err := l.Log("hello"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	line := readLines(t, path)[0]
	ts, msg, ok := strings.Cut(line, " : ")
	if !ok || msg != "hello" {
		t.Fatalf("malformed line %q", line)
	}
	if _, err := time.ParseInLocation(TimestampFormat, ts, time.Local); err != nil {
		t.Errorf("timestamp %q does not match %q: %v", ts, TimestampFormat, err)
	}
}

func TestLogAfterCloseReturnsLogWriteError(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "code_log.txt"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	l.Close()

	err = l.Log("late")
	var lwe *LogWriteError
	if !errors.As(err, &lwe) {
		t.Fatalf("got %v, want *LogWriteError", err)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "log.txt"))
	var lwe *LogWriteError
	if !errors.As(err, &lwe) {
		t.Fatalf("got %v, want *LogWriteError", err)
	}
}

func TestQueryMessage(t *testing.T) {
	if got := QueryMessage("SELECT 1"); got != "Executing query: SELECT 1" {
		t.Errorf("QueryMessage = %q", got)
	}
}
