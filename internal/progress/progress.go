// Package progress records ETL checkpoints as timestamped lines in an
// append-only log file.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// TimestampFormat is the layout of the timestamp at the start of each line.
const TimestampFormat = "2006-01-02 15:04:05"

// Checkpoint messages, in the order a successful run writes them.
const (
	MsgPreliminaries = "Preliminaries complete. Initiating ETL process"
	MsgExtracted     = "Data extraction complete. Initiating Transformation process"
	MsgTransformed   = "Data transformation complete. Initiating Loading process"
	MsgCSVSaved      = "Data saved to CSV file"
	MsgConnected     = "SQL Connection initiated"
	MsgLoaded        = "Data loaded to Database as a table, Executing queries"
	MsgComplete      = "Process Complete"
	MsgClosed        = "Server Connection closed"
)

// QueryMessage is the checkpoint written before each report query.
func QueryMessage(query string) string {
	return "Executing query: " + query
}

// LogWriteError reports a failed append to the progress log.
type LogWriteError struct {
	Path string
	Err  error
}

func (e *LogWriteError) Error() string {
	return fmt.Sprintf("write progress log %s: %v", e.Path, e.Err)
}

func (e *LogWriteError) Unwrap() error { return e.Err }

// Logger appends "<timestamp> : <message>" lines to a file.
type Logger struct {
	mu   sync.Mutex
	path string
	f    *os.File
	now  func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// Open opens path for appending, creating it if needed.
func Open(path string, opts ...Option) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &LogWriteError{Path: path, Err: err}
	}
	l := &Logger{path: path, f: f, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the log file path.
func (l *Logger) Path() string { return l.path }

// Log appends one checkpoint line.
func (l *Logger) Log(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := l.now().Format(TimestampFormat) + " : " + message + "\n"
	if _, err := l.f.WriteString(line); err != nil {
		return &LogWriteError{Path: l.path, Err: err}
	}
	return nil
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
