// Package synclog writes the sync log. Every line is prefixed with the local
// time it was logged at, appended to the log file, and mirrored to stdout.
package synclog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/dirmirror/pkg/errors"
	"github.com/sidkik/dirmirror/pkg/mirror"
)

// TimestampFormat is the format of the timestamp at the start of each line.
const TimestampFormat = "2006-01-02 15:04:05"

// Logger records sync events to the log file. It implements mirror.Logger.
type Logger struct {
	*logrus.Logger
	file afero.File
}

// Open opens the log file at `path` for appending, creating it if necessary.
// Lines are written to both the file and `mirrorTo`, which may be nil.
func Open(fs afero.Fs, path string, mirrorTo io.Writer) (*Logger, error) {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.WithContext(err, "open log file")
	}

	var out io.Writer = f
	if mirrorTo != nil {
		out = io.MultiWriter(mirrorTo, f)
	}
	return &Logger{Logger: New(out), file: f}, nil
}

// New returns a logrus logger that writes sync log lines to `out`.
func New(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&LineFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// Record writes a line for `ev`, timestamped with the time the event
// happened.
func (l *Logger) Record(ev mirror.SyncEvent) {
	entry := l.WithTime(ev.Time)
	if ev.Kind == mirror.OperationFailed {
		entry.WithError(ev.Err).Error(ev.Message())
		return
	}
	entry.Info(ev.Message())
}

// Close closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// LineFormatter formats entries as "[YYYY-MM-DD HH:MM:SS] message", followed
// by any fields in key=value form.
type LineFormatter struct{}

// Format implements logrus.Formatter.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] ", entry.Time.Local().Format(TimestampFormat))
	if entry.Level <= logrus.WarnLevel {
		fmt.Fprintf(&b, "%s: ", levelPrefix(entry.Level))
	}
	b.WriteString(entry.Message)

	var keys []string
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelPrefix(level logrus.Level) string {
	switch level {
	case logrus.WarnLevel:
		return "WARNING"
	default:
		return "ERROR"
	}
}
