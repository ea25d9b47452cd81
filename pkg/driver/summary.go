package driver

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/dirmirror/pkg/mirror"
)

// Summary describes the outcome of a single pass.
type Summary struct {
	Counts      map[mirror.EventKind]int
	BytesCopied int64
	Duration    time.Duration
}

// Summarize tallies `events`.
func Summarize(events []mirror.SyncEvent) Summary {
	summary := Summary{Counts: map[mirror.EventKind]int{}}
	for _, ev := range events {
		summary.Counts[ev.Kind]++
		if ev.Kind == mirror.FileCopied || ev.Kind == mirror.FileUpdated {
			summary.BytesCopied += ev.Size
		}
	}
	return summary
}

var summaryKinds = []mirror.EventKind{
	mirror.DirCreated,
	mirror.FileCopied,
	mirror.FileUpdated,
	mirror.FileDeleted,
	mirror.DirDeleted,
}

// Fields returns the non-zero counts of the summary, the bytes copied, and
// how long the pass took as log fields.
func (s Summary) Fields() logrus.Fields {
	fields := logrus.Fields{}
	for _, kind := range summaryKinds {
		if count := s.Counts[kind]; count > 0 {
			fields[fieldName(kind)] = count
		}
	}

	if s.BytesCopied > 0 {
		fields["bytes"] = humanize.Bytes(uint64(s.BytesCopied))
	}

	if s.Duration > 0 {
		fields["duration"] = s.Duration.Round(time.Millisecond).String()
	}
	return fields
}

// fieldName converts an event kind to a lower camel case field name, e.g.
// "fileCopied".
func fieldName(kind mirror.EventKind) string {
	name := kind.String()
	return strings.ToLower(name[:1]) + name[1:]
}
