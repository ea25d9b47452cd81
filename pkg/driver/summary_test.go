package driver

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/dirmirror/pkg/mirror"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		events    []mirror.SyncEvent
		duration  time.Duration
		expFields logrus.Fields
	}{
		{
			name:      "NoEvents",
			expFields: logrus.Fields{},
		},
		{
			name: "Mixed",
			events: []mirror.SyncEvent{
				{Kind: mirror.DirCreated},
				{Kind: mirror.FileCopied, Size: 1500},
				{Kind: mirror.FileUpdated, Size: 500},
				{Kind: mirror.FileDeleted},
				{Kind: mirror.DirDeleted},
				{Kind: mirror.OperationFailed},
			},
			expFields: logrus.Fields{
				"dirCreated":  1,
				"fileCopied":  1,
				"fileUpdated": 1,
				"fileDeleted": 1,
				"dirDeleted":  1,
				"bytes":       "2.0 kB",
			},
		},
		{
			name: "DeletesOnly",
			events: []mirror.SyncEvent{
				{Kind: mirror.FileDeleted},
				{Kind: mirror.FileDeleted},
			},
			duration:  1234567 * time.Microsecond,
			expFields: logrus.Fields{"fileDeleted": 2, "duration": "1.235s"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			summary := Summarize(test.events)
			summary.Duration = test.duration
			assert.Equal(t, test.expFields, summary.Fields())
		})
	}
}
