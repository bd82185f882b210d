package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/sectionrank/internal/pipeline"
	"github.com/dgallion1/sectionrank/internal/rank"
	"github.com/stretchr/testify/assert"
)

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name string
		sum  pipeline.Summary
		want string
	}{
		{"all ok", pipeline.Summary{Collections: 2, Documents: 5}, "OK"},
		{"some failed", pipeline.Summary{Collections: 1, Documents: 3, Failed: 1}, "PARTIAL"},
		{"skipped collection", pipeline.Summary{Collections: 1, CollectionsSkipped: 1, Documents: 1}, "PARTIAL"},
		{"all failed", pipeline.Summary{Collections: 1, Documents: 2, Failed: 2}, "FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatSummary(&buf, tt.sum)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestConsole_Events(t *testing.T) {
	var buf bytes.Buffer
	c := newConsole(&buf)
	job := pipeline.NewJob("Collection 1", "menu.pdf", rank.Query{}, nil)

	c.DocumentStarted(job)
	c.DocumentWritten(job, "output/Collection 1_menu.json")
	c.DocumentFailed(job, errors.New("boom"))
	c.CollectionSkipped("Collection 2", errors.New("missing input"))

	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, "\n"))
	assert.Contains(t, out, "output/Collection 1_menu.json")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "Collection 2")
}

var _ pipeline.Observer = (*console)(nil)
var _ pipeline.CollectionObserver = (*console)(nil)
