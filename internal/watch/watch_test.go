package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/sectionrank/internal/collection"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounce = 100 * time.Millisecond

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func startWatcher(t *testing.T, root string) <-chan string {
	t.Helper()
	runs := make(chan string, 16)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := New(root, collection.DefaultLayout(), debounce, func(_ context.Context, dir string) {
		runs <- filepath.Base(dir)
	}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return runs
}

func next(t *testing.T, runs <-chan string) string {
	t.Helper()
	select {
	case name := <-runs:
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for re-run")
		return ""
	}
}

func TestWatcher_DebouncesDocumentChanges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Collection 1", "challenge1b_input.json"), "{}")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Collection 1", "PDFs"), 0o755))

	runs := startWatcher(t, root)

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		writeFile(t, filepath.Join(root, "Collection 1", "PDFs", name), "%PDF-1.4")
	}

	assert.Equal(t, "Collection 1", next(t, runs))
	select {
	case extra := <-runs:
		t.Fatalf("expected a single debounced run, got another for %q", extra)
	case <-time.After(3 * debounce):
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Collection 1", "PDFs"), 0o755))

	runs := startWatcher(t, root)

	writeFile(t, filepath.Join(root, "Collection 1", "PDFs", "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "Collection 1", "README.md"), "x")
	writeFile(t, filepath.Join(root, "stray.pdf"), "x")

	select {
	case name := <-runs:
		t.Fatalf("unexpected re-run for %q", name)
	case <-time.After(3 * debounce):
	}
}

func TestWatcher_PicksUpNewCollections(t *testing.T) {
	root := t.TempDir()
	runs := startWatcher(t, root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "Collection 2"), 0o755))
	assert.Equal(t, "Collection 2", next(t, runs))

	// The new directory is now watched: its input file triggers a re-run.
	writeFile(t, filepath.Join(root, "Collection 2", "challenge1b_input.json"), "{}")
	assert.Equal(t, "Collection 2", next(t, runs))
}

func TestClassify(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Collection 1", "PDFs"), 0o755))
	w := &Watcher{root: root, layout: collection.DefaultLayout()}

	cases := []struct {
		rel  string
		want bool
	}{
		{"Collection 1/challenge1b_input.json", true},
		{"Collection 1/PDFs/doc.pdf", true},
		{"Collection 1/PDFs/DOC.PDF", true},
		{"Collection 1/PDFs/.doc.pdf", false},
		{"Collection 1/PDFs/doc.docx", false},
		{"Collection 1/other.json", false},
		{"Other/challenge1b_input.json", false},
	}
	for _, tc := range cases {
		t.Run(tc.rel, func(t *testing.T) {
			ev := fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(tc.rel)), Op: fsnotify.Write}
			dir, ok := w.classify(ev)
			assert.Equal(t, tc.want, ok)
			if tc.want {
				assert.Equal(t, filepath.Join(root, "Collection 1"), dir)
			}
		})
	}
}
