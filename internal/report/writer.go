package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Encode renders a report as 4-space indented JSON without HTML escaping.
func Encode(rep *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rep); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// FileWriter writes reports into a single output directory.
type FileWriter struct {
	Dir string
}

// FileName is "{collection}_{document stem}.json".
func FileName(collection, document string) string {
	stem := strings.TrimSuffix(document, filepath.Ext(document))
	return collection + "_" + stem + ".json"
}

// Write stores rep and returns the path written.
func (w FileWriter) Write(rep *Report) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	data, err := Encode(rep)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.Dir, FileName(rep.Metadata.Collection, rep.Metadata.Document))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
