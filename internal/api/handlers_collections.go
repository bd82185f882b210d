package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/sectionrank/internal/collection"
	"github.com/dgallion1/sectionrank/internal/parser"
	"github.com/dgallion1/sectionrank/internal/pipeline"
	"github.com/dgallion1/sectionrank/internal/rank"
)

const defaultCollectionName = "Upload"

// handleCollection accepts one collection: a persona/task query and the
// documents to rank against it. The query is embedded once; every file gets
// its own job.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	q, status, err := s.queryFromForm(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	name := strings.TrimSpace(r.FormValue("collection"))
	if name == "" {
		name = defaultCollectionName
	}
	name = sanitizeFilename(name)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	queryVec, err := rank.EmbedQuery(r.Context(), s.orchestrator.Embedder(), q)
	if err != nil {
		s.log.Error("query embedding failed", "collection", name, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"document": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"document": filename,
				"error":    "failed to open file",
			})
			continue
		}
		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"document": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job := pipeline.NewJob(name, filename, q, queryVec)
		job.SetFileData(data)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"document": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"document":   filename,
			"job_id":     job.ID,
			"status":     pipeline.StatusQueued,
			"poll_url":   fmt.Sprintf("/api/jobs/%s/status", job.ID),
			"report_url": fmt.Sprintf("/api/jobs/%s/report", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"collection": name,
		"persona":    q.Persona,
		"task":       q.Task,
		"jobs":       results,
	})
}

// queryFromForm reads the query from an "input" JSON file when present,
// otherwise from the persona and task fields.
func (s *Server) queryFromForm(r *http.Request) (rank.Query, int, error) {
	if file, _, err := r.FormFile("input"); err == nil {
		defer file.Close()
		in, err := collection.ReadInput(file)
		if err != nil {
			var invalid *collection.InvalidInputError
			if errors.As(err, &invalid) {
				return rank.Query{}, http.StatusBadRequest, fmt.Errorf("invalid input: %s", strings.Join(invalid.Reasons, "; "))
			}
			return rank.Query{}, http.StatusBadRequest, err
		}
		return in.Query(), 0, nil
	}

	q := rank.Query{
		Persona: strings.TrimSpace(r.FormValue("persona")),
		Task:    strings.TrimSpace(r.FormValue("task")),
	}
	if q.Persona == "" || q.Task == "" {
		return rank.Query{}, http.StatusBadRequest, errors.New("persona and task are required")
	}
	return q, 0, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
