package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/subglot/subglot/internal/matcher"
	"github.com/subglot/subglot/internal/service"
	"github.com/subglot/subglot/internal/tmdb"
	"github.com/subglot/subglot/pkg/file"
	"github.com/subglot/subglot/pkg/log"
)

// AvailableModels lists the model identifiers the UI may pick from.
var AvailableModels = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
}

// handleUploadFiles receives a multipart batch, resets the upload
// directory and returns subtitle/video pairings for the new batch.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.runner.Busy() {
		writeError(w, http.StatusConflict, "a translation job is running, try again later")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart upload")
		return
	}

	if err := resetDir(s.uploadDir); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var subtitles, videos, ignored, saved []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "broken multipart stream")
			return
		}
		if part.FileName() == "" {
			continue
		}

		name := file.SafeBaseName(part.FileName())
		if name == "" {
			ignored = append(ignored, part.FileName())
			continue
		}
		kind := matcher.Classify(name)
		if kind == matcher.KindOther {
			ignored = append(ignored, name)
			continue
		}

		if err := saveUpload(filepath.Join(s.uploadDir, name), part); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store %s: %v", name, err))
			return
		}
		saved = append(saved, name)
		switch kind {
		case matcher.KindSubtitle:
			subtitles = append(subtitles, name)
		case matcher.KindVideo:
			videos = append(videos, name)
		}
		s.broadcaster.PublishProgress("Processing files", len(saved), len(saved), name)
	}

	pairs := matcher.Match(subtitles, videos)
	log.Info("Upload: %d subtitles, %d videos, %d ignored, %d pairs",
		len(subtitles), len(videos), len(ignored), len(pairs))
	writeJSON(w, http.StatusOK, pairs)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return err
	}
	return dst.Close()
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// handleTranslate starts a translation run over the selected files.
// Any keys besides selected_files are settings overrides for the run.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	pairs, err := selectedPairs(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(pairs) == 0 {
		writeError(w, http.StatusBadRequest, "no files selected for translation")
		return
	}
	delete(body, "selected_files")

	results, err := s.runner.Run(r.Context(), pairs, body)
	switch {
	case errors.Is(err, service.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, service.ErrNoSelection):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if results == nil {
		results = []service.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

// selectedPairs decodes the selected_files field. Entries are either the
// {subtitle, video} objects /upload_files/ returns or bare file names.
func selectedPairs(body map[string]any) ([]matcher.Pair, error) {
	raw, ok := body["selected_files"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("selected_files must be an array of pairs or file names")
	}
	pairs := make([]matcher.Pair, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("selected_files entries must not be empty")
			}
			pairs = append(pairs, pairFromNames(v, ""))
		case map[string]any:
			sub, _ := v["subtitle"].(string)
			vid, _ := v["video"].(string)
			if sub == "" && vid == "" {
				return nil, fmt.Errorf("selected_files entries must name a subtitle or video file")
			}
			pairs = append(pairs, pairFromNames(sub, vid))
		default:
			return nil, fmt.Errorf("selected_files must be an array of pairs or file names")
		}
	}
	return pairs, nil
}

func pairFromNames(subtitle, video string) matcher.Pair {
	var pair matcher.Pair
	if name := file.SafeBaseName(subtitle); name != "" {
		pair.Subtitle = &matcher.MediaFile{Path: name, Kind: matcher.Classify(name), BaseName: matcher.BaseName(name)}
	}
	if name := file.SafeBaseName(video); name != "" {
		pair.Video = &matcher.MediaFile{Path: name, Kind: matcher.Classify(name), BaseName: matcher.BaseName(name)}
	}
	// A bare name selects whichever side its extension says it is.
	if pair.Video == nil && pair.Subtitle != nil && pair.Subtitle.Kind == matcher.KindVideo {
		pair.Video, pair.Subtitle = pair.Subtitle, nil
	}
	switch {
	case pair.Subtitle != nil && pair.Video != nil:
		pair.Status = matcher.StatusMatched
	case pair.Subtitle != nil:
		pair.Status = matcher.StatusSubtitleOnly
	default:
		pair.Status = matcher.StatusVideoOnly
	}
	return pair
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.settings.Get())
	case http.MethodPost:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		updated, err := s.settings.Update(fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, AvailableModels)
}

func (s *Server) handleTMDBInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "tmdb lookup not configured")
		return
	}

	filename := r.URL.Query().Get("filename")
	if decoded, err := url.QueryUnescape(filename); err == nil {
		filename = decoded
	}
	if strings.TrimSpace(filename) == "" {
		writeError(w, http.StatusBadRequest, "missing filename parameter")
		return
	}

	isTV := s.settings.Get().IsTVSeries
	if v := r.URL.Query().Get("is_tv"); v != "" {
		isTV = v == "true" || v == "1"
	}

	info, err := tmdb.Lookup(r.Context(), s.searcher, filename, isTV)
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		writeError(w, http.StatusNotFound, "no tmdb match for "+filename)
		return
	case errors.Is(err, tmdb.ErrNoAPIKey):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleDownload serves a finished translation, falling back to the
// original upload when no translated copy exists.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/download/")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = file.SafeBaseName(name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing file name")
		return
	}

	for _, dir := range []string{s.translatedDir, s.uploadDir} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
			http.ServeFile(w, r, path)
			return
		}
	}
	writeError(w, http.StatusNotFound, "file not found: "+name)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.cache.Len(r.Context())
	if err != nil {
		count = 0
	}
	if err := s.cache.Clear(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	log.Info("Translation cache cleared (%d entries)", count)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("cleared %d cached translations", count),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
