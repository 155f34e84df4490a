package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mdobak/go-xerrors"
	"github.com/rs/cors"
	chorus "github.com/tphakala/go-chorus"
)

// extractor is the part of chorus.Extractor the handlers use.
type extractor interface {
	Extract(ctx context.Context, req chorus.Request) (*chorus.Result, error)
}

type server struct {
	cfg     serviceConfig
	ex      extractor
	ledger  *ledger
	logger  *slog.Logger
	started time.Time
	now     func() time.Time
}

func newServer(cfg serviceConfig, ex extractor, l *ledger, logger *slog.Logger) *server {
	return &server{
		cfg:     cfg,
		ex:      ex,
		ledger:  l,
		logger:  logger,
		started: time.Now(),
		now:     time.Now,
	}
}

type apiError struct {
	Detail string `json:"detail"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type extractResponse struct {
	Success        bool    `json:"success"`
	ChorusStartSec float64 `json:"chorus_start_sec"`
	DurationSec    float64 `json:"duration_sec"`
	Score          float64 `json:"score"`
	SampleRate     int     `json:"sample_rate"`
	BitDepth       int     `json:"bit_depth"`
	OutputFilePath string  `json:"output_file_path"`
	Message        string  `json:"message"`
	FileID         string  `json:"file_id"`
}

type cleanupResponse struct {
	Message string `json:"message"`
	FileID  string `json:"file_id"`
}

type formatsResponse struct {
	SupportedFormats []string `json:"supported_formats"`
	DecodableFormats []string `json:"decodable_formats"`
	MaxFileSize      string   `json:"max_file_size"`
	MaxDuration      string   `json:"max_duration"`
}

// handler returns the routed service with CORS applied.
func (s *server) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/supported-formats", s.handleFormats).Methods(http.MethodGet)
	r.HandleFunc("/extract-chorus", s.handleExtract).Methods(http.MethodPost)
	r.HandleFunc("/download/{file_id}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/cleanup/{file_id}", s.handleCleanup).Methods(http.MethodDelete)

	return cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Version: serviceVersion,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *server) handleFormats(w http.ResponseWriter, _ *http.Request) {
	exts := make([]string, 0, len(chorus.SupportedExtensions()))
	for _, e := range chorus.SupportedExtensions() {
		exts = append(exts, "."+e)
	}
	decodable := make([]string, 0, len(chorus.DecodableExtensions()))
	for _, e := range chorus.DecodableExtensions() {
		decodable = append(decodable, "."+e)
	}
	writeJSON(w, http.StatusOK, formatsResponse{
		SupportedFormats: exts,
		DecodableFormats: decodable,
		MaxFileSize:      fmt.Sprintf("%dMB", s.cfg.MaxFileSize/bytesPerMB),
		MaxDuration:      fmt.Sprintf("%.0f seconds", s.cfg.MaxDuration),
	})
}

func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, s.sizeMessage())
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid upload payload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !chorus.IsSupportedFile(header.Filename) {
		writeJSONError(w, http.StatusUnsupportedMediaType, fmt.Sprintf(
			"Invalid file type. Supported formats: %s", strings.Join(chorus.SupportedExtensions(), ", ")))
		return
	}
	if header.Size > s.cfg.MaxFileSize {
		writeJSONError(w, http.StatusRequestEntityTooLarge, s.sizeMessage())
		return
	}

	duration, err := s.formDuration(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	quality, err := chorus.ParseQualityTier(formValue(r, "quality", defaultQuality))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	fileID := uuid.NewString()
	s.logger.Info("processing upload",
		slog.String("file_id", fileID),
		slog.String("name", header.Filename),
		slog.Float64("duration", duration),
		slog.String("quality", quality.String()))

	res, err := s.ex.Extract(ctx, chorus.Request{
		Audio:           audio,
		FormatHint:      header.Filename,
		DurationSeconds: duration,
		Quality:         quality,
	})
	if err != nil {
		s.writeExtractError(w, fileID, err)
		return
	}

	path, err := s.store(ctx, fileID, header.Filename, quality, res)
	if err != nil {
		s.logger.Error("storing chorus", slog.String("file_id", fileID), slog.Any("error", xerrors.New(err)))
		writeJSONError(w, http.StatusInternalServerError, "could not store extracted chorus")
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Success:        true,
		ChorusStartSec: res.ChorusStartSeconds,
		DurationSec:    res.DurationSeconds,
		Score:          res.Score,
		SampleRate:     res.SampleRate,
		BitDepth:       res.BitDepth,
		OutputFilePath: path,
		Message:        "Chorus extracted successfully",
		FileID:         fileID,
	})
}

func (s *server) store(ctx context.Context, id, source string, q chorus.QualityTier, res *chorus.Result) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, outputDirPerm); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.OutputDir, id+outputSuffix)
	if err := os.WriteFile(path, res.Audio, outputPerm); err != nil {
		return "", err
	}
	err := s.ledger.record(ctx, entry{
		ID:              id,
		Path:            path,
		SourceName:      filepath.Base(source),
		Quality:         q.String(),
		StartSeconds:    res.ChorusStartSeconds,
		DurationSeconds: res.DurationSeconds,
		CreatedAt:       s.now(),
	})
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	e, err := s.ledger.lookup(r.Context(), id)
	if errors.Is(err, errNotFound) {
		writeJSONError(w, http.StatusNotFound, "File not found. It may have expired or been deleted.")
		return
	}
	if err != nil {
		s.logger.Error("download lookup", slog.String("file_id", id), slog.Any("error", xerrors.New(err)))
		writeJSONError(w, http.StatusInternalServerError, "Error downloading file")
		return
	}

	f, err := os.Open(e.Path)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "File not found. It may have expired or been deleted.")
		return
	}
	defer f.Close()

	name := id + outputSuffix
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, e.CreatedAt, f)
}

func (s *server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.remove(r.Context(), id); err != nil {
		s.logger.Error("cleanup", slog.String("file_id", id), slog.Any("error", xerrors.New(err)))
		writeJSONError(w, http.StatusInternalServerError, "Error cleaning up files")
		return
	}
	writeJSON(w, http.StatusOK, cleanupResponse{Message: "Files cleaned up successfully", FileID: id})
}

// sweep removes files past their retention.
func (s *server) sweep(ctx context.Context) {
	n, err := s.ledger.expire(ctx, s.now().Add(-s.cfg.retention()))
	if err != nil {
		s.logger.Error("retention sweep", slog.Int("removed", n), slog.Any("error", xerrors.New(err)))
		return
	}
	if n > 0 {
		s.logger.Info("retention sweep", slog.Int("removed", n))
	}
}

// runSweeper sweeps on an interval until ctx is done.
func (s *server) runSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *server) writeExtractError(w http.ResponseWriter, id string, err error) {
	status := statusFor(err)
	attrs := []any{slog.String("file_id", id), slog.Int("status", status)}
	if status >= http.StatusInternalServerError {
		s.logger.Error("extraction failed", append(attrs, slog.Any("error", xerrors.New(err)))...)
	} else {
		s.logger.Info("extraction rejected", append(attrs, slog.String("error", err.Error()))...)
	}
	if errors.Is(err, chorus.ErrPoolSaturated) {
		w.Header().Set("Retry-After", "5")
	}
	writeJSONError(w, status, err.Error())
}

// statusFor maps extraction errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chorus.ErrInvalidDuration), errors.Is(err, chorus.ErrInvalidQuality):
		return http.StatusBadRequest
	case errors.Is(err, chorus.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, chorus.ErrTrackTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, chorus.ErrCorruptAudio), errors.Is(err, chorus.ErrNoChorusDetected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chorus.ErrProcessingTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, chorus.ErrPoolSaturated), errors.Is(err, chorus.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) formDuration(r *http.Request) (float64, error) {
	raw := formValue(r, "duration", "")
	if raw == "" {
		return s.cfg.DefaultDuration, nil
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("duration must be a number of seconds, got %q", raw)
	}
	return d, nil
}

func (s *server) sizeMessage() string {
	return fmt.Sprintf("File too large. Maximum size is %dMB", s.cfg.MaxFileSize/bytesPerMB)
}

func formValue(r *http.Request, key, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return fallback
}

// fileID extracts and validates the file_id path variable.
func fileID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["file_id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid file id")
		return "", false
	}
	return id.String(), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Warn("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Detail: message})
}
