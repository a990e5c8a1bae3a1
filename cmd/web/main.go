package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"thumb-forge-ai/internal/gemini"
	"thumb-forge-ai/internal/httpclient"
	"thumb-forge-ai/internal/telegram"
	"thumb-forge-ai/internal/thumb"
)

type server struct {
	pipe       *thumb.Pipeline
	model      string
	reqTimeout time.Duration
	logger     *slog.Logger
}

type apiError struct {
	Error string `json:"error"`
}

type generateResponse struct {
	URL         string                     `json:"url"`
	Elements    []thumb.TextElement        `json:"elements"`
	RefAnalysis thumb.DesignSystemAnalysis `json:"ref_analysis"`
}

func main() {
	_ = godotenv.Load()

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		panic("GEMINI_API_KEY is required")
	}

	addr := strings.TrimSpace(getEnv("WEB_ADDR", ":8080"))

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: getEnvBool("PREFER_IPV4", true),
	})

	gem := gemini.New(gemini.Options{
		APIKey:      apiKey,
		BaseURL:     strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		APIVersion:  strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		VisionModel: strings.TrimSpace(getEnv("GEMINI_VISION_MODEL", "")),
		ImageModel:  strings.TrimSpace(getEnv("GEMINI_IMAGE_MODEL", "")),
		HTTPClient:  httpClient,
		Logger:      logger,
	})

	pipe := thumb.NewPipeline(gem, logger, thumb.Timeouts{
		Analysis:  time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 60)) * time.Second,
		Synthesis: time.Duration(getEnvInt("SYNTHESIS_TIMEOUT_SECONDS", 180)) * time.Second,
		Text:      time.Duration(getEnvInt("TEXT_TIMEOUT_SECONDS", 30)) * time.Second,
	})

	s := &server{
		pipe:       pipe,
		model:      gem.ImageModel(),
		reqTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 240)) * time.Second,
		logger:     logger,
	}
	if s.reqTimeout <= 0 {
		s.reqTimeout = 240 * time.Second
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/objectives", s.handleObjectives)
	mux.HandleFunc("/api/upload", s.handleUpload)
	mux.HandleFunc("/api/health", s.handleHealth)

	srv := &http.Server{
		Addr:              addr,
		Handler:           withLogging(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       90 * time.Second,
	}

	logger.Info("web started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	const maxUploadBytes = 25 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	brief := strings.TrimSpace(r.FormValue("prompt"))

	similarity := 60
	if raw := strings.TrimSpace(r.FormValue("similarity")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			similarity = v
		}
	}

	person, err := readFormImage(r, "person_image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read person_image"})
		return
	}
	reference, err := readFormImage(r, "reference_image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read reference_image"})
		return
	}
	extra, err := readFormImage(r, "extra_elements")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "failed to read extra_elements"})
		return
	}

	if brief == "" && person == nil && reference == nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "envie pelo menos um prompt ou uma imagem"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.reqTimeout)
	defer cancel()

	result, err := s.pipe.Generate(ctx, thumb.Request{
		Objective:  strings.TrimSpace(r.FormValue("objective")),
		Brief:      brief,
		Similarity: similarity,
		Person:     person,
		Reference:  reference,
		Extra:      extra,
	})
	if err != nil {
		s.logger.Error("generation failed", "err", err)

		var se *gemini.SynthesisError
		if errors.As(err, &se) {
			writeJSON(w, http.StatusBadGateway, apiError{Error: se.Error()})
			return
		}
		writeJSON(w, http.StatusBadGateway, apiError{Error: err.Error()})
		return
	}

	elements := result.Elements
	if elements == nil {
		elements = []thumb.TextElement{}
	}

	writeJSON(w, http.StatusOK, generateResponse{
		URL:         "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(result.Image),
		Elements:    elements,
		RefAnalysis: result.Analysis,
	})
}

func (s *server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, thumb.Objectives())
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	const maxUploadBytes = 25 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	img, err := readFormImage(r, "file")
	if err != nil || img == nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing file"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url": "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  s.model,
	})
}

// readFormImage reads an optional multipart file field. A missing field is
// (nil, nil), not an error.
func readFormImage(r *http.Request, field string) (*gemini.ImageInput, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &gemini.ImageInput{
		Data:     data,
		MimeType: telegram.NormalizeMime(header.Header.Get("Content-Type"), data),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func withLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}
