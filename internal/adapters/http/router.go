package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/shelf-inspector/internal/config"
	"github.com/kirillkom/shelf-inspector/internal/core/domain"
	"github.com/kirillkom/shelf-inspector/internal/core/ports"
	"github.com/kirillkom/shelf-inspector/internal/imaging"
	"github.com/kirillkom/shelf-inspector/internal/observability/metrics"
)

const imageField = "image"

type Router struct {
	analyzer ports.ImageAnalyzer
	ingestor ports.ImageIngestor

	apiKey              string
	maxUploadBytes      int64
	rateLimitRPS        float64
	rateLimitBurst      int
	backpressureMax     int
	backpressureTimeout time.Duration

	metrics     *metrics.HTTPServerMetrics
	serviceName string
}

func NewRouter(cfg config.Config, analyzer ports.ImageAnalyzer, ingestor ports.ImageIngestor) *Router {
	maxUpload := cfg.APIMaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Router{
		analyzer:            analyzer,
		ingestor:            ingestor,
		apiKey:              cfg.APIKey,
		maxUploadBytes:      maxUpload,
		rateLimitRPS:        cfg.APIRateLimitRPS,
		rateLimitBurst:      cfg.APIRateLimitBurst,
		backpressureMax:     cfg.APIBackpressureMaxInFlight,
		backpressureTimeout: cfg.APIBackpressureWaitTimeout,
	}
}

// WithMetrics exposes /metrics and records request metrics under service.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics, service string) *Router {
	rt.metrics = m
	rt.serviceName = service
	return rt
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/v1/analyze", rt.analyzeImage)
	api.HandleFunc("/v1/images", rt.submitImage)

	var guarded http.Handler = api
	guarded = rt.authMiddleware(guarded)
	if rt.backpressureMax > 0 {
		guarded = backpressureGate(guarded, rt.backpressureMax, rt.backpressureTimeout, rt.rejected("backpressure"))
	}
	if rt.rateLimitRPS > 0 {
		guarded = rateLimitGate(guarded, rt.rateLimitRPS, rt.rateLimitBurst, rt.rejected("rate_limit"))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/v1/", guarded)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) rejected(reason string) func() {
	if rt.metrics == nil {
		return nil
	}
	return func() { rt.metrics.RecordRejected(rt.serviceName, reason) }
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) analyzeImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, _, _, err := rt.imagePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	img, _, err := imaging.Decode(body)
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := rt.analyzer.Analyze(r.Context(), img)
	if err != nil {
		writeError(w, err)
		return
	}

	if debug, _ := strconv.ParseBool(r.URL.Query().Get("debug")); debug {
		writeJSON(w, http.StatusOK, analysis)
		return
	}
	writeJSON(w, http.StatusOK, analysis.Response)
}

func (rt *Router) submitImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, filename, mimeType, err := rt.imagePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	submission, err := rt.ingestor.Upload(r.Context(), filename, mimeType, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submission)
}

// imagePayload accepts either a multipart form with an "image" field or a
// raw image body.
func (rt *Router) imagePayload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") || contentType == "application/octet-stream" {
		return r.Body, "upload", contentType, nil
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", "", domain.WrapError(domain.ErrInvalidInput, "read upload", err)
		}
		return nil, "", "", domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("multipart field 'image' is required"))
	}
	return file, header.Filename, header.Header.Get("Content-Type"), nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
