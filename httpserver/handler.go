package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ruteri/simpleweb/interfaces"
	"github.com/ruteri/simpleweb/metrics"
)

const (
	// PrincipalNameHeader carries the signed-in user name injected by the
	// fronting authentication proxy. It is displayed, never verified.
	PrincipalNameHeader = "X-MS-CLIENT-PRINCIPAL-NAME"

	// multipartMemory is the part of a multipart form kept in memory; the rest
	// spills to temporary files.
	multipartMemory = 8 << 20
)

// HealthChecker runs the composite health check.
type HealthChecker interface {
	Check(ctx context.Context) interfaces.AggregateHealth
}

// HandlerConfig holds request handling settings.
type HandlerConfig struct {
	// DefaultName is used for uploads submitted without a name.
	DefaultName string

	// MaxUploadBytes limits request bodies on upload endpoints.
	MaxUploadBytes int64
}

// Handler processes HTTP requests for SimpleWeb.
type Handler struct {
	storage interfaces.StorageProvider
	health  HealthChecker
	metrics *metrics.MetricsServer
	cfg     HandlerConfig
	views   views
	log     *slog.Logger
}

// NewHandler creates a new HTTP request handler with the specified dependencies.
//
// Parameters:
//   - storage: the single storage provider of the process
//   - health: composite health check backing /health
//   - metricsSrv: collectors for upload and health metrics, may be nil
//   - cfg: upload settings
//   - log: Structured logger for operational insights
func NewHandler(storage interfaces.StorageProvider, health HealthChecker, metricsSrv *metrics.MetricsServer, cfg HandlerConfig, log *slog.Logger) (*Handler, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	return &Handler{
		storage: storage,
		health:  health,
		metrics: metricsSrv,
		cfg:     cfg,
		views:   v,
		log:     log,
	}, nil
}

// HandleIndex renders the home page with the signed-in user, if any.
//
// URL format: GET /
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageIndex, pageData{Title: "Home"})
}

// HandlePrivacy renders the privacy policy.
//
// URL format: GET /Home/Privacy
func (h *Handler) HandlePrivacy(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pagePrivacy, pageData{Title: "Privacy Policy"})
}

// HandleUploadForm renders the upload form.
//
// URL format: GET /Home/Upload
func (h *Handler) HandleUploadForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageUpload, pageData{Title: "Upload", DefaultName: h.cfg.DefaultName})
}

// HandleUpload stores a file submitted from the upload form.
//
// URL format: POST /Home/Upload
// Request body: multipart/form-data with
//   - file: the content to store (required)
//   - name: object name (optional, defaults to Storage:FileName)
//
// Response: the upload page showing the stored reference.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.observeUpload(metrics.ResultInvalid, 0)
		if isTooLarge(err) {
			http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.observeUpload(metrics.ResultInvalid, 0)
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := h.objectName(r.FormValue("name"))
	ref, err := h.storage.Write(r.Context(), name, file)
	if err != nil {
		h.log.Error("Upload failed", "err", err, slog.String("name", name))
		h.observeUpload(resultFor(err), 0)
		writeStorageError(w, err)
		return
	}
	h.observeUpload(metrics.ResultOK, header.Size)

	h.log.Info("Stored upload",
		slog.String("ref", ref.String()),
		slog.Int64("size", header.Size))

	h.render(w, r, http.StatusOK, pageUpload, pageData{
		Title:       "Upload",
		DefaultName: h.cfg.DefaultName,
		Ref:         &ref,
	})
}

// HandleError renders the generic error page.
//
// URL format: GET /Home/Error
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageError, pageData{
		Title:     "Error",
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// HandlePutFile stores the raw request body under the name in the URL.
//
// URL format: PUT /api/files/{name}
//
// Response: 201 with JSON {"id": "...", "kind": "Local"|"Remote"}
func (h *Handler) HandlePutFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	ref, err := h.storage.Write(r.Context(), name, body)
	if err != nil {
		h.log.Error("Upload failed", "err", err, slog.String("name", name))
		h.observeUpload(resultFor(err), 0)
		writeStorageError(w, err)
		return
	}
	h.observeUpload(metrics.ResultOK, r.ContentLength)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ref); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// HandleGetFile streams a stored object.
//
// URL format: GET /api/files/{name}
func (h *Handler) HandleGetFile(w http.ResponseWriter, r *http.Request) {
	ref := interfaces.StoredObjectRef{ID: chi.URLParam(r, "*"), Kind: h.storage.Kind()}

	body, err := h.storage.Read(r.Context(), ref)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			h.log.Error("Read failed", "err", err, slog.String("ref", ref.String()))
		}
		writeStorageError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("Failed to stream object", "err", err, slog.String("ref", ref.String()))
	}
}

// HandleHealth runs all health probes and reports the aggregate.
//
// URL format: GET /health
//
// Response: JSON {"status": "Healthy", "results": [{"name": "...", "status": "...", "detail": "..."}]}
// The status code is 503 when the aggregate is Unhealthy, 200 otherwise.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())
	if h.metrics != nil {
		h.metrics.ObserveHealth(report.Status)
	}

	status := http.StatusOK
	if report.Status == interfaces.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.User = strings.TrimSpace(r.Header.Get(PrincipalNameHeader))
	if err := h.views.render(w, status, page, data); err != nil {
		h.log.Error("Failed to render view", "err", err, slog.String("page", page))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) objectName(requested string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}
	return h.cfg.DefaultName
}

func (h *Handler) observeUpload(result string, size int64) {
	if h.metrics != nil {
		h.metrics.ObserveUpload(result, size)
	}
}

// writeStorageError maps storage errors to HTTP status codes.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case isTooLarge(err):
		http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, interfaces.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, interfaces.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, interfaces.ErrStorageUnavailable):
		http.Error(w, "Storage unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, fmt.Sprintf("Storage error: %v", err), http.StatusInternalServerError)
	}
}

func resultFor(err error) string {
	if errors.Is(err, interfaces.ErrInvalidName) || isTooLarge(err) {
		return metrics.ResultInvalid
	}
	return metrics.ResultError
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
