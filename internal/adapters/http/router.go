package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/config"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

const xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Router struct {
	cfg config.Config

	ingestUC      ports.ApplicationIngestor
	submissionsUC ports.SubmissionReader
	reviewUC      ports.DraftReviewer
	exportUC      ports.RegisterExporter
	maintenanceUC ports.CacheMaintainer

	metrics http.Handler
}

func NewRouter(
	cfg config.Config,
	ingestUC ports.ApplicationIngestor,
	submissionsUC ports.SubmissionReader,
	reviewUC ports.DraftReviewer,
	exportUC ports.RegisterExporter,
	maintenanceUC ports.CacheMaintainer,
) *Router {
	return &Router{
		cfg:           cfg,
		ingestUC:      ingestUC,
		submissionsUC: submissionsUC,
		reviewUC:      reviewUC,
		exportUC:      exportUC,
		maintenanceUC: maintenanceUC,
	}
}

// WithMetrics mounts a metrics endpoint on /metrics.
func (rt *Router) WithMetrics(handler http.Handler) *Router {
	rt.metrics = handler
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)

	mux.HandleFunc("POST /v1/applications", rt.uploadApplication)
	mux.HandleFunc("GET /v1/submissions/{id}", rt.getSubmissionByID)

	mux.HandleFunc("GET /v1/drafts", rt.listDrafts)
	mux.HandleFunc("DELETE /v1/drafts", rt.purgeDrafts)
	mux.HandleFunc("GET /v1/drafts/{id}", rt.getDraftByID)
	mux.HandleFunc("POST /v1/drafts/{id}/approve", rt.approveDraft)
	mux.HandleFunc("POST /v1/drafts/{id}/reject", rt.rejectDraft)
	mux.HandleFunc("GET /v1/drafts/{id}/artifacts/{kind}", rt.downloadArtifact)

	mux.HandleFunc("GET /v1/register", rt.exportRegister)
	mux.HandleFunc("DELETE /v1/cache", rt.clearCache)

	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics)
	}

	var handler http.Handler = mux
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, defaultBackpressureWait)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadApplication(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(rt.cfg.APIMaxUploadMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("upload exceeds %d MB", rt.cfg.APIMaxUploadMB),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	submission, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, submission)
}

func (rt *Router) getSubmissionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "submission id is required"})
		return
	}

	submission, err := rt.submissionsUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

func (rt *Router) listDrafts(w http.ResponseWriter, r *http.Request) {
	state := domain.DraftState(strings.TrimSpace(r.URL.Query().Get("state")))

	drafts, err := rt.reviewUC.List(r.Context(), state)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (rt *Router) getDraftByID(w http.ResponseWriter, r *http.Request) {
	draft, err := rt.reviewUC.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) approveDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := rt.reviewUC.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) rejectDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	draft, err := rt.reviewUC.Reject(r.Context(), r.PathValue("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) purgeDrafts(w http.ResponseWriter, r *http.Request) {
	count, err := rt.reviewUC.PurgeAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": count})
}

func (rt *Router) downloadArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := domain.ArtifactKind(r.PathValue("kind"))

	artifact, err := rt.reviewUC.Artifact(r.Context(), id, kind)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Content)
}

func (rt *Router) exportRegister(w http.ResponseWriter, r *http.Request) {
	data, filename, err := rt.exportUC.ExportRegister(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) clearCache(w http.ResponseWriter, r *http.Request) {
	count, err := rt.maintenanceUC.ClearExtractionCache(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": count})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
