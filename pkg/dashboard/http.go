package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"
	"github.com/zyntel-ai/labops/pkg/analytics/filter"
	"github.com/zyntel-ai/labops/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dashboards/verify", h.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/dashboards/{kind}", h.handleRun).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{kind}/export", h.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/dashboards/{kind}/query", h.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/datasets/{kind}/refresh", h.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/units", h.handleUnits).Methods(http.MethodGet)
}

type queryRequest struct {
	Query string `json:"query"`
}

func requestFromQuery(r *http.Request) Request {
	q := r.URL.Query()
	top, _ := cast.ToIntE(q.Get("top"))
	return Request{
		Filter: filter.Config{
			StartDate:    q.Get("startDate"),
			EndDate:      q.Get("endDate"),
			Period:       q.Get("period"),
			LabSection:   q.Get("labSection"),
			Shift:        q.Get("shift"),
			HospitalUnit: q.Get("hospitalUnit"),
		},
		FocusUnit: q.Get("focusUnit"),
		TopN:      top,
	}
}

func (h *HTTPHandler) kind(w http.ResponseWriter, r *http.Request) (Kind, bool) {
	kind, err := ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return "", false
	}
	return kind, true
}

func (h *HTTPHandler) handleRun(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	res, err := h.service.Run(r.Context(), kind, requestFromQuery(r))
	if err != nil {
		writeError(w, err, "failed to run dashboard")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	group := r.URL.Query().Get("group")
	if group == "" {
		group = "day"
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), kind, requestFromQuery(r), group, &buf); err != nil {
		writeError(w, err, "failed to export dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+string(kind)+"-"+group+".csv\"")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *HTTPHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid query payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := h.service.Query(r.Context(), kind, req.Query)
	if err != nil {
		writeError(w, err, "failed to run query")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	var cfg filter.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		logger.Log.WithError(err).Warn("invalid filter payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res := h.service.Verify(cfg, h.service.clock())
	status := http.StatusOK
	if !res.Valid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func (h *HTTPHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kind(w, r)
	if !ok {
		return
	}
	if err := h.service.Refresh(r.Context(), kind); err != nil {
		writeError(w, err, "failed to refresh dataset")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"dataset": string(kind), "status": "refreshing"})
}

func (h *HTTPHandler) handleUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Catalog().Snapshot())
}

func writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrUnknownDashboard):
		http.Error(w, err.Error(), http.StatusNotFound)
	case filter.IsValidationError(err), errors.Is(err, ErrInvalidQuery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSourceFailed):
		logger.Log.WithError(err).Error(msg)
		http.Error(w, "upstream source unavailable", http.StatusBadGateway)
	default:
		logger.Log.WithError(err).Error(msg)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
