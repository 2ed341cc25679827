package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/logger"
	"rentchain-backend/internal/service"
)

// QueryHandler serves the public read-only views of the marketplace over
// plain HTTP, next to the gRPC API.
type QueryHandler struct {
	ledger     service.LedgerService
	escrow     service.EscrowService
	properties service.PropertyService
	disputes   service.DisputeService
	events     service.EventService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(core *service.Core) *QueryHandler {
	return &QueryHandler{
		ledger:     core.Ledger,
		escrow:     core.Vault,
		properties: core.Properties,
		disputes:   core.Disputes,
		events:     core.Events,
	}
}

// HandleHealth reports whether the store answers a read.
func (h *QueryHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := h.ledger.TotalSupply(ctx); err != nil {
		logger.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *QueryHandler) HandleFees(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.escrow.FeeSchedule())
}

func (h *QueryHandler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.ledger.TotalSupply(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	escrowed, err := h.escrow.TotalEscrowed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total_supply": supply, "total_escrowed": escrowed})
}

func (h *QueryHandler) HandleListedProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.properties.ListListed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": nonNil(props)})
}

func (h *QueryHandler) HandleProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.properties.GetProperty(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *QueryHandler) HandleDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.disputes.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"disputes": nonNil(disputes)})
}

func (h *QueryHandler) HandleDispute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := h.disputes.GetDispute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleEvents pages through the event log with ?after=<seq>&limit=<n>.
func (h *QueryHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	after, err := queryInt(q.Get("after"), 0, math.MaxInt64)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(q.Get("limit"), 100, maxEventPage)
	if err != nil {
		writeError(w, err)
		return
	}
	events, err := h.events.ListEvents(r.Context(), after, int32(limit))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": nonNil(events)})
}

// RegisterQueryRoutes registers the read-only HTTP endpoints and the
// Prometheus scrape endpoint.
func RegisterQueryRoutes(router *mux.Router, core *service.Core) {
	handler := NewQueryHandler(core)
	router.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/fees", handler.HandleFees).Methods("GET")
	api.HandleFunc("/supply", handler.HandleSupply).Methods("GET")
	api.HandleFunc("/properties", handler.HandleListedProperties).Methods("GET")
	api.HandleFunc("/properties/{id:[0-9]+}", handler.HandleProperty).Methods("GET")
	api.HandleFunc("/disputes", handler.HandleDisputes).Methods("GET")
	api.HandleFunc("/disputes/{id:[0-9]+}", handler.HandleDispute).Methods("GET")
	api.HandleFunc("/events", handler.HandleEvents).Methods("GET")
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, domain.Errorf(domain.KindInvalidArgument, "invalid %s", name)
	}
	return id, nil
}

// maxEventPage is the largest page ListEvents serves.
const maxEventPage = 500

func queryInt(v string, def, upper int64) (int64, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 || n > upper {
		return 0, domain.Errorf(domain.KindInvalidArgument, "invalid query value %q", v)
	}
	return n, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindInvalidArgument: http.StatusBadRequest,
	domain.KindUnauthorized:    http.StatusForbidden,
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	code, ok := kindStatus[kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	msg := "internal error"
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Error()
	} else {
		logger.Error("HTTP query failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": msg, "kind": string(kind)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write HTTP response", "error", err)
	}
}
