package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/pos-register/internal/adapter/wire"
	"github.com/rl1809/pos-register/internal/core/domain"
	"github.com/rl1809/pos-register/internal/sim"
)

const maxCheckoutBody = 1 << 20

type HTTPHandler struct {
	catalog *sim.Catalog
	labels  wire.Labels
	logger  *zap.Logger
}

func NewHTTPHandler(catalog *sim.Catalog, labels wire.Labels, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, labels: labels, logger: logger}
}

// Routes mounts the register endpoints.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(h.logger))

	r.Get("/health", h.HealthCheck)
	r.Route("/pdv", func(r chi.Router) {
		r.Get("/search_product", h.SearchProduct)
		r.Post("/checkout", h.Checkout)
	})
	return r
}

func (h *HTTPHandler) SearchProduct(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	limit := sim.DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, wire.ErrorJSON{Error: "invalid limit"})
			return
		}
		limit = n
	}

	products := h.catalog.Search(query, limit)

	out := make([]wire.ProductJSON, 0, len(products))
	for _, p := range products {
		out = append(out, wire.ProductToJSON(p))
	}
	if len(out) == 0 && query != "" {
		h.logger.Debug("search matched nothing", zap.String("query", query))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body wire.CheckoutRequestJSON
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBody)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.CheckoutResponseJSON{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	req, err := wire.CheckoutFromJSON(body, h.labels)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, wire.CheckoutResponseJSON{
			Success: false,
			Message: domain.Message(err),
		})
		return
	}
	if req.RequestID == "" {
		req.RequestID = r.Header.Get("X-Request-ID")
	}

	result, err := h.catalog.Checkout(req)
	if err != nil {
		status := http.StatusInternalServerError
		message := "internal error processing the sale"

		if errors.Is(err, sim.ErrIncompleteSale) || errors.Is(err, sim.ErrProductNotFound) || errors.Is(err, sim.ErrInsufficientStock) {
			status = http.StatusBadRequest
			message = domain.Message(err)
		} else {
			h.logger.Error("checkout failed", zap.String("request_id", req.RequestID), zap.Error(err))
		}

		writeJSON(w, status, wire.CheckoutResponseJSON{
			Success: false,
			Message: message,
		})
		return
	}

	h.logger.Info("sale completed",
		zap.String("request_id", req.RequestID),
		zap.String("terminal_id", req.TerminalID),
		zap.Int("receipts", len(result.ReceiptDocuments)))
	writeJSON(w, http.StatusOK, wire.ResultToJSON(result))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AccessLog logs one line per request.
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
