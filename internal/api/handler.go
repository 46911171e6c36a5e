package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"golang.org/x/crypto/bcrypt"

	"pharmamind/m/internal/ledger"
	"pharmamind/m/internal/pricing"
	"pharmamind/m/internal/store"
)

// Options configures the HTTP layer.
type Options struct {
	Secret string
	// PasswordHash is the bcrypt hash of the owner passcode. Empty disables authentication.
	PasswordHash   []byte
	RateLimit      string
	CORSOrigins    []string
	ReportLocation *time.Location
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	ledger  *ledger.Service
	history *pricing.Index
	engine  *pricing.Engine
	rate    limiter.Rate
	opts    Options

	// invoiceMu keeps the history index in the same order as the store.
	invoiceMu sync.Mutex
}

// New constructs a Handler and loads the purchase history index.
func New(ctx context.Context, s *store.Store, opts Options) (*Handler, error) {
	if opts.RateLimit == "" {
		opts.RateLimit = "300-M"
	}
	rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limit %q: %w", opts.RateLimit, err)
	}
	if opts.ReportLocation == nil {
		opts.ReportLocation = time.Local
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	invoices, err := s.ListInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load purchase history: %w", err)
	}
	history := pricing.NewIndex(invoices)
	slog.Info("purchase history indexed", "invoices", len(invoices), "items", history.Len())

	return &Handler{
		store:   s,
		ledger:  ledger.NewService(s),
		history: history,
		engine:  pricing.NewEngine(history),
		rate:    rate,
		opts:    opts,
	}, nil
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(stdlib.NewMiddleware(limiter.New(memory.NewStore(), h.rate)).Handler)

	r.Get("/health", h.health)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		if h.authEnabled() {
			pr.Use(h.authMiddleware)
		}

		pr.Route("/settings", func(r chi.Router) {
			r.Get("/", h.getSettings)
			r.Put("/", h.saveSettings)
			r.Post("/reset", h.resetSettings)
		})

		pr.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.listSuppliers)
			r.Post("/", h.createSupplier)
			r.Put("/{id}", h.updateSupplier)
			r.Delete("/{id}", h.deleteSupplier)
			r.Get("/{id}/statement", h.supplierStatement)
		})

		pr.Route("/clients", func(r chi.Router) {
			r.Get("/", h.listClients)
			r.Post("/", h.createClient)
			r.Put("/{id}", h.updateClient)
			r.Delete("/{id}", h.deleteClient)
			r.Get("/{id}/transactions", h.clientTransactions)
			r.Post("/{id}/payments", h.addPayment)
			r.Get("/{id}/reconcile", h.reconcileClient)
		})

		pr.Route("/pricing", func(r chi.Router) {
			r.Post("/calculate", h.calculate)
			r.Get("/lookup", h.lookup)
			r.Get("/options", h.pricingOptions)
		})
		pr.Get("/items/names", h.itemNames)

		pr.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.listInvoices)
			r.Post("/", h.createInvoice)
			r.Get("/{id}", h.getInvoice)
			r.Delete("/{id}", h.deleteInvoice)
			r.Post("/{id}/resell", h.resellInvoice)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/monthly", h.monthlyReport)
			r.Get("/extra-discounts", h.extraDiscountReport)
		})

		pr.Get("/backup", h.backup)
		pr.Post("/backup/restore", h.restore)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

func (h *Handler) authEnabled() bool {
	return len(h.opts.PasswordHash) > 0
}

func (h *Handler) generateToken() (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   "owner",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.opts.Secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.opts.Secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.authEnabled() {
		respondError(w, http.StatusNotFound, "authentication is not enabled")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if bcrypt.CompareHashAndPassword(h.opts.PasswordHash, []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.generateToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Helpers

// respondStoreError maps domain errors to status codes and logs anything unexpected.
func respondStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadySold):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrUnknownSale):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(message, "error", err)
		respondError(w, http.StatusInternalServerError, message)
	}
}

func floatParam(r *http.Request, key string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// respondJSON encodes before writing the header so an unencodable payload becomes a 500, not an empty 200.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		slog.Error("unable to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"unable to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
