package web

import (
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nurs7132/agroFarm/internal/app"
	"github.com/nurs7132/agroFarm/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	logger    *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{svc: svc, jwtSecret: jwtSecret, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Public shop catalog (no auth: what the bot shows, the web shows) ─────
	r.Get("/api/shop/catalog", h.catalog)
	r.Post("/api/shop/orders", h.placePublicOrder)

	// ── Authenticated staff API ──────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)
		r.Get("/api/dashboard", h.dashboard)

		// Worker-level: day-to-day herd and storage entry.
		r.Get("/api/animals", h.listAnimals)
		r.Get("/api/animals/{id}", h.getAnimal)
		r.Post("/api/animals", h.createAnimal)
		r.Put("/api/animals/{id}", h.updateAnimal)
		r.Post("/api/animals/{id}/weight", h.recordWeight)
		r.Get("/api/animals/{id}/weights", h.weightHistory)

		r.Get("/api/carcasses", h.listCarcasses)
		r.Post("/api/carcasses", h.addCarcass)

		r.Get("/api/storage", h.listFeedStock)
		r.Post("/api/storage/{productType}/receive", h.receiveFeed)
		r.Post("/api/storage/consumption", h.recordConsumption)

		r.Get("/api/orders", h.listOrders)
		r.Get("/api/orders/{id}", h.getOrder)
		r.Post("/api/orders", h.placeStaffOrder)

		// Manager-level: pricing, statuses, stock corrections.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(core.RoleManager))

			r.Post("/api/animals/{id}/price", h.setAnimalPrice)
			r.Post("/api/animals/{id}/status", h.setAnimalStatus)
			r.Post("/api/carcasses/{id}/status", h.setCarcassStatus)
			r.Post("/api/storage", h.createFeedType)
			r.Put("/api/storage/{productType}/quantity", h.setFeedQuantity)
			r.Post("/api/orders/{id}/status", h.setOrderStatus)
			r.Put("/api/orders/{id}/notes", h.setOrderNotes)
			r.Post("/api/reconcile", h.runReconcile)
		})

		// Admin-level: destructive corrections and the audit trail.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(core.RoleAdmin))

			r.Delete("/api/animals/{id}", h.deleteAnimal)
			r.Delete("/api/carcasses/{id}", h.deleteCarcass)
			r.Delete("/api/orders/{id}", h.deleteOrder)
			r.Get("/api/audit", h.auditLog)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) runReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconcile(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (h *Handler) auditLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.AuditLog(r.Context(), limit)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, entries)
}

// urlID parses the {id} route parameter, writing a 400 on failure.
func urlID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// originFromRequest extracts client IP and user agent for the audit trail.
func originFromRequest(r *http.Request) core.Origin {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	return core.Origin{IP: ip, UserAgent: r.UserAgent()}
}

// actorEntry seeds an audit entry with the authenticated user and request origin.
func actorEntry(r *http.Request) core.AuditEntry {
	origin := originFromRequest(r)
	e := core.AuditEntry{IPAddress: origin.IP, UserAgent: origin.UserAgent}
	if claims := authFromContext(r.Context()); claims != nil {
		e.UserID = &claims.UserID
		e.Username = claims.Username
	}
	return e
}
