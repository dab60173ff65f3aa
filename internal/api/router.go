package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"moneypot-backend/internal/admission"
	"moneypot-backend/internal/api/httpx"
	"moneypot-backend/internal/api/validate"
	"moneypot-backend/internal/auth"
	"moneypot-backend/internal/config"
	"moneypot-backend/internal/gateway"
	"moneypot-backend/internal/metrics"
	"moneypot-backend/internal/middleware"
	"moneypot-backend/internal/services"
)

// svcStatus maps the service error taxonomy onto HTTP status codes.
func svcStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrAdmissionRejected):
		return http.StatusTooManyRequests, "admission_rejected"
	case errors.Is(err, services.ErrStoreFault):
		return http.StatusBadGateway, "store_fault"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeSvcError(w http.ResponseWriter, err error) {
	status, code := svcStatus(err)
	httpx.WriteError(w, status, code, err.Error(), nil)
}

func NewRouter(
	cfg config.Config,
	us *services.UserService,
	gs *services.GroupService,
	cs *services.ContributionService,
	ds *services.DirectoryService,
	gw *gateway.Gateway,
	gate *admission.Limiter,
	tm *auth.TokenManager,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authMW := middleware.NewAuthMiddleware(tm)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// service banner + aggregate counts, as the old per-service /status did
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		n, err := cs.Count(r.Context())
		if err != nil {
			writeSvcError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"status":              "moneypot gateway is running",
			"total_contributions": n,
			"active_sessions":     gw.SessionCount(),
		})
	})

	// contribution gateway (websocket)
	r.Handle("/ws", gw.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.With(middleware.Admission(gate)).Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Username, Email, Password string }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid json body", nil)
				return
			}
			u, err := us.Register(r.Context(), req.Username, req.Email, req.Password)
			if err != nil {
				writeSvcError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, u)
		})

		r.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			var req struct{ Username, Password string }
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid json body", nil)
				return
			}
			access, refresh, exp, err := us.Login(r.Context(), req.Username, req.Password)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid username or password", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"access_token":  access,
				"refresh_token": refresh,
				"expires_in":    int64(time.Until(exp).Seconds()),
			})
		})

		// ---------- users ----------
		r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			u, source, err := us.GetByID(r.Context(), id)
			if err != nil {
				writeSvcError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"source": source, "user": u})
		})

		// ---------- groups (provisioning) ----------
		r.Post("/groups", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Name         string `json:"name"`
				TargetAmount int64  `json:"target_amount"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid json body", nil)
				return
			}
			var errs validate.Errs
			if e := validate.Required("name", req.Name); e != nil {
				errs = append(errs, *e)
			}
			if e := validate.MinInt("target_amount", req.TargetAmount, 1); e != nil {
				errs = append(errs, *e)
			}
			if len(errs) > 0 {
				httpx.WriteError(w, http.StatusBadRequest, "validation_failed", errs.Error(), errs)
				return
			}
			g, err := gs.Create(r.Context(), req.Name, req.TargetAmount)
			if err != nil {
				writeSvcError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, g)
		})

		r.Get("/groups/{name}", func(w http.ResponseWriter, r *http.Request) {
			g, err := gs.GetByName(r.Context(), chi.URLParam(r, "name"))
			if err != nil {
				writeSvcError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, g)
		})

		// rebuild current_amount from the contribution sum
		r.Post("/groups/{id}/reconcile", func(w http.ResponseWriter, r *http.Request) {
			total, err := cs.Reconcile(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeSvcError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"current_amount": total})
		})

		// ---------- transactions (HTTP contribution surface) ----------
		r.With(authMW.Auth).Post("/transactions", func(w http.ResponseWriter, r *http.Request) {
			uid, ok := middleware.UserID(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
				return
			}
			var req struct {
				GroupName string `json:"group_name"`
				Amount    int64  `json:"amount"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GroupName == "" {
				httpx.WriteError(w, http.StatusBadRequest, "bad_request", "group_name and amount are required", nil)
				return
			}
			grp, err := ds.FindGroupByName(r.Context(), req.GroupName)
			if err != nil {
				writeSvcError(w, err)
				return
			}
			total, err := cs.Contribute(r.Context(), uid, grp.ID, req.Amount)
			if err != nil {
				writeSvcError(w, err)
				return
			}
			httpx.WriteJSON(w, http.StatusCreated, map[string]any{"group": grp.Name, "new_total": total})
		})

		r.Get("/transactions/{userID}", func(w http.ResponseWriter, r *http.Request) {
			uid := chi.URLParam(r, "userID")

			limit := 50
			offset := 0
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					limit = n
				}
			}
			if v := r.URL.Query().Get("offset"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n >= 0 {
					offset = n
				}
			}

			list, source, err := cs.ListByUser(r.Context(), uid, limit, offset)
			if err != nil {
				writeSvcError(w, err)
				return
			}
			if len(list) == 0 {
				httpx.WriteError(w, http.StatusNotFound, "not_found", "no contributions found for this user", nil)
				return
			}
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"source": source, "transactions": list})
		})
	})

	return r
}
