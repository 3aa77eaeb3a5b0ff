// Package handler exposes the ordering flow over HTTP.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering/internal/domain/auth"
	"github.com/xenking/food-ordering/internal/domain/menu"
	"github.com/xenking/food-ordering/internal/domain/order"
	"github.com/xenking/food-ordering/internal/domain/payment"
	"github.com/xenking/food-ordering/internal/session"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// PaymentMethods are offered at checkout, in display order.
	PaymentMethods []payment.Method
}

// Handler serves the /api routes, delegating to the domain services.
type Handler struct {
	users    *auth.Service
	catalog  *menu.Catalog
	sessions *session.Registry
	orders   *order.Service
	methods  []payment.Method
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	users *auth.Service,
	catalog *menu.Catalog,
	sessions *session.Registry,
	orders *order.Service,
) *Handler {
	methods := cfg.PaymentMethods
	if len(methods) == 0 {
		methods = payment.Methods
	}
	return &Handler{
		users:    users,
		catalog:  catalog,
		sessions: sessions,
		orders:   orders,
		methods:  methods,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.SignUp)
	mux.HandleFunc("POST /api/auth/signin", h.SignIn)
	mux.Handle("POST /api/auth/signout", h.authenticated(h.SignOut))
	mux.Handle("GET /api/profile", h.authenticated(h.Profile))

	mux.HandleFunc("GET /api/menu", h.ListMenu)
	mux.HandleFunc("GET /api/menu/{id}", h.GetMenuItem)

	mux.Handle("GET /api/cart", h.authenticated(h.GetCart))
	mux.Handle("POST /api/cart/items", h.authenticated(h.AddCartItem))
	mux.Handle("PUT /api/cart/items/{id}", h.authenticated(h.UpdateCartItem))
	mux.Handle("DELETE /api/cart/items/{id}", h.authenticated(h.RemoveCartItem))
	mux.Handle("DELETE /api/cart", h.authenticated(h.ClearCart))

	mux.Handle("GET /api/checkout/quote", h.authenticated(h.Quote))
	mux.Handle("POST /api/checkout", h.authenticated(h.Checkout))

	mux.Handle("GET /api/orders", h.authenticated(h.ListOrders))
	mux.Handle("GET /api/orders/{id}", h.authenticated(h.GetOrder))
}

type authedFunc func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// authenticated requires a valid "Authorization: Bearer <token>" header.
func (h *Handler) authenticated(next authedFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="food"`)
			writeError(w, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}
		id, err := h.users.Authenticate(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="food", error="invalid_token"`)
			writeDomainError(w, r, err)
			return
		}

		ctx := zctx.With(r.Context(), zap.String("user_id", id.UserID))
		next(w, r.WithContext(ctx), *id)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
