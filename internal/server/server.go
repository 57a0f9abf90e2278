//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/assolink/cantine/internal/canteen"
	"github.com/assolink/cantine/internal/repository"
)

// CanteenService is the order lifecycle surface the handlers drive.
type CanteenService interface {
	Availability(ctx context.Context, day time.Time) (*canteen.Availability, error)
	PlaceOrder(ctx context.Context, owner *repository.Association, deliveryDay time.Time, quantity int, zone string) (*repository.Order, error)
	ModifyOrder(ctx context.Context, owner *repository.Association, id string, newQuantity int) (*repository.Order, error)
	CancelOrder(ctx context.Context, owner *repository.Association, id, penalty string) (*repository.Order, error)
	ListOrders(ctx context.Context, owner *repository.Association) ([]*repository.Order, error)
	SetQuota(ctx context.Context, day time.Time, capacity int, slotStart, slotEnd string) error
	ListQuotas(ctx context.Context, from, to time.Time) ([]*repository.Quota, error)
}

// Authenticator resolves basic-auth credentials to the calling association.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*repository.Association, error)
}

type Server struct {
	svc     CanteenService
	auth    Authenticator
	auditor *AuditManager
	logger  *zap.Logger
	loc     *time.Location
	server  *http.Server
}

func New(svc CanteenService, auth Authenticator, auditor *AuditManager, logger *zap.Logger, loc *time.Location) *Server {
	return &Server{
		svc:     svc,
		auth:    auth,
		auditor: auditor,
		logger:  logger,
		loc:     loc,
	}
}

func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.auditor.Start(ctx)

	s.logger.Info("http server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.auditor.Shutdown(ctx)
	return nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.authMiddleware, s.auditMiddleware)

	api.HandleFunc("/canteen/availability", s.handleAvailability).Methods(http.MethodGet).Name("availability")
	api.HandleFunc("/canteen/orders", s.handlePlaceOrder).Methods(http.MethodPost).Name("place_order")
	api.HandleFunc("/canteen/orders", s.handleListOrders).Methods(http.MethodGet).Name("list_orders")
	api.HandleFunc("/canteen/orders/{id}/quantity", s.handleModifyOrder).Methods(http.MethodPut).Name("modify_order")
	api.HandleFunc("/canteen/orders/{id}/cancel", s.handleCancelOrder).Methods(http.MethodPut).Name("cancel_order")

	api.HandleFunc("/quotas", s.handleListQuotas).Methods(http.MethodGet).Name("list_quotas")
	api.HandleFunc("/quotas/{date}", s.handleSetQuota).Methods(http.MethodPut).Name("set_quota")

	return r
}

type contextKey string

const tenantKey contextKey = "tenant"

// tenantFrom returns the authenticated association; nil only if the auth
// middleware was bypassed.
func tenantFrom(ctx context.Context) *repository.Association {
	tenant, _ := ctx.Value(tenantKey).(*repository.Association)
	return tenant
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tenant, err := s.auth.Authenticate(r.Context(), email, password)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey, tenant)))
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
