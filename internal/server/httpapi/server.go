// Package httpapi exposes the service layer over HTTP: JSON request and
// response bodies for the application endpoints, a form-encoded endpoint for
// provider payment notifications, and a single place where service errors
// are mapped to status codes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/remarkly/backend/internal/logging"
	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/server/generation"
	"github.com/remarkly/backend/internal/server/payment"
	"github.com/remarkly/backend/internal/server/users"
)

// Pinger reports whether the persistence backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the services the handlers delegate to.
type Server struct {
	cfg        *config.Config
	users      *users.Service
	generation *generation.Service
	payment    *payment.Service
	vendors    []string
	store      Pinger
	logger     logging.Logger
}

func NewServer(cfg *config.Config, userSvc *users.Service, genSvc *generation.Service,
	paySvc *payment.Service, vendors []string, store Pinger, logger logging.Logger) *Server {
	return &Server{
		cfg:        cfg,
		users:      userSvc,
		generation: genSvc,
		payment:    paySvc,
		vendors:    vendors,
		store:      store,
		logger:     logger.With("module", "httpapi"),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/user/{username}", s.handleGetUser).Methods(http.MethodGet)
	r.HandleFunc("/api/generate-comment", s.handleGenerateComment).Methods(http.MethodPost)
	r.HandleFunc("/api/generate-alternatives", s.handleGenerateAlternatives).Methods(http.MethodPost)
	r.HandleFunc("/api/create-alipay-order", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/api/alipay-payment-notify", s.handlePaymentNotify).Methods(http.MethodPost)
	r.HandleFunc("/api/health-check", s.handleHealthCheck).Methods(http.MethodGet)

	return r
}
