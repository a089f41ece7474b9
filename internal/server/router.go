package server

import (
	"context"
	"net/http"
	"time"

	"messagely/internal/common"
	"messagely/internal/message"
	"messagely/internal/user"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// NewRouter assembles the HTTP API. Every matched route runs through CORS,
// request logging and token authentication, in that order.
func NewRouter(users *user.Handler, messages *message.Handler, tokens *common.TokenManager, db *gorm.DB) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = common.NotFoundHandler()
	// preflight requests only match a path, never a method
	router.MethodNotAllowedHandler = common.CORSMiddleware(common.MethodNotAllowedHandler())

	router.Use(common.CORSMiddleware)
	router.Use(common.LoggingMiddleware)
	router.Use(common.Authenticate(tokens))

	router.HandleFunc("/health", healthCheckHandler(db)).Methods(http.MethodGet)

	users.RegisterRoutes(router)
	messages.RegisterRoutes(router)

	return router
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func healthCheckHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pingDatabase(ctx, db); err != nil {
			common.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "down"})
			return
		}
		common.WriteJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "up"})
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
