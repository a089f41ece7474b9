//go:build wireinject
// +build wireinject

package wire

import (
	"messagely/internal/common"
	"messagely/internal/config"
	"messagely/internal/dbmysql"
	"messagely/internal/message"
	"messagely/internal/server"
	"messagely/internal/user"

	"github.com/google/wire"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type Application struct {
	Config *config.Config
	DB     *gorm.DB
	Router *mux.Router
	Health *server.HealthServer
}

var storeSet = wire.NewSet(
	dbmysql.NewDatabase,
	common.NewPasswordHasher,
	user.NewUserRepository,
	message.NewMessageRepository,
	common.NewStore,
)

var httpSet = wire.NewSet(
	common.NewTokenManager,
	user.NewHandler,
	message.NewHandler,
	server.NewRouter,
)

// InitializeApplication builds the whole object graph from cfg. The returned
// func releases the database pool.
func InitializeApplication(cfg *config.Config) (*Application, func(), error) {
	wire.Build(
		storeSet,
		httpSet,
		server.NewHealthServer,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
