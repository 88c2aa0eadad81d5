package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/config"
	"chatroom-service/internal/handlers"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/observability"
	"chatroom-service/internal/rabbitmq"
	"chatroom-service/internal/store"
	"chatroom-service/internal/store/badgerstore"
	"chatroom-service/internal/store/postgres"
	"chatroom-service/internal/telemetry"
	"chatroom-service/internal/users"
)

const serviceName = "chatroom-service"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", serviceName).Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if !cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("trace shutdown failed")
		}
	}()

	docStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open document store")
	}
	defer docStore.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange, log)
	defer publisher.Close()
	log.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Msg("event publisher ready")

	audit := telemetry.NewAuditEmitter(publisher, "audit.chatroom", serviceName, cfg.Environment, log)
	events := telemetry.NewEventEmitter(publisher, serviceName, log)

	userList, err := users.NewUserList(ctx, docStore.Collection("users"), log, cfg.UserListName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore user list")
	}

	roomList, err := chat.NewRoomList(ctx, docStore.Collection("rooms"), log, cfg.RoomListName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore room list")
	}

	if err := seedDefaults(ctx, cfg, userList, roomList); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default room")
	}

	userHandler := handlers.NewUserHandler(userList, audit)
	roomHandler := handlers.NewRoomHandler(roomList, userList, audit, events)
	messageHandler := handlers.NewMessageHandler(roomList, userList, audit, events)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(log))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	handlers.RegisterHealthRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/users", userHandler.Register)
	router.GET("/users", userHandler.List)
	router.GET("/users/:alias", userHandler.Get)
	router.DELETE("/users/:alias", userHandler.Deregister)
	router.POST("/users/:alias/blacklist", userHandler.BlacklistAdd)
	router.DELETE("/users/:alias/blacklist/:target", userHandler.BlacklistRemove)

	router.POST("/rooms", roomHandler.Create)
	router.GET("/rooms", roomHandler.List)
	router.POST("/rooms/:room_name/members", roomHandler.AddMember)
	router.DELETE("/rooms/:room_name/members/:alias", roomHandler.RemoveMember)

	router.POST("/messages", messageHandler.Send)
	router.GET("/messages", messageHandler.Get)
	router.PATCH("/messages/:room_name", messageHandler.Edit)
	router.DELETE("/messages/:room_name", messageHandler.Remove)
	router.POST("/messages/:room_name/restore", messageHandler.Restore)

	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func openStore(cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return postgres.Connect(cfg.DatabaseDSN, log)
	default:
		return badgerstore.Open(cfg.BadgerPath, log)
	}
}

// seedDefaults registers the default owner and the open room on first boot.
// Existing entries are left untouched.
func seedDefaults(ctx context.Context, cfg config.Config, userList *users.UserList, roomList *chat.RoomList) error {
	if _, err := userList.Register(ctx, cfg.DefaultOwnerAlias); err != nil && !errors.Is(err, users.ErrUserExists) {
		return err
	}
	if _, err := roomList.Register(ctx, cfg.DefaultPublicRoom, cfg.DefaultOwnerAlias, chat.RoomTypePublic); err != nil && !errors.Is(err, chat.ErrRoomExists) {
		return err
	}
	return nil
}
