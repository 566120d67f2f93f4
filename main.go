package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"famnet-backend/internal/auth"
	"famnet-backend/internal/chat"
	"famnet-backend/internal/config"
	"famnet-backend/internal/db"
	"famnet-backend/internal/handlers"
	"famnet-backend/internal/logger"
	"famnet-backend/internal/mail"
	"famnet-backend/internal/middleware"
	"famnet-backend/internal/observability"
	"famnet-backend/internal/rabbitmq"
	"famnet-backend/internal/repositories"
	"famnet-backend/internal/storage"
	"famnet-backend/internal/telemetry"
	"famnet-backend/internal/video"
	"famnet-backend/internal/ws"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg)
	defer logger.Log.Sync()

	gin.SetMode(cfg.Server.Mode)

	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(context.Background(), "famnet-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Warn("tracing disabled", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(ctx)
			}()
		}
	}

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Log.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.Log.Info("event publisher ready", zap.String("mode", rabbitmq.Mode(publisher)))

	emitter := telemetry.NewAuditEmitter(publisher, "audit.famnet", "famnet-backend", cfg.Server.Environment)

	userRepo := repositories.NewUserRepo(database)
	friendRepo := repositories.NewFriendshipRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	familyRepo := repositories.NewFamilyRepo(database)
	videoRepo := repositories.NewVideoCallRepo(database)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireTime)
	mailer := mail.NewMailer(cfg.Mail)
	store := storage.NewProvider(cfg.Storage)

	hub := ws.NewHub()
	perms := chat.NewPermissionChecker(roomRepo, familyRepo)
	messageService := chat.NewMessageService(roomRepo, messageRepo, perms, hub)
	roomService := chat.NewRoomService(roomRepo, friendRepo, familyRepo, hub)
	videoService := video.NewService(cfg.Video, roomRepo, videoRepo)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, mailer, emitter)
	friendHandler := handlers.NewFriendHandler(friendRepo, userRepo, emitter)
	familyHandler := handlers.NewFamilyHandler(familyRepo, roomService, emitter)
	roomHandler := handlers.NewRoomHandler(roomService)
	messageHandler := handlers.NewMessageHandler(messageService, store, emitter)
	videoHandler := handlers.NewVideoHandler(videoService, userRepo)

	roomWS := ws.NewRoomSocketHandler(hub, messageService, roomRepo, tokens)
	presenceWS := ws.NewPresenceSocketHandler(hub, roomService, userRepo, tokens)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("famnet-backend"))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSeconds))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.GET("/auth/verify-email", authHandler.VerifyEmail)
	router.POST("/auth/verify-email/request", authHandler.RequestEmailVerification)
	router.POST("/auth/password-reset/request", authHandler.RequestPasswordReset)
	router.POST("/auth/password-reset", authHandler.ResetPassword)

	authed := router.Group("/", middleware.AuthMiddleware(tokens))

	authed.GET("/me", authHandler.Me)
	authed.PATCH("/me", authHandler.UpdateProfile)

	authed.GET("/friends", friendHandler.ListFriends)
	authed.GET("/friends/requests", friendHandler.ListPending)
	authed.POST("/friends/requests", friendHandler.SendRequest)
	authed.POST("/friends/requests/:user_id/accept", friendHandler.Accept)
	authed.POST("/friends/requests/:user_id/decline", friendHandler.Decline)
	authed.DELETE("/friends/:user_id", friendHandler.Remove)

	authed.GET("/families", familyHandler.ListMine)
	authed.POST("/families", familyHandler.Create)
	authed.POST("/families/join", familyHandler.Join)
	authed.GET("/families/:family_id/members", familyHandler.Members)
	authed.POST("/families/:family_id/invite-code", familyHandler.RotateInviteCode)
	authed.DELETE("/families/:family_id/members/:user_id", familyHandler.RemoveMember)
	authed.POST("/families/:family_id/leave", familyHandler.Leave)
	authed.POST("/families/:family_id/admins/:user_id", familyHandler.GrantAdmin)
	authed.DELETE("/families/:family_id/admins/:user_id", familyHandler.RevokeAdmin)
	authed.DELETE("/families/:family_id", familyHandler.Delete)

	authed.GET("/rooms", roomHandler.List)
	authed.POST("/rooms/private", roomHandler.CreatePrivate)
	authed.POST("/rooms/group", roomHandler.CreateGroup)
	authed.POST("/rooms/:room_id/participants", roomHandler.AddParticipants)
	authed.DELETE("/rooms/:room_id/participants/:user_id", roomHandler.RemoveParticipant)
	authed.POST("/rooms/:room_id/leave", roomHandler.Leave)
	authed.POST("/rooms/:room_id/transfer", roomHandler.TransferOwnership)
	authed.DELETE("/rooms/:room_id", roomHandler.Delete)

	authed.GET("/rooms/:room_id/messages", messageHandler.List)
	authed.POST("/rooms/:room_id/messages", messageHandler.Post)
	authed.POST("/rooms/:room_id/messages/read", messageHandler.MarkRead)
	authed.DELETE("/messages/:message_id", messageHandler.Delete)

	authed.POST("/rooms/:room_id/call", videoHandler.Join)
	authed.DELETE("/rooms/:room_id/call", videoHandler.End)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)
	router.GET("/ws/presence", presenceWS.Handle)

	handlers.RegisterDebugRoutes(router, emitter, cfg.Server.Mode == "debug")

	logger.Log.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Log.Fatal("server error", zap.Error(err))
	}
}
