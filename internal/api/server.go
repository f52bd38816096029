package api

import (
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/payoutpilot/mentorchat/docs"
	v1 "github.com/payoutpilot/mentorchat/internal/api/handler/v1"
	"github.com/payoutpilot/mentorchat/internal/api/middleware"
	"github.com/payoutpilot/mentorchat/internal/chat"
	"github.com/payoutpilot/mentorchat/internal/config"
	"github.com/payoutpilot/mentorchat/internal/pkg/idtoken"
	"github.com/payoutpilot/mentorchat/internal/repository"
	"github.com/payoutpilot/mentorchat/internal/repository/dao"
	"github.com/payoutpilot/mentorchat/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	verifier := idtoken.NewHMACVerifier([]byte(conf.API.IDTokenSigningKey))

	authHandler := s.initAuthHandler(db, verifier)
	chatHandler := s.initChatHandler(db)
	wsHandler := s.initWSHandler(db)
	completionHandler := s.initCompletionHandler()
	s.MountHandlers(verifier, authHandler, chatHandler, wsHandler, completionHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB, verifier idtoken.Verifier) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(verifier, repo)
	handler := v1.NewAuthHandler(svc)

	return handler
}

func (s *Server) initChatHandler(db *gorm.DB) *v1.ChatHandler {
	messageDAO := dao.NewMessageDAO(db)
	repo := repository.NewMessageRepository(messageDAO)
	handler := v1.NewChatHandler(repo)

	return handler
}

func (s *Server) initWSHandler(db *gorm.DB) *v1.WSHandler {
	messageDAO := dao.NewMessageDAO(db)
	repo := repository.NewMessageRepository(messageDAO)

	registry := chat.NewRegistry()
	gateway := chat.NewGateway(
		registry,
		repo,
		s.Config.Chat.HistoryLimit,
		time.Duration(s.Config.Chat.StoreTimeoutSeconds)*time.Second,
	)

	return v1.NewWSHandler(gateway)
}

func (s *Server) initCompletionHandler() *v1.CompletionHandler {
	svc := service.NewCompletionService(s.Config.Completion)
	handler := v1.NewCompletionHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	verifier idtoken.Verifier,
	authHandler *v1.AuthHandler,
	chatHandler *v1.ChatHandler,
	wsHandler *v1.WSHandler,
	completionHandler *v1.CompletionHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/register", authHandler.HandleRegister)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(verifier).VerifyIDToken())
	{
		authed.GET("/auth/me", authHandler.HandleMe)
		authed.GET("/rooms/:roomID/messages", chatHandler.HandleGetRoomMessages)
		authed.GET("/chat/ws", wsHandler.HandleChatSocket)
		authed.POST("/chat/completions", completionHandler.HandleCompletion)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "PayoutPilot Mentor Chat API"
	docs.SwaggerInfo.Description = "Mentor-support chat and assistant relay for the PayoutPilot platform."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
