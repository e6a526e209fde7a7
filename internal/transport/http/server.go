package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apicatalog/internal/bootstrap"
	"apicatalog/internal/transport/http/handler"
	"apicatalog/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(app.Auth)
	apiHandler := handler.NewAPIHandler(app.Catalog, app.Likes)
	userHandler := handler.NewUserHandler(app.Users)

	auth := middleware.AuthJWT(app.Config.Auth.JWTSecret)
	limit := middleware.NewRateLimiter(app.Config.RateLimit.RequestsPerMinute, app.Config.RateLimit.Burst).Middleware()

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apis := router.Group("/apis")
	apis.GET("/list", apiHandler.List)
	apis.GET("/list/getPages", apiHandler.Pages)
	apis.GET("/list/ids", apiHandler.ListByIDs)
	apis.POST("/create", auth, apiHandler.Create)
	apis.PUT("/incrementView", apiHandler.IncrementView)
	apis.PUT("/incrementLikes", limit, auth, apiHandler.IncrementLikes)
	apis.PUT("/decrementLikes", limit, auth, apiHandler.DecrementLikes)
	apis.DELETE("/delete/:api_id", auth, apiHandler.Delete)

	users := router.Group("/users")
	users.POST("/create", limit, authHandler.Register)
	users.POST("/login", limit, authHandler.Login)
	users.GET("/me", auth, authHandler.Me)
	users.PUT("/follow", auth, userHandler.Follow)
	users.PUT("/unfollow", auth, userHandler.Unfollow)
	users.GET("/list", userHandler.List)
	users.GET("/getName/:user_id", userHandler.GetName)
	users.DELETE("/delete/:user_id", auth, userHandler.Delete)

	return router
}
