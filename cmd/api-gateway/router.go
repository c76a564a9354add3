package main

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/food-rescue-api/internal/handler"
	"github.com/noah-isme/food-rescue-api/internal/middleware"
	"github.com/noah-isme/food-rescue-api/internal/models"
	"github.com/noah-isme/food-rescue-api/internal/service"
	"github.com/noah-isme/food-rescue-api/pkg/config"
	"github.com/noah-isme/food-rescue-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/food-rescue-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/food-rescue-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg           *config.Config
	logger        *zap.Logger
	metrics       *service.MetricsService
	tokens        *service.TokenVerifier
	donations     *handler.DonationHandler
	notifications *handler.NotificationHandler
	exports       *handler.ExportHandler
	health        *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	if d.cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))

	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)
	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix, middleware.JWT(d.tokens))

	donations := api.Group("/donations")
	donations.POST("", middleware.RequireRoles(models.RoleDonor, models.RoleAdmin), d.donations.Create)
	donations.GET("", d.donations.List)
	donations.GET("/:id", d.donations.Get)
	donations.POST("/:id/transition", d.donations.Transition)
	donations.GET("/:id/volunteers", middleware.RequireRoles(models.RoleAdmin, models.RoleReceiver), d.donations.Volunteers)
	donations.POST("/:id/assign", middleware.RequireRoles(models.RoleAdmin, models.RoleReceiver, models.RoleVolunteer), d.donations.Assign)
	donations.POST("/:id/reoffer", middleware.RequireRoles(models.RoleDonor, models.RoleAdmin), d.donations.Reoffer)

	notifications := api.Group("/notifications")
	notifications.GET("", d.notifications.List)
	notifications.POST("/:id/read", d.notifications.MarkRead)

	admin := api.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics", d.health.Snapshot)
	admin.GET("/donations/export", gzip.Gzip(gzip.DefaultCompression), d.exports.Donations)

	return r
}
