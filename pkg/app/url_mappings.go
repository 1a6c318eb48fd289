package app

import (
	"github.com/osvaldoandrade/hookq/internal/controllers"
	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", controllers.NewHealthController(app.Redis).Handle)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cfg := app.Config
	devMode := cfg.Env == "dev"

	v1 := app.Engine.Group("/v1/hookq")
	authed := v1.Group("", middleware.AuthMiddleware(app.Validator, devMode), middleware.Tenant())
	{
		// Subscription management and delivery history always run on behalf
		// of an owner principal.
		owner := authed.Group("",
			middleware.RequireOwner(),
			middleware.RateLimitAPI(app.RateLimiter, ratelimit.Bucket(cfg.RateLimit.API)),
		)
		owner.POST("/subscriptions", controllers.NewCreateSubscriptionController(app.Subs).Handle)
		owner.GET("/subscriptions", controllers.NewListSubscriptionsController(app.Subs).Handle)
		owner.GET("/subscriptions/:id", controllers.NewGetSubscriptionController(app.Subs).Handle)
		owner.PATCH("/subscriptions/:id", controllers.NewUpdateSubscriptionController(app.Subs).Handle)
		owner.DELETE("/subscriptions/:id", controllers.NewDeleteSubscriptionController(app.Subs).Handle)
		owner.POST("/subscriptions/:id/test", controllers.NewTestSubscriptionController(app.Dispatcher).Handle)
		owner.GET("/deliveries", controllers.NewListDeliveriesController(app.Deliveries).Handle)

		// Event ingest skips RequireOwner: a blank principal is a silent
		// no-op inside the dispatcher, not a 403.
		authed.POST("/events",
			middleware.RequireScope("hookq:trigger"),
			middleware.RateLimitTrigger(app.RateLimiter, ratelimit.Bucket(cfg.RateLimit.Trigger)),
			controllers.NewTriggerEventController(app.Dispatcher).Handle,
		)

		admin := authed.Group("/admin", middleware.RequireAdmin())
		admin.GET("/stats", controllers.NewAdminStatsController(app.Stats).Handle)
	}
}
