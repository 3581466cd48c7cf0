package router

import (
	"techink/internal/engagement"
	"techink/internal/handlers"
	"techink/internal/middleware"
	"techink/internal/store"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, st store.Store, registry *engagement.Registry) {
	// Handlers
	authHandler := handlers.NewAuthHandler(st, registry)
	feedHandler := handlers.NewFeedHandler(st, registry)
	engagementHandler := handlers.NewEngagementHandler(st, registry)
	userHandler := handlers.NewUserHandler(st, registry)
	insightHandler := handlers.NewInsightHandler(registry)
	adminHandler := handlers.NewAdminHandler(st, registry)

	api := r.Group("/api")
	api.Use(middleware.LoadUser())

	// Public routes
	api.POST("/signup", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)

	api.GET("/posts", feedHandler.List)
	api.GET("/posts/:pid", feedHandler.Get)
	api.GET("/users/:id", userHandler.Profile)
	api.GET("/leaderboard", userHandler.Leaderboard)
	api.GET("/insights", insightHandler.ListInsights)
	api.GET("/insights/:pid", insightHandler.GetInsight)
	api.GET("/timelines", insightHandler.ListTimelines)
	api.GET("/timelines/:pid", insightHandler.GetTimeline)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", authHandler.Me)
		authorized.GET("/me/points", userHandler.PointLogs)
		authorized.POST("/posts", feedHandler.Create)
		authorized.POST("/posts/:pid/like", engagementHandler.Like)
		authorized.DELETE("/posts/:pid/like", engagementHandler.Unlike)
		authorized.POST("/posts/:pid/vote", engagementHandler.Vote)
		authorized.POST("/posts/:pid/share", feedHandler.Share)
		authorized.POST("/insights/:pid/analyze", insightHandler.Analyze)
		authorized.POST("/ask", userHandler.Ask)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	{
		admin.POST("/posts/:pid/pin", adminHandler.Pin)
		admin.POST("/generate/article", adminHandler.GenerateArticle)
		admin.POST("/generate/post", adminHandler.GeneratePost)
		admin.POST("/generate/insight", adminHandler.GenerateInsight)
		admin.POST("/generate/timeline", adminHandler.GenerateTimeline)
	}
}
