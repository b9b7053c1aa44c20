package app

import (
	"github.com/gin-gonic/gin"
	"github.com/joaopedroangelo/Estrela-do-Saber/docs"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/monitoring"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		api.POST("/register", c.learner.Register)
		api.POST("/questions", c.exercise.NewQuestion)
		api.POST("/answers", c.exercise.SubmitAnswer)

		api.GET("/reports/:contact", c.report.GetReport)
		api.GET("/answers/:contact", c.learner.ListAnswers)
	}
}
