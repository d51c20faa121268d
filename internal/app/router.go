package app

import (
	"studynotes_backend/docs"
	"studynotes_backend/internal/middleware"
	"studynotes_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// websocket 握手单独鉴权，允许 ?token=
	router.GET("/api/feed/ws", middleware.WSAuthMiddleware(s.auth), c.feed.Subscribe)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.auth))
	{
		authGroup.POST("/logout", c.auth.Logout)

		a.registerUserRoutes(authGroup, c)
		a.registerNoteRoutes(authGroup, c)
		a.registerFileRoutes(authGroup, c)
		a.registerPracticeRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/user", c.user.Me)
	rg.GET("/user/:id", c.user.GetUser)
	rg.GET("/user/:id/notes", c.user.GetUserNotes)
	rg.GET("/user/:id/avatar", c.user.GetAvatar)
	rg.PUT("/user/:id/avatar", c.user.PutAvatar)
}

func (a *App) registerNoteRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/feed", c.note.Feed)
	rg.GET("/feed/version", c.feed.Version)

	notes := rg.Group("/notes")
	{
		notes.POST("", c.note.CreateNote)
		notes.GET("", c.note.ListNotes)
		notes.GET("/bookmark", c.note.ListBookmarked)
		notes.POST("/ai", c.content.GenerateNote)

		notes.GET("/:id", c.note.GetNote)
		notes.PATCH("/:id", c.note.UpdateNote)
		notes.DELETE("/:id", c.note.DeleteNote)
		notes.POST("/:id/vote", c.note.Vote)
		notes.POST("/:id/bookmark", c.note.ToggleBookmark)
		notes.POST("/:id/files", c.note.AttachFiles)

		notes.GET("/:id/quiz", c.content.GetQuiz)
		notes.POST("/:id/quiz", c.content.CreateQuiz)
		notes.GET("/:id/flashcards", c.content.GetFlashcards)
		notes.POST("/:id/flashcards", c.content.CreateFlashcards)
		notes.GET("/:id/flashcards/export", c.content.ExportFlashcards)
	}
}

func (a *App) registerFileRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/files", c.file.Upload)
	rg.GET("/files/:id", c.file.GetFile)
	rg.PATCH("/files/:id", c.file.UpdateFile)
}

func (a *App) registerPracticeRoutes(rg *gin.RouterGroup, c *controllers) {
	quiz := rg.Group("/practice/quiz")
	{
		quiz.POST("", c.practice.StartQuiz)
		quiz.GET("/:sid", c.practice.GetQuiz)
		quiz.DELETE("/:sid", c.practice.EndQuiz)
		quiz.POST("/:sid/answer", c.practice.AnswerQuiz)
		quiz.POST("/:sid/advance", c.practice.AdvanceQuiz)
		quiz.POST("/:sid/restart", c.practice.RestartQuiz)
	}

	cards := rg.Group("/practice/flashcards")
	{
		cards.POST("", c.practice.StartFlashcards)
		cards.GET("/:sid", c.practice.GetFlashcards)
		cards.DELETE("/:sid", c.practice.EndFlashcards)
		cards.POST("/:sid/next", c.practice.NextFlashcard)
		cards.POST("/:sid/prev", c.practice.PrevFlashcard)
		cards.POST("/:sid/random", c.practice.RandomFlashcard)
		cards.POST("/:sid/flip", c.practice.FlipFlashcard)
	}
}
