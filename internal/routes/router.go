// Package routesはroutingを行います。
package routes

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/LaasyaMarthati/To-Do-List/internal/handlers"
	"github.com/LaasyaMarthati/To-Do-List/internal/repositories"
	"github.com/LaasyaMarthati/To-Do-List/internal/services"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(db *sql.DB) *gin.Engine {
	r := gin.Default()

	// CORS対策
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:8080", "http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	r.Use(cors.New(config))

	// リポジトリ
	todoRepo := repositories.NewTodoRepository(db)
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewMySQLResetTokenRepo(db)

	// サービス
	todoService := services.NewTodoService(todoRepo)
	userService := services.NewUserService(db, userRepo, todoRepo, resetRepo)
	jwtService := services.NewJWTService()

	// ハンドラー
	userHandler := handlers.NewUserHandler(userService, jwtService)
	todoHandler := handlers.NewTodoHandler(todoService)

	// 静的ファイル (クライアント)
	r.StaticFile("/", "./public/index.html")
	r.StaticFile("/style.css", "./public/style.css")
	r.StaticFile("/script.js", "./public/script.js")

	// ルーティング
	r.GET("/api/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/api/auth/signup", userHandler.SignupHandler)
	r.POST("/api/auth/login", userHandler.LoginHandler)
	r.POST("/api/auth/forgot-password", userHandler.ForgotPasswordHandler)
	r.POST("/api/auth/reset-password/:token", userHandler.ResetPasswordHandler)

	authorized := r.Group("/")
	authorized.Use(AuthMiddleware(jwtService, userRepo))
	{
		authorized.DELETE("/api/auth/delete", userHandler.DeleteAccountHandler)
		authorized.GET("/api/todos", todoHandler.GetTodosHandler)
		authorized.POST("/api/todos", todoHandler.CreateTodoHandler)
		authorized.PUT("/api/todos/:id", todoHandler.ToggleCompleteHandler)
		authorized.PUT("/api/todos/:id/edit", todoHandler.EditTodoHandler)
		authorized.PUT("/api/todos/:id/pin", todoHandler.TogglePinHandler)
		authorized.DELETE("/api/todos/:id", todoHandler.DeleteTodoHandler)
	}

	return r
}
