package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LaasyaMarthati/To-Do-List/internal/repositories"
	"github.com/LaasyaMarthati/To-Do-List/internal/services"
)

// AuthMiddleware はJWTトークンを検証し、アカウントIDをコンテキストに設定するミドルウェアです。
// トークンはステートレスに検証した後、アカウントが現存するかを再確認します。
// 削除済みアカウントのトークンは有効期限内でも401になります。
func AuthMiddleware(jwtService *services.JWTService, userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		// "Bearer " プレフィックスを削除
		if !strings.HasPrefix(tokenString, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}
		tokenString = tokenString[len("Bearer "):]

		userID, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// アカウント存在チェック
		if _, err := userRepo.FindByID(userID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
