package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// トークンの有効期間は発行から7日間
const tokenLifetime = 7 * 24 * time.Hour

// JWTService はJWTトークンの生成と検証を扱います。
// 検証はステートレス（署名と有効期限のみ）。アカウントの存在チェックは
// AuthMiddleware側で行います。
type JWTService struct {
	secret []byte
}

// NewJWTService は新しいJWTServiceを作成します。
// JWT_SECRETが未設定の場合はフォールバックせず起動を中止します。
func NewJWTService() *JWTService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}
	return &JWTService{secret: []byte(secret)}
}

// GenerateToken はアカウントIDを埋め込んだJWTトークンを生成します。
func (s *JWTService) GenerateToken(userID int) (string, error) {
	claims := &jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken はJWTトークンを検証し、埋め込まれたアカウントIDを返します。
// 署名不一致・構造不正・期限切れはすべてエラーになります。
func (s *JWTService) ValidateToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			return 0, fmt.Errorf("invalid user_id")
		}
		return int(userIDFloat), nil
	}

	return 0, fmt.Errorf("invalid token")
}
