package models

import "time"

// User はアカウントのデータベース構造体を表します。
// JSONタグ: クライアントとの通信用
// PasswordHashは `json:"-"` で、どのレスポンスにも含まれません。
type User struct {
	ID           int       `json:"id,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // JSONに出さない
	CreatedAt    time.Time `json:"created_at"`
}

// UserSignupRequest はサインアップリクエストの構造体です。
type UserSignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"` // 生パスワード
}

// UserLoginRequest はログインリクエストの構造体です。
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UserResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type PasswordResetToken struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}
