package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LaasyaMarthati/To-Do-List/internal/models"
	"github.com/LaasyaMarthati/To-Do-List/internal/repositories"
	"github.com/LaasyaMarthati/To-Do-List/internal/routes"

	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB はテスト用のデータベース接続を確立し、テーブルを作成し、テストデータを投入します。
func SetupTestDB(t *testing.T) (*sql.DB, *gin.Engine, *repositories.TodoRepository, *repositories.UserRepository) {

	// .env はリポジトリルートにある（テストの実行ディレクトリはパッケージごとに異なる）
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load("../../../.env")

	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-jwt-secret")
	}

	dbUser := os.Getenv("TEST_DB_USER")
	dbPass := os.Getenv("TEST_DB_PASS")
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbName := os.Getenv("TEST_DB_NAME")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	// 既存のテーブルを削除 (テストのたびにクリーンな状態にするため)
	// Foreign Key Constraint があるため、一時的に無効化してTRUNCATE
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS=0;"); err != nil {
		log.Printf("Failed to disable foreign key checks: %v", err)
	}
	for _, table := range []string{"todos", "password_reset_tokens", "users"} {
		if _, err := db.Exec("TRUNCATE TABLE " + table); err != nil {
			log.Printf("Failed to truncate %s table (it might not exist yet): %v", table, err)
		}
	}
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS=1;"); err != nil {
		log.Printf("Failed to enable foreign key checks: %v", err)
	}

	// アカウントテーブルの作成
	createUserTableSQL := `
    	CREATE TABLE IF NOT EXISTS users (
    		id INT AUTO_INCREMENT PRIMARY KEY,
    		email VARCHAR(255) NOT NULL UNIQUE,
    		password_hash VARCHAR(255) NOT NULL,
    		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
    	);`
	if _, err := db.Exec(createUserTableSQL); err != nil {
		t.Fatalf("Failed to create users table: %v", err)
	}

	// Todoテーブルの作成
	// created_at はマイクロ秒精度（並び順テストで同時刻にならないように）
	createTodoTableSQL := `
    	CREATE TABLE IF NOT EXISTS todos (
    		id INT AUTO_INCREMENT PRIMARY KEY,
    		user_id INT NOT NULL,
    		text TEXT NOT NULL,
    		completed BOOLEAN NOT NULL DEFAULT FALSE,
    		priority ENUM('low','medium','high') NOT NULL DEFAULT 'medium',
    		due_date DATETIME NULL,
    		pinned BOOLEAN NOT NULL DEFAULT FALSE,
    		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6),
    		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
    	);`
	if _, err := db.Exec(createTodoTableSQL); err != nil {
		t.Fatalf("Failed to create todos table: %v", err)
	}

	// パスワードリセットトークンテーブルの作成
	createResetTokenTableSQL := `
    	CREATE TABLE IF NOT EXISTS password_reset_tokens (
    		id INT AUTO_INCREMENT PRIMARY KEY,
    		user_id INT NOT NULL,
    		token VARCHAR(64) NOT NULL,
    		expires_at DATETIME NOT NULL,
    		used_at DATETIME NULL,
    		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    	);`
	if _, err := db.Exec(createResetTokenTableSQL); err != nil {
		t.Fatalf("Failed to create password_reset_tokens table: %v", err)
	}

	// テストアカウントの挿入
	userRepo := repositories.NewUserRepository(db)
	CreateTestUser(t, userRepo, "normal_user@example.com", "password123")
	CreateTestUser(t, userRepo, "other_user@example.com", "password456")

	log.Println("Successfully set up test database!")

	// Ginルーターのセットアップ (本番と同じ配線)
	gin.SetMode(gin.TestMode)
	router := routes.SetupRouter(db)
	todoRepo := repositories.NewTodoRepository(db)

	return db, router, todoRepo, userRepo
}

// CreateTestUser はテスト用のアカウントをリポジトリ経由で作成します。
func CreateTestUser(t *testing.T, userRepo *repositories.UserRepository, email, password string) *models.User {
	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	newUser := models.User{
		Email:        email,
		PasswordHash: hashedPassword,
	}

	createdUser, err := userRepo.Create(&newUser)
	require.NoError(t, err)
	require.NotNil(t, createdUser)
	require.NotEqual(t, 0, createdUser.ID)
	return createdUser
}

// CreateTestTodo はAPI経由でテスト用のTodoを作成します。
func CreateTestTodo(t *testing.T, router *gin.Engine, token, text string) *models.Todo {
	todoPayload := map[string]interface{}{
		"text": text,
	}
	body, _ := json.Marshal(todoPayload)

	req, _ := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, "Todo作成に失敗しました: %s", resp.Body.String())

	var createdTodo models.Todo
	err := json.Unmarshal(resp.Body.Bytes(), &createdTodo)
	require.NoError(t, err)
	return &createdTodo
}

// LoginAndGetToken はログインAPIを呼び出してトークンを取得します。
func LoginAndGetToken(t *testing.T, router *gin.Engine, email, password string) (string, error) {
	return postForToken(t, router, "/api/auth/login", email, password)
}

// SignupAndGetToken はサインアップAPIを呼び出してトークンを取得します。
func SignupAndGetToken(t *testing.T, router *gin.Engine, email, password string) (string, error) {
	return postForToken(t, router, "/api/auth/signup", email, password)
}

func postForToken(t *testing.T, router *gin.Engine, path, email, password string) (string, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("%s failed with status %d: %s", path, resp.Code, resp.Body.String())
	}

	var res map[string]interface{}
	err := json.Unmarshal(resp.Body.Bytes(), &res)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	token, ok := res["token"].(string)
	if !ok {
		return "", errors.New("token not found or not a string in response")
	}
	return token, nil
}
