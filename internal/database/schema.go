package database

import (
	"database/sql"
	"log"
)

// スキーマ定義。起動時に存在しなければ作成します。
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	);`,
	`CREATE TABLE IF NOT EXISTS todos (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		text TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		priority ENUM('low','medium','high') NOT NULL DEFAULT 'medium',
		due_date DATETIME NULL,
		pinned BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		token VARCHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		used_at DATETIME NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`,
}

// EnsureSchema は必要なテーブルを作成します。
func EnsureSchema(db *sql.DB) {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Fatal: Failed to ensure schema: %v", err)
		}
	}
}
