// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/LaasyaMarthati/To-Do-List/internal/models"
)

// ErrTodoNotFound はTodoが見つからない場合のエラーです。
// 他人のTodoへのアクセスも同じエラーになる（存在の有無を漏らさないため）。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository はTodoのデータベース操作を行うための構造体です。
// すべての読み書きは (id, user_id) の複合条件で所有者に限定されます。
type TodoRepository struct {
	DB *sql.DB
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

// Create は新しいTodoをデータベースに挿入します。
func (r *TodoRepository) Create(t *models.Todo) (*models.Todo, error) {
	query := "INSERT INTO todos (user_id, text, completed, priority, due_date, pinned) VALUES (?, ?, ?, ?, ?, ?)"

	result, err := r.DB.Exec(query, t.UserID, t.Text, t.Completed, t.Priority, t.DueDate, t.Pinned)
	if err != nil {
		log.Printf("Failed to insert todo: %v", err)
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	t.ID = int(id)

	// created_at はDB側で設定されるため、SELECTし直して返す
	return r.FindByIDAndUser(t.ID, t.UserID)
}

// FindByUser は指定アカウントのTodoをすべて取得します。
// ピン留めが先、次に作成日時の降順。同時刻はIDの降順で安定させる。
func (r *TodoRepository) FindByUser(userID int) ([]*models.Todo, error) {
	query := "SELECT id, user_id, text, completed, priority, due_date, pinned, created_at FROM todos WHERE user_id = ? ORDER BY pinned DESC, created_at DESC, id DESC"

	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.Printf("Failed to query todos: %v", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		var t models.Todo
		var dueDate sql.NullTime
		err := rows.Scan(&t.ID, &t.UserID, &t.Text, &t.Completed, &t.Priority, &dueDate, &t.Pinned, &t.CreatedAt)
		if err != nil {
			log.Printf("Failed to scan todo: %v", err)
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		if dueDate.Valid {
			t.DueDate = &dueDate.Time
		}
		todos = append(todos, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// FindByIDAndUser は指定されたIDかつ指定アカウント所有のTodoを取得します。
func (r *TodoRepository) FindByIDAndUser(id, userID int) (*models.Todo, error) {
	query := "SELECT id, user_id, text, completed, priority, due_date, pinned, created_at FROM todos WHERE id = ? AND user_id = ?"

	var t models.Todo
	var dueDate sql.NullTime
	err := r.DB.QueryRow(query, id, userID).Scan(&t.ID, &t.UserID, &t.Text, &t.Completed, &t.Priority, &dueDate, &t.Pinned, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Printf("Failed to query todo by ID: %v", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}

	return &t, nil
}

// ToggleComplete は完了フラグを反転します。所有していなければErrTodoNotFound。
func (r *TodoRepository) ToggleComplete(id, userID int) (*models.Todo, error) {
	return r.toggleFlag("completed", id, userID)
}

// TogglePin はピン留めフラグを反転します。所有していなければErrTodoNotFound。
func (r *TodoRepository) TogglePin(id, userID int) (*models.Todo, error) {
	return r.toggleFlag("pinned", id, userID)
}

// toggleFlag は (id, user_id) を条件にした単一UPDATE文でフラグを反転します。
func (r *TodoRepository) toggleFlag(column string, id, userID int) (*models.Todo, error) {
	query := fmt.Sprintf("UPDATE todos SET %s = NOT %s WHERE id = ? AND user_id = ?", column, column)

	result, err := r.DB.Exec(query, id, userID)
	if err != nil {
		log.Printf("Failed to toggle %s: %v", column, err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTodoNotFound
	}

	// 更新されたTodoを取得して返す
	return r.FindByIDAndUser(id, userID)
}

// UpdateText は指定Todoのテキストのみを更新します。
func (r *TodoRepository) UpdateText(id, userID int, text string) (*models.Todo, error) {
	query := "UPDATE todos SET text = ? WHERE id = ? AND user_id = ?"

	result, err := r.DB.Exec(query, text, id, userID)
	if err != nil {
		log.Printf("Failed to update todo text: %v", err)
		return nil, fmt.Errorf("could not update todo: %w", err)
	}

	if _, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}

	// 同値更新でもMySQLはRowsAffected=0を返すため、存在確認はSELECTで行う
	return r.FindByIDAndUser(id, userID)
}

// Delete は指定されたIDかつ指定アカウント所有のTodoを削除します。
func (r *TodoRepository) Delete(id, userID int) error {
	query := "DELETE FROM todos WHERE id = ? AND user_id = ?"

	result, err := r.DB.Exec(query, id, userID)
	if err != nil {
		log.Printf("Failed to delete todo: %v", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// DeleteByUserTx は指定アカウントのTodoをすべて削除します。
// アカウント削除のカスケードとしてトランザクション内で使用します。
func (r *TodoRepository) DeleteByUserTx(tx *sql.Tx, userID int) error {
	_, err := tx.Exec("DELETE FROM todos WHERE user_id = ?", userID)
	if err != nil {
		log.Printf("Failed to delete todos for user %d: %v", userID, err)
		return fmt.Errorf("could not delete todos: %w", err)
	}
	return nil
}

// CountByUser は指定アカウントのTodo件数を返します（テストでの確認用）。
func (r *TodoRepository) CountByUser(userID int) (int, error) {
	var n int
	err := r.DB.QueryRow("SELECT COUNT(*) FROM todos WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("could not count todos: %w", err)
	}
	return n, nil
}
