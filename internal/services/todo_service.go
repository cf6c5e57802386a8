package services

import (
	"github.com/LaasyaMarthati/To-Do-List/internal/models"
	"github.com/LaasyaMarthati/To-Do-List/internal/repositories"
)

// TodoService はTodo関連のビジネスロジックを扱います。
// すべての操作はAuthMiddlewareが設定したアカウントIDを明示的な引数として受け取り、
// クライアント入力から所有者を決めることはありません。
type TodoService struct {
	todoRepo *repositories.TodoRepository
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo *repositories.TodoRepository) *TodoService {
	return &TodoService{todoRepo: todoRepo}
}

// CreateTodo は新しいTodoを作成します。priority省略時は "medium"。
func (s *TodoService) CreateTodo(userID int, req models.TodoCreateRequest) (*models.Todo, error) {
	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	todo := &models.Todo{
		UserID:   userID,
		Text:     req.Text,
		Priority: priority,
		DueDate:  req.DueDate,
	}
	return s.todoRepo.Create(todo)
}

// GetTodos はアカウントのTodoを取得します（ピン留め優先、作成日時降順）。
func (s *TodoService) GetTodos(userID int) ([]*models.Todo, error) {
	return s.todoRepo.FindByUser(userID)
}

// ToggleComplete は完了フラグを反転します。
func (s *TodoService) ToggleComplete(userID, todoID int) (*models.Todo, error) {
	return s.todoRepo.ToggleComplete(todoID, userID)
}

// EditText はTodoのテキストのみを更新します。
func (s *TodoService) EditText(userID, todoID int, text string) (*models.Todo, error) {
	return s.todoRepo.UpdateText(todoID, userID, text)
}

// TogglePin はピン留めフラグを反転します。
func (s *TodoService) TogglePin(userID, todoID int) (*models.Todo, error) {
	return s.todoRepo.TogglePin(todoID, userID)
}

// DeleteTodo はTodoを削除します。
func (s *TodoService) DeleteTodo(userID, todoID int) error {
	return s.todoRepo.Delete(todoID, userID)
}
