package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LaasyaMarthati/To-Do-List/internal/models"
	"github.com/LaasyaMarthati/To-Do-List/internal/repositories"
	"github.com/LaasyaMarthati/To-Do-List/internal/services"
)

// UserIDFromContext はAuthMiddlewareが設定したアカウントIDを取り出します。
func UserIDFromContext(c *gin.Context) (int, error) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return 0, errors.New("user ID not found in context")
	}
	userID, ok := userIDVal.(int)
	if !ok {
		return 0, errors.New("invalid user ID type in context")
	}
	return userID, nil
}

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// todoID はパスパラメータ:idを整数として取り出します。
func todoID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return 0, false
	}
	return id, true
}

// GetTodosHandler は自分のTodoリストを取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	todos, err := h.todoService.GetTodos(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todos"})
		return
	}
	c.JSON(http.StatusOK, todos)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}

	var req models.TodoCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todo text is required"})
		return
	}

	createdTodo, err := h.todoService.CreateTodo(userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create todo"})
		return
	}
	c.JSON(http.StatusOK, createdTodo)
}

// ToggleCompleteHandler は完了フラグを反転します。
func (h *TodoHandler) ToggleCompleteHandler(c *gin.Context) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	updatedTodo, err := h.todoService.ToggleComplete(userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update todo"})
		return
	}
	c.JSON(http.StatusOK, updatedTodo)
}

// EditTodoHandler はTodoのテキストのみを更新します。
func (h *TodoHandler) EditTodoHandler(c *gin.Context) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	var req models.TodoEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text required"})
		return
	}

	updatedTodo, err := h.todoService.EditText(userID, id, req.Text)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update todo"})
		return
	}
	c.JSON(http.StatusOK, updatedTodo)
}

// TogglePinHandler はピン留めフラグを反転します。
func (h *TodoHandler) TogglePinHandler(c *gin.Context) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	updatedTodo, err := h.todoService.TogglePin(userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update todo"})
		return
	}
	c.JSON(http.StatusOK, updatedTodo)
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	userID, err := UserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	id, ok := todoID(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(userID, id); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete todo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}
