package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LaasyaMarthati/To-Do-List/internal/models"
	"github.com/LaasyaMarthati/To-Do-List/internal/repositories"
	"github.com/LaasyaMarthati/To-Do-List/testutil"
)

func TestCreateTodo_Success(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	payload := `{"text": "buy milk"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var createdTodo models.Todo
	err = json.Unmarshal(w.Body.Bytes(), &createdTodo)
	assert.NoError(t, err)

	assert.NotZero(t, createdTodo.ID)
	assert.Equal(t, "buy milk", createdTodo.Text)
	assert.False(t, createdTodo.Completed)
	assert.Equal(t, models.PriorityMedium, createdTodo.Priority) // priority省略時のデフォルト
	assert.Nil(t, createdTodo.DueDate)
	assert.False(t, createdTodo.Pinned)
	assert.WithinDuration(t, time.Now(), createdTodo.CreatedAt, 5*time.Second)
}

func TestCreateTodo_WithPriorityAndDueDate(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	payload := fmt.Sprintf(`{"text": "file taxes", "priority": "high", "dueDate": %q}`, due.Format(time.RFC3339))
	req, _ := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var createdTodo models.Todo
	err = json.Unmarshal(w.Body.Bytes(), &createdTodo)
	require.NoError(t, err)
	require.Equal(t, models.PriorityHigh, createdTodo.Priority)
	require.NotNil(t, createdTodo.DueDate)
	require.WithinDuration(t, due, *createdTodo.DueDate, time.Second)
}

func TestCreateTodo_Validation(t *testing.T) {
	db, r, todoRepo, userRepo := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	user, err := userRepo.FindByEmail("normal_user@example.com")
	require.NoError(t, err)

	cases := []struct {
		name    string
		payload string
	}{
		{"empty text", `{"text": ""}`},
		{"missing text", `{"priority": "low"}`},
		{"invalid priority", `{"text": "task", "priority": "urgent"}`}, // 許可値以外は拒否
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBufferString(tc.payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// バリデーションエラーでは1件も保存されないこと
	count, err := todoRepo.CountByUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestGetTodos_Ordering(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	first := testutil.CreateTestTodo(t, r, token, "first")
	second := testutil.CreateTestTodo(t, r, token, "second")
	third := testutil.CreateTestTodo(t, r, token, "third")

	// 一番古いTodoをピン留めする
	pinReq, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/api/todos/%d/pin", first.ID), nil)
	pinReq.Header.Set("Authorization", "Bearer "+token)
	pinW := httptest.NewRecorder()
	r.ServeHTTP(pinW, pinReq)
	require.Equal(t, http.StatusOK, pinW.Code)

	req, _ := http.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var todos []*models.Todo
	err = json.Unmarshal(w.Body.Bytes(), &todos)
	require.NoError(t, err)
	require.Len(t, todos, 3)

	// ピン留めが先頭、残りは作成日時の降順
	require.Equal(t, first.ID, todos[0].ID)
	require.True(t, todos[0].Pinned)
	require.Equal(t, third.ID, todos[1].ID)
	require.Equal(t, second.ID, todos[2].ID)
}

func TestGetTodos_EmptyList(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// 空のリストはエラーではなく空配列
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestToggleCompleteHandler(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, r, token, "toggle me")
	require.False(t, created.Completed)

	toggle := func() *models.Todo {
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/api/todos/%d", created.ID), nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var updated models.Todo
		err := json.Unmarshal(w.Body.Bytes(), &updated)
		require.NoError(t, err)
		return &updated
	}

	// 1回目で完了、2回目で元に戻ること
	require.True(t, toggle().Completed)
	require.False(t, toggle().Completed)
}

func TestEditTodoHandler(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, r, token, "original text")

	t.Run("updates text only", func(t *testing.T) {
		payload := `{"text": "edited text"}`
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/api/todos/%d/edit", created.ID), strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var updated models.Todo
		err := json.Unmarshal(w.Body.Bytes(), &updated)
		require.NoError(t, err)
		require.Equal(t, "edited text", updated.Text)
		// 編集ルートはテキスト以外を変更しない
		require.Equal(t, created.Priority, updated.Priority)
		require.Equal(t, created.Completed, updated.Completed)
		require.Equal(t, created.Pinned, updated.Pinned)
	})

	t.Run("rejects empty text", func(t *testing.T) {
		payload := `{"text": ""}`
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/api/todos/%d/edit", created.ID), strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTogglePinHandler(t *testing.T) {
	db, r, _, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, r, token, "pin me")
	require.False(t, created.Pinned)

	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/api/todos/%d/pin", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Todo
	err = json.Unmarshal(w.Body.Bytes(), &updated)
	require.NoError(t, err)
	require.True(t, updated.Pinned)
}

func TestDeleteTodoHandler(t *testing.T) {
	db, r, todoRepo, _ := testutil.SetupTestDB(t)
	defer db.Close()

	token, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)

	created := testutil.CreateTestTodo(t, r, token, "delete me")

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	err = json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	require.Equal(t, "Task deleted", response["message"])

	// 削除されたことを確認
	_, err = todoRepo.FindByIDAndUser(created.ID, created.UserID)
	require.ErrorIs(t, err, repositories.ErrTodoNotFound)
}

func TestTodoHandlers_OwnershipScoping(t *testing.T) {
	db, r, todoRepo, _ := testutil.SetupTestDB(t)
	defer db.Close()

	tokenNormal, err := testutil.LoginAndGetToken(t, r, "normal_user@example.com", "password123")
	require.NoError(t, err)
	tokenOther, err := testutil.LoginAndGetToken(t, r, "other_user@example.com", "password456")
	require.NoError(t, err)

	// normal_user のTodoを other_user が操作しようとする
	target := testutil.CreateTestTodo(t, r, tokenNormal, "not yours")

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"toggle complete", http.MethodPut, fmt.Sprintf("/api/todos/%d", target.ID), ""},
		{"edit", http.MethodPut, fmt.Sprintf("/api/todos/%d/edit", target.ID), `{"text": "hijacked"}`},
		{"pin", http.MethodPut, fmt.Sprintf("/api/todos/%d/pin", target.ID), ""},
		{"delete", http.MethodDelete, fmt.Sprintf("/api/todos/%d", target.ID), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.body != "" {
				req, _ = http.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req, _ = http.NewRequest(tc.method, tc.path, nil)
			}
			req.Header.Set("Authorization", "Bearer "+tokenOther)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			// 存在しないTodoと区別が付かないこと（404）
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}

	// 操作は一切反映されていないこと
	unchanged, err := todoRepo.FindByIDAndUser(target.ID, target.UserID)
	require.NoError(t, err)
	require.Equal(t, "not yours", unchanged.Text)
	require.False(t, unchanged.Completed)
	require.False(t, unchanged.Pinned)

	// 他人のリストにも現れないこと
	req, _ := http.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+tokenOther)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todos))
	require.Empty(t, todos)
}
