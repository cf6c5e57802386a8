// Package modelsはTodoを定義します。
package models

import (
	"time"
)

// 優先度の許可値
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Todo struct {
	ID        int        `json:"id,omitempty"` // 主キー
	UserID    int        `json:"user_id"`      // 所有者のアカウントID (必須)
	Text      string     `json:"text"`         // タスク本文
	Completed bool       `json:"completed"`    // 完了状態
	Priority  string     `json:"priority"`     // low / medium / high
	DueDate   *time.Time `json:"dueDate"`      // 期限 (なければnull)
	Pinned    bool       `json:"pinned"`       // ピン留め状態
	CreatedAt time.Time  `json:"createdAt"`    // 作成日時 (サーバー側で設定)
}

// TodoCreateRequest はTodo作成リクエストの構造体です。
// priorityを省略した場合は "medium" になります。許可値以外はバインディングで拒否。
type TodoCreateRequest struct {
	Text     string     `json:"text" binding:"required"`
	Priority string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate  *time.Time `json:"dueDate"`
}

// TodoEditRequest はテキスト編集リクエストの構造体です。
// 編集ルートが更新するのはテキストのみ (priority/dueDateは対象外)。
type TodoEditRequest struct {
	Text string `json:"text" binding:"required"`
}
