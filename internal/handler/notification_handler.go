package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/youngeru/internal/model"
)

// NotificationDrainer は通知ハンドラーが必要とするインターフェース。
type NotificationDrainer interface {
	// Drain はユーザーの未読トーストを古い順に取り出し、キューを空にする。
	Drain(ctx context.Context, userID string) ([]model.Notification, error)
}

// NotificationHandler はトースト通知のHTTPハンドラー。
type NotificationHandler struct {
	drainer NotificationDrainer
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(drainer NotificationDrainer) *NotificationHandler {
	return &NotificationHandler{drainer: drainer}
}

// Drain は未読トーストを返してキューを空にする。
// GET /api/notifications
func (h *NotificationHandler) Drain(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	notes, err := h.drainer.Drain(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if notes == nil {
		notes = []model.Notification{}
	}

	writeJSON(w, http.StatusOK, notes)
}
