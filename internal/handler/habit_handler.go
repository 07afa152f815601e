package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/youngeru/internal/habit"
	"github.com/hitoshi/youngeru/internal/model"
)

// HabitServiceInterface は習慣ハンドラーが必要とするサービスインターフェース。
type HabitServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.HabitWithStatus, error)
	Create(ctx context.Context, userID string, in habit.CreateInput) (*model.Habit, error)
	Toggle(ctx context.Context, userID string, habitID int64) (*model.HabitLog, error)
	Delete(ctx context.Context, userID string, habitID int64) error
}

// HabitHandler は習慣管理のHTTPハンドラー。
type HabitHandler struct {
	service HabitServiceInterface
}

// NewHabitHandler はHabitHandlerを生成する。
func NewHabitHandler(service HabitServiceInterface) *HabitHandler {
	return &HabitHandler{service: service}
}

type createHabitRequest struct {
	Title        string               `json:"title"`
	Schedule     *model.HabitSchedule `json:"schedule"`
	ReminderTime *string              `json:"reminder_time"`
}

type habitResponse struct {
	ID           int64               `json:"id"`
	Title        string              `json:"title"`
	Schedule     model.HabitSchedule `json:"schedule"`
	ReminderTime *string             `json:"reminder_time"`
	Streak       int                 `json:"streak"`
	DoneToday    bool                `json:"done_today"`
	CreatedAt    time.Time           `json:"created_at"`
}

type habitLogResponse struct {
	HabitID int64  `json:"habit_id"`
	Date    string `json:"date"`
	Done    bool   `json:"done"`
}

// List は習慣を新しい順にストリークと当日達成状態付きで返す。
// GET /api/habits
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	habits, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]habitResponse, len(habits))
	for i, hs := range habits {
		resp[i] = toHabitResponse(&hs.Habit)
		resp[i].Streak = hs.Streak
		resp[i].DoneToday = hs.DoneToday
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は習慣を作成する。
// POST /api/habits
func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createHabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), userID, habit.CreateInput{
		Title:        req.Title,
		Schedule:     req.Schedule,
		ReminderTime: req.ReminderTime,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHabitResponse(created))
}

// Toggle は今日の達成状態を反転する。
// POST /api/habits/{id}/toggle
func (h *HabitHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	log, err := h.service.Toggle(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, habitLogResponse{
		HabitID: log.HabitID,
		Date:    log.Date.Format(time.DateOnly),
		Done:    log.Done,
	})
}

// Delete は習慣とそのログを削除する。
// DELETE /api/habits/{id}
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toHabitResponse(hb *model.Habit) habitResponse {
	return habitResponse{
		ID:           hb.ID,
		Title:        hb.Title,
		Schedule:     hb.Schedule,
		ReminderTime: hb.ReminderTime,
		CreatedAt:    hb.CreatedAt,
	}
}
