package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/planner"
)

// PlannerServiceInterface はプランナーハンドラーが必要とするサービスインターフェース。
type PlannerServiceInterface interface {
	// Preview は保存せずに推奨リストを生成する。
	Preview(ctx context.Context, in model.PlannerInputs) (*planner.Result, error)
	// Generate は推奨リストを生成して保存する。保存失敗時もResultを返す。
	Generate(ctx context.Context, userID string, in model.PlannerInputs) (*planner.Result, error)
	ListSessions(ctx context.Context, userID string) ([]*model.PlannerSession, error)
}

// PlannerHandler はプランナーのHTTPハンドラー。
type PlannerHandler struct {
	service PlannerServiceInterface
}

// NewPlannerHandler はPlannerHandlerを生成する。
func NewPlannerHandler(service PlannerServiceInterface) *PlannerHandler {
	return &PlannerHandler{service: service}
}

type planResponse struct {
	Recommendations []model.Recommendation `json:"recommendations"`
	Saved           bool                   `json:"saved"`
	SessionID       *int64                 `json:"session_id,omitempty"`
}

type plannerSessionResponse struct {
	ID        int64                  `json:"id"`
	Inputs    model.PlannerInputs    `json:"inputs"`
	Output    []model.Recommendation `json:"output"`
	CreatedAt time.Time              `json:"created_at"`
}

// Demo は公開デモ用に推奨リストを返す。保存しない。
// POST /api/demo/plan
func (h *PlannerHandler) Demo(w http.ResponseWriter, r *http.Request) {
	var in model.PlannerInputs
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.service.Preview(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanResponse(result))
}

// CreateSession は推奨リストを生成して保存する。
// 保存に失敗しても200で saved:false を返す。
// POST /api/planner/sessions
func (h *PlannerHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.PlannerInputs
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.service.Generate(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPlanResponse(result))
}

// ListSessions は保存済みプランを新しい順に返す。
// GET /api/planner/sessions
func (h *PlannerHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]plannerSessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = plannerSessionResponse{
			ID:        s.ID,
			Inputs:    s.Inputs,
			Output:    nonNilRecommendations(s.Output),
			CreatedAt: s.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func toPlanResponse(result *planner.Result) planResponse {
	resp := planResponse{
		Recommendations: nonNilRecommendations(result.Recommendations),
		Saved:           result.Saved,
	}
	if result.Saved && result.Session != nil {
		resp.SessionID = &result.Session.ID
	}
	return resp
}

func nonNilRecommendations(recs []model.Recommendation) []model.Recommendation {
	if recs == nil {
		return []model.Recommendation{}
	}
	return recs
}
