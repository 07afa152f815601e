package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/youngeru/internal/community"
	"github.com/hitoshi/youngeru/internal/middleware"
	"github.com/hitoshi/youngeru/internal/model"
)

// CommunityServiceInterface はコミュニティハンドラーが必要とするサービスインターフェース。
type CommunityServiceInterface interface {
	ListQuestions(ctx context.Context, query, tag, viewerID string) ([]model.QuestionWithStats, error)
	CreateQuestion(ctx context.Context, userID string, in community.QuestionInput) (*model.Question, error)
	ListAnswers(ctx context.Context, questionID int64, viewerID string) ([]model.AnswerWithStats, error)
	CreateAnswer(ctx context.Context, userID string, questionID int64, body string) (*model.Answer, error)
	ToggleQuestionLike(ctx context.Context, userID string, questionID int64) (model.ToggleResult, error)
	ToggleQuestionSave(ctx context.Context, userID string, questionID int64) (model.ToggleResult, error)
	ToggleAnswerLike(ctx context.Context, userID string, answerID int64) (model.ToggleResult, error)
}

// CommunityHandler はコミュニティQ&AのHTTPハンドラー。
type CommunityHandler struct {
	service CommunityServiceInterface
}

// NewCommunityHandler はCommunityHandlerを生成する。
func NewCommunityHandler(service CommunityServiceInterface) *CommunityHandler {
	return &CommunityHandler{service: service}
}

type createQuestionRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

type createAnswerRequest struct {
	Body string `json:"body"`
}

type questionResponse struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	LikesCount   int       `json:"likes_count"`
	AnswersCount int       `json:"answers_count"`
	IsLiked      bool      `json:"is_liked"`
	IsSaved      bool      `json:"is_saved"`
}

type answerResponse struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserID     string    `json:"user_id"`
	Body       string    `json:"body"`
	IsExpert   bool      `json:"is_expert"`
	CreatedAt  time.Time `json:"created_at"`
	LikesCount int       `json:"likes_count"`
	IsLiked    bool      `json:"is_liked"`
}

type toggleResponse struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// ListQuestions は質問を新しい順に返す。セッションがあれば閲覧者の状態を含める。
// GET /api/questions?q=&tag=
func (h *CommunityHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	questions, err := h.service.ListQuestions(r.Context(), q.Get("q"), q.Get("tag"), middleware.OptionalUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]questionResponse, len(questions))
	for i, qs := range questions {
		resp[i] = toQuestionResponse(&qs.Question)
		resp[i].LikesCount = qs.LikesCount
		resp[i].AnswersCount = qs.AnswersCount
		resp[i].IsLiked = qs.IsLiked
		resp[i].IsSaved = qs.IsSaved
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateQuestion は質問を投稿し、サーバー側で保存された行を返す。
// POST /api/questions
func (h *CommunityHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	q, err := h.service.CreateQuestion(r.Context(), userID, community.QuestionInput{
		Title: req.Title,
		Body:  req.Body,
		Tags:  req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// ListAnswers は回答を古い順に返す。
// GET /api/questions/{id}/answers
func (h *CommunityHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	answers, err := h.service.ListAnswers(r.Context(), id, middleware.OptionalUserID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]answerResponse, len(answers))
	for i, as := range answers {
		resp[i] = toAnswerResponse(&as.Answer)
		resp[i].LikesCount = as.LikesCount
		resp[i].IsLiked = as.IsLiked
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateAnswer は回答を投稿し、サーバー側で保存された行を返す。
// POST /api/questions/{id}/answers
func (h *CommunityHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req createAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.service.CreateAnswer(r.Context(), userID, id, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAnswerResponse(a))
}

// LikeQuestion は質問へのいいねをトグルする。
// PUT /api/questions/{id}/like
func (h *CommunityHandler) LikeQuestion(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleQuestionLike)
}

// SaveQuestion は質問の保存をトグルする。
// PUT /api/questions/{id}/save
func (h *CommunityHandler) SaveQuestion(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleQuestionSave)
}

// LikeAnswer は回答へのいいねをトグルする。
// PUT /api/answers/{id}/like
func (h *CommunityHandler) LikeAnswer(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.ToggleAnswerLike)
}

func (h *CommunityHandler) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID string, id int64) (model.ToggleResult, error)) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	res, err := fn(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Active: res.Active, Count: res.Count})
}

func toQuestionResponse(q *model.Question) questionResponse {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return questionResponse{
		ID:        q.ID,
		UserID:    q.UserID,
		Title:     q.Title,
		Body:      q.Body,
		Tags:      tags,
		CreatedAt: q.CreatedAt,
	}
}

func toAnswerResponse(a *model.Answer) answerResponse {
	return answerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		UserID:     a.UserID,
		Body:       a.Body,
		IsExpert:   a.IsExpert,
		CreatedAt:  a.CreatedAt,
	}
}
