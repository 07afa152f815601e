package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/youngeru/internal/middleware"
	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in user.ProfileInput) (*model.Profile, error)
	// Withdraw はユーザーの退会処理を実行する。
	// セッションを削除した後、ユーザー行を削除する（個人データはCASCADE削除）。
	Withdraw(ctx context.Context, userID string) error
}

// UserHandler はプロフィールとアカウント管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	config  AuthHandlerConfig
}

// NewUserHandler はUserHandlerを生成する。
// config は退会時のセッションCookieクリアに使う。
func NewUserHandler(service UserServiceInterface, config AuthHandlerConfig) *UserHandler {
	return &UserHandler{
		service: service,
		config:  config,
	}
}

type profileRequest struct {
	FirstName   string `json:"first_name"`
	AgeBand     string `json:"age_band"`
	DietPattern string `json:"diet_pattern"`
}

type profileResponse struct {
	FirstName   string `json:"first_name"`
	AgeBand     string `json:"age_band"`
	DietPattern string `json:"diet_pattern"`
}

// GetProfile はプロフィールを返す。未作成の場合は空のプロフィールを返す。
// GET /api/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// UpdateProfile はプロフィールを更新する。
// PUT /api/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.UpdateProfile(r.Context(), userID, user.ProfileInput{
		FirstName:   req.FirstName,
		AgeBand:     req.AgeBand,
		DietPattern: req.DietPattern,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

// Withdraw はユーザーの退会処理を実行し、セッションCookieをクリアする。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		FirstName:   p.FirstName,
		AgeBand:     p.AgeBand,
		DietPattern: p.DietPattern,
	}
}
