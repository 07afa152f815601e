package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/youngeru/internal/forecast"
	"github.com/hitoshi/youngeru/internal/model"
)

// ForecastServiceInterface はフォーキャストハンドラーが必要とするサービスインターフェース。
type ForecastServiceInterface interface {
	Preview(ctx context.Context, in model.ForecastInputs) (*forecast.Result, error)
	Save(ctx context.Context, userID string, in model.ForecastInputs) (*forecast.Result, error)
	List(ctx context.Context, userID string) ([]*model.Forecast, error)
}

// ForecastHandler はフォーキャストのHTTPハンドラー。
type ForecastHandler struct {
	service ForecastServiceInterface
}

// NewForecastHandler はForecastHandlerを生成する。
func NewForecastHandler(service ForecastServiceInterface) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type projectionResponse struct {
	Projection []model.ProjectionPoint `json:"projection"`
	Saved      bool                    `json:"saved"`
	ForecastID *int64                  `json:"forecast_id,omitempty"`
}

type forecastResponse struct {
	ID         int64                   `json:"id"`
	Inputs     model.ForecastInputs    `json:"inputs"`
	Projection []model.ProjectionPoint `json:"projection"`
	CreatedAt  time.Time               `json:"created_at"`
}

// Preview は保存せずに予測系列を返す。
// POST /api/forecast/preview
func (h *ForecastHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in model.ForecastInputs
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.service.Preview(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectionResponse(result))
}

// Save はサーバー側で予測系列を再計算して保存する。
// POST /api/forecasts
func (h *ForecastHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in model.ForecastInputs
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.service.Save(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectionResponse(result))
}

// List は保存済みフォーキャストを新しい順に返す。
// GET /api/forecasts
func (h *ForecastHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	forecasts, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]forecastResponse, len(forecasts))
	for i, f := range forecasts {
		resp[i] = forecastResponse{
			ID:         f.ID,
			Inputs:     f.Inputs,
			Projection: f.Projection,
			CreatedAt:  f.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func toProjectionResponse(result *forecast.Result) projectionResponse {
	resp := projectionResponse{
		Projection: result.Projection,
		Saved:      result.Saved,
	}
	if result.Saved && result.Forecast != nil {
		resp.ForecastID = &result.Forecast.ID
	}
	return resp
}
