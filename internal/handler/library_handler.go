package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/youngeru/internal/library"
	"github.com/hitoshi/youngeru/internal/model"
)

// LibraryServiceInterface はライブラリハンドラーが必要とするサービスインターフェース。
type LibraryServiceInterface interface {
	List(ctx context.Context, q library.Query) ([]*model.LibraryItem, error)
	Get(ctx context.Context, slug string) (*model.LibraryItem, error)
}

// LibraryHandler はライブラリのHTTPハンドラー。
type LibraryHandler struct {
	service LibraryServiceInterface
}

// NewLibraryHandler はLibraryHandlerを生成する。
func NewLibraryHandler(service LibraryServiceInterface) *LibraryHandler {
	return &LibraryHandler{service: service}
}

type libraryItemResponse struct {
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	EvidenceLevel string    `json:"evidence_level"`
	Summary       string    `json:"summary"`
	HowToTake     string    `json:"how_to_take"`
	Guardrails    string    `json:"guardrails"`
	Tags          []string  `json:"tags"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// List は項目を検索・絞り込みして返す。filterは複数指定可能でOR結合。
// GET /api/library?q=&filter=
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	items, err := h.service.List(r.Context(), library.Query{
		Search:  query.Get("q"),
		Filters: query["filter"],
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]libraryItemResponse, len(items))
	for i, item := range items {
		resp[i] = toLibraryItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はスラッグで項目を返す。
// GET /api/library/{slug}
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLibraryItemResponse(item))
}

func toLibraryItemResponse(item *model.LibraryItem) libraryItemResponse {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return libraryItemResponse{
		Slug:          item.Slug,
		Title:         item.Title,
		Category:      item.Category,
		EvidenceLevel: string(item.EvidenceLevel),
		Summary:       item.Summary,
		HowToTake:     item.HowToTake,
		Guardrails:    item.Guardrails,
		Tags:          tags,
		UpdatedAt:     item.UpdatedAt,
	}
}
