// Package community はコミュニティQ&A（質問・回答・いいね・保存）のサービス層を提供する。
// 投稿の即時反映はリアルタイム配信（realtime パッケージ）が担う。
package community

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
	"github.com/hitoshi/youngeru/internal/security"
)

// トースト通知の文言。
const (
	msgQuestionPosted     = "Question posted successfully!"
	msgQuestionPostFailed = "Failed to post question"
	msgAnswerPosted       = "Answer posted successfully!"
	msgAnswerPostFailed   = "Failed to post answer"
	msgQuestionSaved      = "Question saved"
	msgQuestionUnsaved    = "Question unsaved"
	msgReactionFailed     = "Failed to update"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 5000
	maxTags        = 5

	// tagAll は絞り込みなしを表すタグ。
	tagAll = "All"
)

// Notifier はトースト通知の送信インターフェース。
type Notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// QuestionInput は質問投稿の入力を表す。
type QuestionInput struct {
	Title string
	Body  string
	Tags  []string
}

// Service はコミュニティのサービス層。
type Service struct {
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	reactions repository.ReactionRepository
	sanitizer security.ContentSanitizerService
	notifier  Notifier
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	reactions repository.ReactionRepository,
	sanitizer security.ContentSanitizerService,
	notifier Notifier,
	m metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		questions: questions,
		answers:   answers,
		reactions: reactions,
		sanitizer: sanitizer,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// ListQuestions は質問を新しい順に返す。viewerID が空の場合 is_liked / is_saved は常にfalse。
// tag が "All" の場合は絞り込まない。
func (s *Service) ListQuestions(ctx context.Context, query, tag, viewerID string) ([]model.QuestionWithStats, error) {
	filter := repository.QuestionFilter{Query: strings.TrimSpace(query), Tag: strings.TrimSpace(tag)}
	if filter.Tag == tagAll {
		filter.Tag = ""
	}
	questions, err := s.questions.List(ctx, filter, viewerID)
	if err != nil {
		return nil, fmt.Errorf("質問一覧の取得に失敗しました: %w", err)
	}
	return questions, nil
}

// CreateQuestion は質問を投稿し、保存された行を返す。
func (s *Service) CreateQuestion(ctx context.Context, userID string, in QuestionInput) (*model.Question, error) {
	title := s.sanitizer.Sanitize(in.Title)
	body := s.sanitizer.Sanitize(in.Body)
	if err := validatePost(title, body); err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	q := &model.Question{UserID: userID, Title: title, Body: body, Tags: tags}
	if err := s.questions.Create(ctx, q); err != nil {
		s.logger.Error("質問の投稿に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(ctx, userID, msgQuestionPostFailed)
		return nil, fmt.Errorf("質問の投稿に失敗しました: %w", err)
	}

	s.metrics.RecordCommunityPost("question")
	s.notifier.Success(ctx, userID, msgQuestionPosted)
	return q, nil
}

// ListAnswers は質問への回答を古い順に返す。
func (s *Service) ListAnswers(ctx context.Context, questionID int64, viewerID string) ([]model.AnswerWithStats, error) {
	if _, err := s.requireQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByQuestionID(ctx, questionID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("回答一覧の取得に失敗しました: %w", err)
	}
	return answers, nil
}

// CreateAnswer は回答を投稿し、保存された行を返す。
func (s *Service) CreateAnswer(ctx context.Context, userID string, questionID int64, body string) (*model.Answer, error) {
	body = s.sanitizer.Sanitize(body)
	if body == "" {
		return nil, model.NewInvalidPostError("body is required")
	}
	if len([]rune(body)) > maxBodyLength {
		return nil, model.NewInvalidPostError(fmt.Sprintf("body must be at most %d characters", maxBodyLength))
	}
	if _, err := s.requireQuestion(ctx, questionID); err != nil {
		return nil, err
	}

	a := &model.Answer{QuestionID: questionID, UserID: userID, Body: body}
	if err := s.answers.Create(ctx, a); err != nil {
		s.logger.Error("回答の投稿に失敗しました",
			slog.Int64("question_id", questionID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(ctx, userID, msgAnswerPostFailed)
		return nil, fmt.Errorf("回答の投稿に失敗しました: %w", err)
	}

	s.metrics.RecordCommunityPost("answer")
	s.notifier.Success(ctx, userID, msgAnswerPosted)
	return a, nil
}

// ToggleQuestionLike は質問へのいいねをトグルする。
func (s *Service) ToggleQuestionLike(ctx context.Context, userID string, questionID int64) (model.ToggleResult, error) {
	if _, err := s.requireQuestion(ctx, questionID); err != nil {
		return model.ToggleResult{}, err
	}
	res, err := s.reactions.ToggleQuestionLike(ctx, questionID, userID)
	if err != nil {
		s.notifier.Error(ctx, userID, msgReactionFailed)
		return model.ToggleResult{}, fmt.Errorf("いいねの更新に失敗しました: %w", err)
	}
	return res, nil
}

// ToggleQuestionSave は質問の保存をトグルし、状態に応じた通知を積む。
func (s *Service) ToggleQuestionSave(ctx context.Context, userID string, questionID int64) (model.ToggleResult, error) {
	if _, err := s.requireQuestion(ctx, questionID); err != nil {
		return model.ToggleResult{}, err
	}
	res, err := s.reactions.ToggleQuestionSave(ctx, questionID, userID)
	if err != nil {
		s.notifier.Error(ctx, userID, msgReactionFailed)
		return model.ToggleResult{}, fmt.Errorf("保存状態の更新に失敗しました: %w", err)
	}
	if res.Active {
		s.notifier.Success(ctx, userID, msgQuestionSaved)
	} else {
		s.notifier.Success(ctx, userID, msgQuestionUnsaved)
	}
	return res, nil
}

// ToggleAnswerLike は回答へのいいねをトグルする。
func (s *Service) ToggleAnswerLike(ctx context.Context, userID string, answerID int64) (model.ToggleResult, error) {
	a, err := s.answers.FindByID(ctx, answerID)
	if err != nil {
		return model.ToggleResult{}, fmt.Errorf("回答の取得に失敗しました: %w", err)
	}
	if a == nil {
		return model.ToggleResult{}, model.NewAnswerNotFoundError(answerID)
	}
	res, err := s.reactions.ToggleAnswerLike(ctx, answerID, userID)
	if err != nil {
		s.notifier.Error(ctx, userID, msgReactionFailed)
		return model.ToggleResult{}, fmt.Errorf("いいねの更新に失敗しました: %w", err)
	}
	return res, nil
}

func (s *Service) requireQuestion(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("質問の取得に失敗しました: %w", err)
	}
	if q == nil {
		return nil, model.NewQuestionNotFoundError(id)
	}
	return q, nil
}

func validatePost(title, body string) error {
	switch {
	case title == "":
		return model.NewInvalidPostError("title is required")
	case body == "":
		return model.NewInvalidPostError("body is required")
	case len([]rune(title)) > maxTitleLength:
		return model.NewInvalidPostError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	case len([]rune(body)) > maxBodyLength:
		return model.NewInvalidPostError(fmt.Sprintf("body must be at most %d characters", maxBodyLength))
	}
	return nil
}

// normalizeTags は重複を除き、定義済みタグ（"All" を除く）のみを受け付ける。
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(out, t) {
			continue
		}
		if t == tagAll || !slices.Contains(model.CommunityTags, t) {
			return nil, model.NewInvalidPostError(fmt.Sprintf("unknown tag %q", t))
		}
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, model.NewInvalidPostError(fmt.Sprintf("at most %d tags", maxTags))
	}
	return out, nil
}
