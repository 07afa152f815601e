package model

import (
	"strconv"
	"time"
)

// CommunityTags はコミュニティ画面で絞り込みに使うタグ。"All" は絞り込みなし。
var CommunityTags = []string{"All", "Energy", "Focus", "Recovery", "Sleep", "Supplements", "Diet", "Exercise"}

// Question はコミュニティの質問投稿を表す。
type Question struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionWithStats は質問と集計値、閲覧ユーザーごとの状態を結合したモデル。
type QuestionWithStats struct {
	Question
	LikesCount   int
	AnswersCount int
	IsLiked      bool
	IsSaved      bool
}

// Answer は質問への回答を表す。
type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserID     string    `json:"user_id"`
	Body       string    `json:"body"`
	IsExpert   bool      `json:"is_expert"`
	CreatedAt  time.Time `json:"created_at"`
}

// AnswerWithStats は回答といいね数、閲覧ユーザーのいいね状態を結合したモデル。
type AnswerWithStats struct {
	Answer
	LikesCount int
	IsLiked    bool
}

// CommunityEventTable はリアルタイムイベントの発生元テーブル。
type CommunityEventTable string

const (
	CommunityEventQuestions CommunityEventTable = "questions"
	CommunityEventAnswers   CommunityEventTable = "answers"
)

// CommunityEvent は questions / answers への行挿入イベントを表す。
// Question / Answer のどちらか一方のみが設定される。
type CommunityEvent struct {
	Table    CommunityEventTable `json:"table"`
	Question *Question           `json:"question,omitempty"`
	Answer   *Answer             `json:"answer,omitempty"`
}

// Key はイベントの重複判定キーを返す。
func (e CommunityEvent) Key() string {
	switch {
	case e.Question != nil:
		return "questions:" + strconv.FormatInt(e.Question.ID, 10)
	case e.Answer != nil:
		return "answers:" + strconv.FormatInt(e.Answer.ID, 10)
	default:
		return string(e.Table) + ":"
	}
}

// ToggleResult はいいね・保存のトグル結果を表す。
type ToggleResult struct {
	Active bool
	Count  int
}
