// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, wellness, community, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidPlannerInput  = "INVALID_PLANNER_INPUT"
	ErrCodeInvalidForecastInput = "INVALID_FORECAST_INPUT"
	ErrCodeInvalidSafetyInput   = "INVALID_SAFETY_INPUT"
	ErrCodeSafetyCheckNotFound  = "SAFETY_CHECK_NOT_FOUND"
	ErrCodeInvalidHabit         = "INVALID_HABIT"
	ErrCodeHabitNotFound        = "HABIT_NOT_FOUND"
	ErrCodeLibraryItemNotFound  = "LIBRARY_ITEM_NOT_FOUND"
	ErrCodeInvalidPost          = "INVALID_POST"
	ErrCodeQuestionNotFound     = "QUESTION_NOT_FOUND"
	ErrCodeAnswerNotFound       = "ANSWER_NOT_FOUND"
	ErrCodeInvalidSignUp        = "INVALID_SIGN_UP"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeInvalidProfile       = "INVALID_PROFILE"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
)

// NewInvalidPlannerInputError はプランナー入力のバリデーションエラーを生成する。
func NewInvalidPlannerInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPlannerInput,
		Message:  fmt.Sprintf("Invalid planner input: %s", reason),
		Category: "validation",
		Action:   "Check your goals and rate sleep quality and stress from 1 to 5.",
	}
}

// NewInvalidForecastInputError はフォーキャスト入力のバリデーションエラーを生成する。
func NewInvalidForecastInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidForecastInput,
		Message:  fmt.Sprintf("Invalid forecast input: %s", reason),
		Category: "validation",
		Action:   "Select at least one habit, a consistency between 0 and 100 and a horizon between 1 and 52 weeks.",
	}
}

// NewInvalidSafetyInputError はセーフティチェック入力のバリデーションエラーを生成する。
func NewInvalidSafetyInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSafetyInput,
		Message:  fmt.Sprintf("Invalid safety check input: %s", reason),
		Category: "validation",
		Action:   "Pick conditions from the provided list.",
	}
}

// NewSafetyCheckNotFoundError は保存済みセーフティチェックが見つからない場合のエラーを生成する。
func NewSafetyCheckNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeSafetyCheckNotFound,
		Message:  fmt.Sprintf("Safety check not found: %d", id),
		Category: "wellness",
		Action:   "Check the safety check ID.",
	}
}

// NewInvalidHabitError は習慣入力のバリデーションエラーを生成する。
func NewInvalidHabitError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidHabit,
		Message:  fmt.Sprintf("Invalid habit: %s", reason),
		Category: "validation",
		Action:   "Enter a title and, optionally, a reminder time as HH:MM.",
	}
}

// NewHabitNotFoundError は習慣が見つからない場合のエラーを生成する。
func NewHabitNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeHabitNotFound,
		Message:  fmt.Sprintf("Habit not found: %d", id),
		Category: "wellness",
		Action:   "Check the habit ID.",
	}
}

// NewLibraryItemNotFoundError はライブラリ項目が見つからない場合のエラーを生成する。
func NewLibraryItemNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeLibraryItemNotFound,
		Message:  fmt.Sprintf("Library item not found: %s", slug),
		Category: "wellness",
		Action:   "Go back to the library and pick an item from the list.",
	}
}

// NewInvalidPostError はコミュニティ投稿のバリデーションエラーを生成する。
func NewInvalidPostError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPost,
		Message:  fmt.Sprintf("Invalid post: %s", reason),
		Category: "validation",
		Action:   "Fill in the required fields and try again.",
	}
}

// NewQuestionNotFoundError は質問が見つからない場合のエラーを生成する。
func NewQuestionNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeQuestionNotFound,
		Message:  fmt.Sprintf("Question not found: %d", id),
		Category: "community",
		Action:   "Refresh the question list.",
	}
}

// NewAnswerNotFoundError は回答が見つからない場合のエラーを生成する。
func NewAnswerNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeAnswerNotFound,
		Message:  fmt.Sprintf("Answer not found: %d", id),
		Category: "community",
		Action:   "Refresh the answers for this question.",
	}
}

// NewInvalidSignUpError はサインアップ入力のバリデーションエラーを生成する。
func NewInvalidSignUpError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSignUp,
		Message:  fmt.Sprintf("Invalid sign-up: %s", reason),
		Category: "auth",
		Action:   "Enter a valid email and a password of at least 8 characters.",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "An account with this email already exists.",
		Category: "auth",
		Action:   "Sign in instead, or use a different email.",
	}
}

// NewInvalidCredentialsError は認証情報が誤っている場合のエラーを生成する。
// メールアドレスの存在有無は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: "auth",
		Action:   "Check your email and password and try again.",
	}
}

// NewInvalidProfileError はプロフィール入力のバリデーションエラーを生成する。
func NewInvalidProfileError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProfile,
		Message:  fmt.Sprintf("Invalid profile: %s", reason),
		Category: "validation",
		Action:   "Pick an age band and diet pattern from the provided options.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Sign in again.",
	}
}
