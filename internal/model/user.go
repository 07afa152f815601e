// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Profile はユーザーの属性情報を表す。
// 未入力の項目は空文字列で保持する。
type Profile struct {
	UserID      string
	FirstName   string
	AgeBand     string
	DietPattern string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AgeBands はプロフィールで選択可能な年齢帯。
var AgeBands = []string{"18-29", "30-39", "40-49", "50-59", "60+"}

// DietPatterns はプロフィールおよびプランナーで選択可能な食事パターン。
var DietPatterns = []string{"omnivore", "vegetarian", "vegan"}
