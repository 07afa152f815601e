package repository

import (
	"testing"
)

// 各PostgresリポジトリがインターフェースとNew関数を満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = NewPostgresUserRepo(nil)
	var _ SessionRepository = NewPostgresSessionRepo(nil)
	var _ ProfileRepository = NewPostgresProfileRepo(nil)
	var _ PlannerSessionRepository = NewPostgresPlannerSessionRepo(nil)
	var _ ForecastRepository = NewPostgresForecastRepo(nil)
	var _ SafetyCheckRepository = NewPostgresSafetyCheckRepo(nil)
	var _ HabitRepository = NewPostgresHabitRepo(nil)
	var _ LibraryRepository = NewPostgresLibraryRepo(nil)
	var _ QuestionRepository = NewPostgresQuestionRepo(nil)
	var _ AnswerRepository = NewPostgresAnswerRepo(nil)
	var _ ReactionRepository = NewPostgresReactionRepo(nil)
}

func TestLikePattern_EscapesMetaCharacters(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sleep", "%sleep%"},
		{"100%", `%100\%%`},
		{"vitamin_d", `%vitamin\_d%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNullableUserID(t *testing.T) {
	if got := nullableUserID(""); got != nil {
		t.Errorf("nullableUserID(\"\") = %v, want nil", got)
	}
	if got := nullableUserID("u-1"); got != "u-1" {
		t.Errorf("nullableUserID(\"u-1\") = %v, want %q", got, "u-1")
	}
}

func TestNonNil(t *testing.T) {
	if got := nonNil(nil); got == nil || len(got) != 0 {
		t.Errorf("nonNil(nil) = %#v, want empty non-nil slice", got)
	}
	in := []string{"a"}
	if got := nonNil(in); len(got) != 1 || got[0] != "a" {
		t.Errorf("nonNil(%v) = %v", in, got)
	}
}

func TestToNullString(t *testing.T) {
	if ns := toNullString(nil); ns.Valid {
		t.Error("toNullString(nil).Valid = true, want false")
	}
	s := "07:30"
	if ns := toNullString(&s); !ns.Valid || ns.String != "07:30" {
		t.Errorf("toNullString(&%q) = %+v", s, ns)
	}
}
