package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hitoshi/youngeru/internal/model"
)

func categories(recs []model.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Category
	}
	return out
}

func countCategory(recs []model.Recommendation, category string) int {
	n := 0
	for _, r := range recs {
		if r.Category == category {
			n++
		}
	}
	return n
}

func TestRecommend_RuleOrderAndSelection(t *testing.T) {
	tests := []struct {
		name string
		in   model.PlannerInputs
		want []string
	}{
		{
			name: "全ゴール選択時は定義順に3件",
			in:   model.PlannerInputs{Goals: []string{"Recovery", "Focus", "Energy"}, SleepQuality: 4},
			want: []string{"Vitamin D3", "Omega-3 (EPA/DHA)", "Magnesium Glycinate"},
		},
		{
			name: "ゴールなし・睡眠良好なら空",
			in:   model.PlannerInputs{SleepQuality: 3},
			want: []string{},
		},
		{
			name: "睡眠品質が低いとリカバリー未選択でもマグネシウム",
			in:   model.PlannerInputs{Goals: []string{"Focus"}, SleepQuality: 2},
			want: []string{"Omega-3 (EPA/DHA)", "Magnesium Glycinate"},
		},
		{
			name: "睡眠品質3は閾値未満ではない",
			in:   model.PlannerInputs{Goals: []string{"Energy"}, SleepQuality: 3},
			want: []string{"Vitamin D3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := categories(Recommend(tt.in))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("categories mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Energyを含むゴールでは Vitamin D3 が必ずちょうど1件含まれる。
func TestRecommend_EnergyYieldsExactlyOneVitaminD3(t *testing.T) {
	goalSets := [][]string{
		{"Energy"},
		{"Energy", "Focus"},
		{"Energy", "Recovery"},
		{"Focus", "Energy", "Recovery"},
	}
	for _, goals := range goalSets {
		for sleep := 1; sleep <= 5; sleep++ {
			recs := Recommend(model.PlannerInputs{Goals: goals, SleepQuality: sleep})
			if n := countCategory(recs, "Vitamin D3"); n != 1 {
				t.Errorf("goals=%v sleep=%d: Vitamin D3 count = %d, want 1", goals, sleep, n)
			}
		}
	}
}

// 睡眠品質<3 または Recovery 選択時は Magnesium Glycinate がちょうど1件（両方成立しても重複しない）。
func TestRecommend_MagnesiumExactlyOnce(t *testing.T) {
	for _, withRecovery := range []bool{false, true} {
		for sleep := 1; sleep <= 5; sleep++ {
			var goals []string
			if withRecovery {
				goals = []string{"Recovery"}
			}
			recs := Recommend(model.PlannerInputs{Goals: goals, SleepQuality: sleep})

			want := 0
			if withRecovery || sleep < 3 {
				want = 1
			}
			if n := countCategory(recs, "Magnesium Glycinate"); n != want {
				t.Errorf("recovery=%v sleep=%d: Magnesium count = %d, want %d", withRecovery, sleep, n, want)
			}
		}
	}
}

func TestRecommend_IsDeterministic(t *testing.T) {
	in := model.PlannerInputs{Goals: []string{"Energy", "Focus"}, SleepQuality: 1}
	first := Recommend(in)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Recommend(in)); diff != "" {
			t.Fatalf("Recommend is not deterministic (-first +got):\n%s", diff)
		}
	}
}

func TestRecommend_RecordContents(t *testing.T) {
	recs := Recommend(model.PlannerInputs{Goals: []string{"Energy"}, SleepQuality: 5})
	want := []model.Recommendation{{
		Category:   "Vitamin D3",
		Why:        "Low sun exposure and energy goals suggest potential deficiency",
		Dose:       "2000-4000 IU daily",
		Timing:     "With breakfast (fat-soluble)",
		Evidence:   model.EvidenceA,
		Guardrails: "Monitor levels if taking >4000 IU long-term",
		FoodFirst:  "Fatty fish, egg yolks, fortified foods",
	}}
	if diff := cmp.Diff(want, recs); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}
