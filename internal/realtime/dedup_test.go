package realtime

import "testing"

func TestSeenSet_RejectsDuplicates(t *testing.T) {
	s := newSeenSet(4)
	if !s.add("questions:1") {
		t.Fatal("first add should be fresh")
	}
	if s.add("questions:1") {
		t.Error("duplicate add should not be fresh")
	}
	if !s.add("answers:1") {
		t.Error("same id in another table should be fresh")
	}
}

// 上限を超えると最も古いキーから忘れる。
func TestSeenSet_EvictsOldest(t *testing.T) {
	s := newSeenSet(2)
	s.add("a")
	s.add("b")
	s.add("c") // a を追い出す

	if s.add("b") {
		t.Error("b should still be remembered")
	}
	if !s.add("a") {
		t.Error("a should have been evicted")
	}
	if len(s.keys) != 2 {
		t.Errorf("len(keys) = %d, want 2", len(s.keys))
	}
}
