package realtime

// seenSet は直近に配信したイベントキーを保持する上限付き集合。
// 上限を超えると最も古いキーから忘れる。
type seenSet struct {
	keys  map[string]struct{}
	order []string
	next  int
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		keys:  make(map[string]struct{}, capacity),
		order: make([]string, 0, capacity),
	}
}

// add はキーを記録し、新規だった場合にtrueを返す。
func (s *seenSet) add(key string) bool {
	if _, ok := s.keys[key]; ok {
		return false
	}
	if len(s.order) < cap(s.order) {
		s.order = append(s.order, key)
	} else {
		delete(s.keys, s.order[s.next])
		s.order[s.next] = key
		s.next = (s.next + 1) % len(s.order)
	}
	s.keys[key] = struct{}{}
	return true
}
