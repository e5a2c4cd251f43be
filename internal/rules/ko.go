package rules

import "sync"

const DefaultKoHistory = 10

// KoDetector keeps a bounded, most-recent-first history of board fingerprints.
// Only the newest entry takes part in the ko check.
type KoDetector struct {
	mu       sync.Mutex
	capacity int
	history  []string
}

func NewKoDetector(capacity int) *KoDetector {
	if capacity < 1 {
		capacity = DefaultKoHistory
	}

	return &KoDetector{
		capacity: capacity,
		history:  make([]string, 0, capacity),
	}
}

// Push records fp as the newest entry and drops the oldest beyond capacity.
func (that *KoDetector) Push(fp string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.history) < that.capacity {
		that.history = append(that.history, "")
	}
	copy(that.history[1:], that.history[:len(that.history)-1])
	that.history[0] = fp
}

// IsKo reports whether fp repeats the position one ply back.
func (that *KoDetector) IsKo(fp string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.history) > 0 && that.history[0] == fp
}

func (that *KoDetector) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.history)
}
