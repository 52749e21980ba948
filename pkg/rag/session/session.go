package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultID is the session every installation starts with.
	DefaultID = "default"

	// HistoryDisplayLimit caps how many messages a transcript fetch returns.
	HistoryDisplayLimit = 50

	// HistoryReplayLimit caps how many past messages are replayed to the
	// model on each turn.
	HistoryReplayLimit = 20

	dateLayout = "02.01.2006"
)

// GenerateID produces the next session id for the given day. The first
// session of a day is the bare date (dd.mm.yyyy), subsequent ones get a
// numeric suffix starting at .0.
func GenerateID(existing []string, now time.Time) string {
	dateStr := now.Format(dateLayout)

	numbers := []int{}
	for _, s := range existing {
		if s == dateStr {
			numbers = append(numbers, -1)
			continue
		}
		if strings.HasPrefix(s, dateStr+".") {
			suffix := s[len(dateStr)+1:]
			if n, err := strconv.Atoi(suffix); err == nil && n >= 0 {
				numbers = append(numbers, n)
			}
		}
	}

	if len(numbers) == 0 {
		return dateStr
	}

	next := 0
	for _, n := range numbers {
		if n+1 > next {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s.%d", dateStr, next)
}
