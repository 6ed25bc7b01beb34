package query

import (
	"fmt"
	"strconv"
	"time"

	"lifeboard/internal/cache"
)

// DefaultAgeCacheSize bounds an AgeFormatter built with a non-positive capacity.
const DefaultAgeCacheSize = 100

// AgeFormatter renders durations like "3d 4h", "5h 12m", "45m" and "<1m".
// Results are memoized per whole minute in a bounded LRU owned by the formatter.
type AgeFormatter struct {
	cache *cache.LRUCache[string]
}

// NewAgeFormatter returns a formatter remembering up to capacity results.
func NewAgeFormatter(capacity int) *AgeFormatter {
	if capacity <= 0 {
		capacity = DefaultAgeCacheSize
	}
	return &AgeFormatter{cache: cache.NewLRUCache[string](capacity, 0)}
}

// Format renders d. Negative durations render as "<1m".
func (f *AgeFormatter) Format(d time.Duration) string {
	minutes := int64(d / time.Minute)
	if minutes < 1 {
		return "<1m"
	}
	key := strconv.FormatInt(minutes, 10)
	if s, ok := f.cache.Get(key); ok {
		return s
	}
	s := formatMinutes(minutes)
	f.cache.Set(key, s)
	return s
}

// Since renders the age of t at now.
func (f *AgeFormatter) Since(t, now time.Time) string {
	return f.Format(now.Sub(t))
}

// Cached returns the number of memoized results.
func (f *AgeFormatter) Cached() int {
	return f.cache.Size()
}

func formatMinutes(minutes int64) string {
	days := minutes / (24 * 60)
	hours := minutes / 60 % 24
	mins := minutes % 60
	switch {
	case days > 0 && hours > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
