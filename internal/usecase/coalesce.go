package usecase

import (
	"context"
	"strings"
	"time"
)

// Coalesce merges fragments from in into chunks bounded by a wall-clock
// window, reducing outbound message count without unbounded latency. A
// window of zero or less returns in unchanged (identity). The window check
// fires on fragment arrival, not on an independent timer; buffered content
// is always flushed when in closes, so nothing is held past stream end.
func Coalesce(ctx context.Context, in <-chan string, window time.Duration) <-chan string {
	if window <= 0 {
		return in
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)

		var buf strings.Builder
		last := time.Now()

		flush := func() bool {
			if buf.Len() == 0 {
				return true
			}
			chunk := buf.String()
			buf.Reset()
			select {
			case <-ctx.Done():
				return false
			case out <- chunk:
				return true
			}
		}

		for frag := range in {
			buf.WriteString(frag)
			now := time.Now()
			if now.Sub(last) >= window {
				if !flush() {
					return
				}
				last = now
			}
		}

		flush()
	}()
	return out
}
