package rod

import (
	"context"
	"strings"
	"time"
)

const (
	minContentLines  = 15
	loadPollInterval = time.Second
)

var loadingIndicators = []string{"loading application", "progressbar", "loading", "please wait"}

// contentReady reports whether a rendered tree looks like a loaded page:
// no loading indicator and enough lines to be real content.
func contentReady(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range loadingIndicators {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return strings.Count(text, "\n")+1 >= minContentLines
}

// waitForContent polls observe until the content looks ready or timeout
// passes. It returns the last text seen either way; the bool says whether
// the page became ready.
func waitForContent(ctx context.Context, timeout, interval time.Duration, observe func(context.Context) (string, error)) (string, bool, error) {
	if interval <= 0 {
		interval = loadPollInterval
	}
	deadline := time.Now().Add(timeout)

	for {
		text, err := observe(ctx)
		if err != nil {
			return "", false, err
		}
		if contentReady(text) {
			return text, true, nil
		}
		if !time.Now().Before(deadline) {
			return text, false, nil
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return text, false, ctx.Err()
		case <-t.C:
		}
	}
}
