package openai

import (
	"context"
	"strings"

	"github.com/poiesic/talentmatch/ai"
)

// timeoutFunc derives a bounded context for a single provider call.
type timeoutFunc func(context.Context) (context.Context, context.CancelFunc)

// timeoutFor builds a timeoutFunc from the configured per-call timeout.
func timeoutFor(config *ai.Config) timeoutFunc {
	timeout := config.CallTimeout
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, timeout)
	}
}

// scrubControl replaces newlines and pipes in user text so it cannot break
// the line-oriented prompt format.
func scrubControl(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ", "|", "/").Replace(s)
	return strings.TrimSpace(s)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
