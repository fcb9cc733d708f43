package audio

import (
	"context"
	"time"

	"github.com/jscyril/tiny_audio_player/api"
	"github.com/jscyril/tiny_audio_player/internal/task"
)

// runMonitor polls the active session on every tick and advances to the next
// entry when it has played out.
func (e *AudioEngine) runMonitor(ctx context.Context, s *task.Scope) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.log.Debug().Dur("interval", e.interval).Msg("advance monitor started")
	defer e.log.Debug().Msg("advance monitor stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return
		case <-ticker.C:
			if s.ShouldStop() {
				return
			}
			e.checkAdvance()
		}
	}
}

// checkAdvance moves on to the next entry, wrapping to the first, once the
// session is within epsilon of its end. It does nothing without a current
// entry and an active session. Reports whether an advance was dispatched.
func (e *AudioEngine) checkAdvance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.session == nil {
		return false
	}
	next, ok := e.tracklist.Next()
	if !ok {
		return false
	}
	if e.session.Position()+e.epsilon < e.session.Duration() {
		return false
	}

	if err := e.handle(api.AudioCommand{Type: api.CmdAdvance, Payload: next}); err != nil {
		// playTrack already logged and published the failure.
		e.log.Warn().Err(err).Int("next", next).Msg("advance failed")
	}
	return true
}
