package policy

import (
	"log/slog"
	"time"

	"github.com/dotcommander/warden/internal/models"
	"github.com/dotcommander/warden/internal/state"
)

// maxFactValueLength caps persisted fact values. The knowledge base stores
// observations, not transcripts.
const maxFactValueLength = 500

// FactSink receives fire-and-forget "persist fact" calls. The journal
// implements it; tests substitute their own.
type FactSink interface {
	PersistFact(sessionID, key, value string) error
}

// Recorder persists session facts to the knowledge base. Writes are
// fire-and-forget: a sink failure is logged, never surfaced in the verdict,
// since the knowledge base is an auxiliary collaborator and its outage must
// not degrade dispatch decisions.
type Recorder struct {
	sink FactSink
}

// NewRecorder builds a recorder over sink. A nil sink disables recording.
func NewRecorder(sink FactSink) *Recorder {
	return &Recorder{sink: sink}
}

func (r *Recorder) Name() string { return "recorder" }

// Handle records facts about the event. Always returns an empty partial.
func (r *Recorder) Handle(ev models.Event, _ state.SessionState) (Partial, error) {
	p := Partial{Source: r.Name()}
	if r.sink == nil {
		return p, nil
	}

	switch ev.Kind {
	case models.KindSessionStart:
		r.persist(ev.SessionID, "started_at", time.Now().UTC().Format(time.RFC3339))
	case models.KindPromptSubmit:
		if ev.Prompt != "" {
			r.persist(ev.SessionID, "last_prompt", truncate(ev.Prompt, maxFactValueLength))
		}
	case models.KindPostAction:
		if ev.ActionName != "" {
			r.persist(ev.SessionID, "last_action", ev.ActionName)
		}
	case models.KindStop:
		r.persist(ev.SessionID, "stopped_at", time.Now().UTC().Format(time.RFC3339))
	case models.KindSubagentStop:
		r.persist(ev.SessionID, "last_subagent_stop", time.Now().UTC().Format(time.RFC3339))
	}

	return p, nil
}

func (r *Recorder) persist(sessionID, key, value string) {
	if err := r.sink.PersistFact(sessionID, key, value); err != nil {
		slog.Default().Warn("fact persist failed", "session_id", sessionID, "key", key, "error", err)
	}
}

func truncate(raw string, max int) string {
	runes := []rune(raw)
	if len(runes) <= max {
		return raw
	}
	return string(runes[:max])
}
