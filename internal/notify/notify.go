// Package notify publishes run-completion events so downstream consumers
// (the public site's rebuild job, alerting) learn that fresh numbers are
// on disk without polling the dataset file.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/config"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/orchestrator"
)

// Event is the published wire shape of a completed run.
type Event struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	ElapsedMS int64     `json:"elapsedMs"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Sources   []string  `json:"sources"`
}

// NoOpNotifier discards events. It is the default when notification is not
// configured.
type NoOpNotifier struct{}

// Publish for NoOpNotifier does nothing and always returns nil.
func (NoOpNotifier) Publish(_ context.Context, _ orchestrator.Summary) error {
	return nil
}

// Close for NoOpNotifier does nothing.
func (NoOpNotifier) Close() error { return nil }

// Notifier publishes events and releases its transport on Close.
type Notifier interface {
	orchestrator.Notifier
	Close() error
}

// FromConfig builds the notifier selected by the notify configuration.
func FromConfig(ctx context.Context, cfg config.NotifyConfig, logger *zap.Logger) (Notifier, error) {
	switch cfg.Provider {
	case "noop", "":
		return NoOpNotifier{}, nil
	case "pubsub":
		return NewPubSubNotifier(ctx, cfg.ProjectID, cfg.TopicName, logger)
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Provider)
	}
}

// eventPayload flattens a summary into the published JSON.
func eventPayload(s orchestrator.Summary) ([]byte, error) {
	ev := Event{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		ElapsedMS: s.Elapsed.Milliseconds(),
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
	}
	for name := range s.Records {
		ev.Sources = append(ev.Sources, name)
	}
	sort.Strings(ev.Sources)
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding run event: %w", err)
	}
	return data, nil
}
