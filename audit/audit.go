// Package audit records administrative mutations.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one recorded admin operation.
type Entry struct {
	Timestamp  time.Time         `json:"timestamp" bson:"timestamp"`
	Action     string            `json:"action" bson:"action"`
	ActorID    int64             `json:"actor_id" bson:"actor_id"`
	Resource   string            `json:"resource" bson:"resource"`
	ResourceID int64             `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	RequestID  string            `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Details    map[string]string `json:"details,omitempty" bson:"details,omitempty"`
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// LogRecorder writes entries through zerolog. Used when no Mongo URI is set.
type LogRecorder struct {
	logger zerolog.Logger
}

func NewLogRecorder(logger zerolog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With().Str("component", "audit").Logger()}
}

func (r *LogRecorder) Record(_ context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	ev := r.logger.Info().
		Time("at", e.Timestamp).
		Str("action", e.Action).
		Int64("actor_id", e.ActorID).
		Str("resource", e.Resource).
		Int64("resource_id", e.ResourceID).
		Str("ip_address", e.IPAddress).
		Str("request_id", e.RequestID)
	if len(e.Details) > 0 {
		d := zerolog.Dict()
		for k, v := range e.Details {
			d = d.Str(k, v)
		}
		ev = ev.Dict("details", d)
	}
	ev.Msg("audit")
	return nil
}
