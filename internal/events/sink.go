package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type Sink interface {
	Publish(ctx context.Context, events ...entity.Event) error
}

// LogSink writes every event to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "events")}
}

func (that *LogSink) Publish(ctx context.Context, events ...entity.Event) error {
	for _, event := range events {
		that.logger.InfoContext(ctx, "game event",
			"id", event.ID,
			"type", event.Type,
			"gameID", event.GameID,
			"actor", event.Actor,
			"amount", event.Amount,
			"height", event.Height,
		)
	}

	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (that *Recorder) Publish(_ context.Context, events ...entity.Event) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = append(that.events, events...)

	return nil
}

func (that *Recorder) Events() []entity.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.Event(nil), that.events...)
}

func (that *Recorder) Types() []entity.EventType {
	that.mu.Lock()
	defer that.mu.Unlock()

	types := make([]entity.EventType, 0, len(that.events))
	for _, event := range that.events {
		types = append(types, event.Type)
	}

	return types
}

func (that *Recorder) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.events = nil
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Sink

func (that Fanout) Publish(ctx context.Context, events ...entity.Event) error {
	var errs []error

	for _, sink := range that {
		if err := sink.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
