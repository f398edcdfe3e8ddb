package mq

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Index describes one change to a stored document.
type Index struct {
	EntityType string `json:"entity_type"`
	Method     string `json:"method"`
	EntityId   string `json:"entity_id"`
	ItemId     string `json:"item_id,omitempty"`
	ItemType   string `json:"item_type,omitempty"`
}

// Emitter publishes change events. Emit never blocks the caller on delivery
// failures; implementations log and move on.
type Emitter interface {
	Emit(ctx context.Context, eventName string, content Index)
}

// LogEmitter writes events to the structured log.
type LogEmitter struct {
	logger *logrus.Logger
}

func NewLogEmitter(logger *logrus.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(_ context.Context, eventName string, content Index) {
	e.logger.WithFields(logrus.Fields{
		"event":       eventName,
		"entity_type": content.EntityType,
		"method":      content.Method,
		"entity_id":   content.EntityId,
		"item_id":     content.ItemId,
		"item_type":   content.ItemType,
	}).Info("Event emitted")
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	Name    string
	Content Index
}

func (r *Recorder) Emit(_ context.Context, eventName string, content Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Name: eventName, Content: content})
}

func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		names = append(names, e.Name)
	}
	return names
}
