// Package escalation decides when a conversation must be handed to a human
// operator: on an explicit request, or after repeated messages the assistant
// could not understand.
package escalation

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaenox/club-assistant/internal/classifier"
	"github.com/xaenox/club-assistant/internal/storage"
)

// DefaultThreshold is the number of consecutive unresolved messages that
// forces an escalation.
const DefaultThreshold = 2

// DefaultTriggers are phrases that ask for a human operator.
var DefaultTriggers = []string{
	"humano",
	"atendente",
	"pessoa",
	"operador",
	"falar com alguém",
	"não entendi",
	"ajuda humana",
	"atendimento humano",
}

// Machine tracks unresolved messages per conversation through a CounterStore.
// Handling of a single conversation is expected to be serialized by the
// caller; the machine does not lock across Increment and Reset.
type Machine struct {
	store     storage.CounterStore
	triggers  []string
	threshold int
}

// New creates a Machine. A threshold below 1 falls back to DefaultThreshold
// and empty triggers to DefaultTriggers.
func New(store storage.CounterStore, triggers []string, threshold int) *Machine {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	if len(triggers) == 0 {
		triggers = DefaultTriggers
	}

	normalized := make([]string, 0, len(triggers))
	for _, t := range triggers {
		if n := classifier.Normalize(t); n != "" {
			normalized = append(normalized, n)
		}
	}

	return &Machine{
		store:     store,
		triggers:  normalized,
		threshold: threshold,
	}
}

// Threshold returns the configured escalation threshold.
func (m *Machine) Threshold() int {
	return m.threshold
}

// RequestedHuman reports whether raw contains a trigger phrase, ignoring case
// and diacritics.
func (m *Machine) RequestedHuman(raw string) bool {
	text := classifier.Normalize(raw)
	if text == "" {
		return false
	}
	for _, t := range m.triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// RegisterUnresolved records an unresolved message and reports whether the
// threshold was reached. Reaching it resets the counter, so the stored count
// never exceeds the threshold.
func (m *Machine) RegisterUnresolved(ctx context.Context, conversationID string) (bool, error) {
	n, err := m.store.Increment(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("register unresolved message: %w", err)
	}
	if n < m.threshold {
		return false, nil
	}
	if err := m.store.Reset(ctx, conversationID); err != nil {
		return true, fmt.Errorf("reset after escalation: %w", err)
	}
	return true, nil
}

// Reset clears the counter after a resolved message or an escalation.
func (m *Machine) Reset(ctx context.Context, conversationID string) error {
	if err := m.store.Reset(ctx, conversationID); err != nil {
		return fmt.Errorf("reset escalation counter: %w", err)
	}
	return nil
}

// Count returns the current counter for a conversation.
func (m *Machine) Count(ctx context.Context, conversationID string) (int, error) {
	return m.store.Get(ctx, conversationID)
}
