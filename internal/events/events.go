// Package events carries semantic-state change notifications for circuit
// sessions. Events are published as JSON on NATS with trace context in the
// message headers.
package events

import (
	"context"
	"fmt"
	"time"

	"go-circuit-lab/internal/models"
)

// SubjectPrefix is the root of every circuit event subject
const SubjectPrefix = "circuit"

// SemanticsChanged is emitted after each successful mutation of a circuit
type SemanticsChanged struct {
	CircuitID string               `json:"circuitId"`
	Revision  uint64               `json:"revision"`
	Semantics models.SemanticState `json:"semantics"`
	Tags      []string             `json:"tags"`
	Topology  models.Topology      `json:"topology"`
	At        time.Time            `json:"at"`
}

// NewSemanticsChanged builds an event from a semantic snapshot
func NewSemanticsChanged(circuitID string, revision uint64, sem models.SemanticState) SemanticsChanged {
	return SemanticsChanged{
		CircuitID: circuitID,
		Revision:  revision,
		Semantics: sem,
		Tags:      sem.Tags(),
		Topology:  sem.Topology(),
		At:        time.Now().UTC(),
	}
}

// Subject returns the NATS subject for a circuit's semantic events
func Subject(circuitID string) string {
	return fmt.Sprintf("%s.%s.semantics", SubjectPrefix, circuitID)
}

// AllSubjects matches semantic events for every circuit
const AllSubjects = SubjectPrefix + ".*.semantics"

// Publisher delivers circuit events
type Publisher interface {
	Publish(ctx context.Context, ev SemanticsChanged) error
	Close()
}

// NopPublisher drops every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, SemanticsChanged) error { return nil }

// Close implements Publisher
func (NopPublisher) Close() {}
