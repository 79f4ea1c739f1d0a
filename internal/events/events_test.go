package events

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"go-circuit-lab/internal/models"
)

func startNATS(t *testing.T) (*natsserver.Server, *nats.Conn) {
	t.Helper()
	ns, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatalf("Failed to create nats server: %v", err)
	}
	ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server not ready")
	}
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to nats: %v", err)
	}
	return ns, nc
}

func TestSubject(t *testing.T) {
	if got := Subject("demo"); got != "circuit.demo.semantics" {
		t.Errorf("Expected circuit.demo.semantics, got %s", got)
	}
}

func TestNewSemanticsChanged(t *testing.T) {
	sem := models.SemanticState{PowerFlowActive: true, ComponentFailure: []string{}}
	ev := NewSemanticsChanged("demo", 3, sem)
	if ev.Topology != models.TopologyClosed {
		t.Errorf("Expected closed topology, got %s", ev.Topology)
	}
	if len(ev.Tags) != 1 || ev.Tags[0] != "power_flow_active" {
		t.Errorf("Expected [power_flow_active], got %v", ev.Tags)
	}
	if ev.Revision != 3 || ev.At.IsZero() {
		t.Errorf("Unexpected event header: %+v", ev)
	}
}

func TestNATSPublisherRoundTrip(t *testing.T) {
	ns, nc := startNATS(t)
	defer ns.Shutdown()
	defer nc.Close()

	received := make(chan SemanticsChanged, 1)
	sub, err := Subscribe(nc, AllSubjects, func(_ context.Context, ev SemanticsChanged) {
		received <- ev
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		t.Fatalf("Failed to flush subscription: %v", err)
	}

	pub := NewNATSPublisher(nc)
	defer pub.Close()

	ev := NewSemanticsChanged("demo", 7, models.IdleSemantics())
	if err := pub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case got := <-received:
		if got.CircuitID != "demo" || got.Revision != 7 {
			t.Errorf("Unexpected event: %+v", got)
		}
		if !got.Semantics.OpenCircuit {
			t.Error("Expected open circuit to survive the round trip")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestSubscribeDropsMalformed(t *testing.T) {
	ns, nc := startNATS(t)
	defer ns.Shutdown()
	defer nc.Close()

	received := make(chan SemanticsChanged, 2)
	sub, err := Subscribe(nc, Subject("demo"), func(_ context.Context, ev SemanticsChanged) {
		received <- ev
	})
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := nc.Publish(Subject("demo"), []byte("{not json")); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}
	if err := NewNATSPublisher(nc).Publish(context.Background(), NewSemanticsChanged("demo", 1, models.IdleSemantics())); err != nil {
		t.Fatalf("Failed to publish: %v", err)
	}

	select {
	case got := <-received:
		if got.Revision != 1 {
			t.Errorf("Expected the well-formed event, got %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*headerCarrier)(msg)
	if carrier.Get("traceparent") != "" || carrier.Keys() != nil {
		t.Error("Empty carrier should have no keys")
	}
	carrier.Set("traceparent", "00-abc")
	if carrier.Get("traceparent") != "00-abc" {
		t.Errorf("Expected header to be set, got %q", carrier.Get("traceparent"))
	}
	if len(carrier.Keys()) != 1 {
		t.Errorf("Expected 1 key, got %v", carrier.Keys())
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(context.Background(), SemanticsChanged{}); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
	p.Close()
}
