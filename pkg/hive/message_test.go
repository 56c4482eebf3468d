package hive

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPortNumberAcceptsStringAndNumber(t *testing.T) {
	var numeric struct {
		Port PortNumber `json:"port"`
	}
	if err := json.Unmarshal([]byte(`{"port": 54321}`), &numeric); err != nil {
		t.Fatalf("unexpected error decoding numeric port: %v", err)
	}
	if numeric.Port != 54321 {
		t.Fatalf("expected 54321, got %d", numeric.Port)
	}

	var stringed struct {
		Port PortNumber `json:"port"`
	}
	if err := json.Unmarshal([]byte(`{"port": "54321"}`), &stringed); err != nil {
		t.Fatalf("unexpected error decoding string port: %v", err)
	}
	if stringed.Port != 54321 {
		t.Fatalf("expected 54321, got %d", stringed.Port)
	}
}

func TestPortNumberMarshalsAsNumber(t *testing.T) {
	out, err := json.Marshal(PortNumber(54321))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "54321" {
		t.Fatalf("expected numeric encoding, got %s", out)
	}
}

func TestGossipEnvelopeEncodesPortsAsStrings(t *testing.T) {
	sender := NewNodeRecord("Local", "127.0.0.1", 54321, true)
	recipient := NewNodeRecord("Peer", "127.0.0.1", 54322, false)
	live := []NodeRecord{*sender, *NewNodeRecord("Third", "127.0.0.1", 54323, false)}

	envelope := NewGossipEnvelope(sender, recipient, live)
	frame, err := EncodeFrame(envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(string(frame), `"port_number":"54323"`) {
		t.Fatalf("expected gossip port to be encoded as a string, got %s", frame)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	sender := NewNodeRecord("Local", "127.0.0.1", 54321, true)
	recipient := NewNodeRecord("Peer", "127.0.0.1", 54322, false)
	envelope := NewConnectEnvelope(sender, recipient, "Hello")

	frame, err := EncodeFrame(envelope)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Command != CommandConnect || decoded.Message != "Hello" {
		t.Fatalf("unexpected round-tripped envelope: %+v", decoded)
	}
	if decoded.Source() != sender.Identity() {
		t.Fatalf("expected source identity to round-trip")
	}
}
