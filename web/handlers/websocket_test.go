package handlers

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWebSocketHub_BroadcastReachesClients(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 10)}
	hub.Register(client)

	hub.NotifyProgress("a-1", "analyzing", "scoring against 42 items")

	select {
	case data := <-client.SendChan:
		var msg ProgressMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal progress message: %v", err)
		}
		if msg.Type != "progress" || msg.AnalysisID != "a-1" || msg.Stage != "analyzing" {
			t.Errorf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestWebSocketHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	client := &MockClient{SendChan: make(chan []byte, 1)}
	hub.Register(client)
	hub.Unregister(client)

	select {
	case _, ok := <-client.SendChan:
		if ok {
			t.Error("expected the send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestWebSocketHub_FullBroadcastChannelDropsMessage(t *testing.T) {
	hub := NewWebSocketHub()
	// Run is deliberately not started so the broadcast buffer fills up.
	defer hub.Stop()

	for i := 0; i < 300; i++ {
		hub.NotifyProgress("a-1", "analyzing", "update")
	}
	// Reaching here without blocking is the assertion.
}
