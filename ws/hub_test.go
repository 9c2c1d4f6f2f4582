package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(userID uint) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 4)}
}

func TestSendToUserDeliversToAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := newTestClient(7)
	second := newTestClient(7)
	hub.Register <- first
	hub.Register <- second
	// Let the hub loop process both registrations.
	time.Sleep(10 * time.Millisecond)

	if !hub.SendToUser(7, EventReceivePrivate, map[string]string{"content": "hello"}) {
		t.Fatal("expected delivery to a connected user")
	}

	for _, client := range []*Client{first, second} {
		select {
		case raw := <-client.Send:
			var frame Frame
			if err := json.Unmarshal(raw, &frame); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if frame.Event != EventReceivePrivate {
				t.Errorf("event = %q, want %q", frame.Event, EventReceivePrivate)
			}
		case <-time.After(time.Second):
			t.Fatal("client did not receive the frame")
		}
	}
}

func TestSendToUserEncodesDataAsObject(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(11)
	hub.Register <- client
	time.Sleep(10 * time.Millisecond)

	type chatMessage struct {
		ID       uint   `json:"id"`
		SenderID uint   `json:"senderId"`
		Content  string `json:"content"`
	}
	sent := chatMessage{ID: 1, SenderID: 4, Content: "hello"}
	if !hub.SendToUser(11, EventReceivePrivate, sent) {
		t.Fatal("expected delivery")
	}

	var frame Frame
	if err := json.Unmarshal(<-client.Send, &frame); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if len(frame.Data) == 0 || frame.Data[0] != '{' {
		t.Fatalf("frame data = %s, want a JSON object", frame.Data)
	}
	var got chatMessage
	if err := json.Unmarshal(frame.Data, &got); err != nil {
		t.Fatalf("frame data does not decode as a message: %v", err)
	}
	if got != sent {
		t.Errorf("frame data = %+v, want %+v", got, sent)
	}
}

func TestSendToUserWithoutConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	if hub.SendToUser(99, EventReceivePrivate, map[string]string{"content": "hello"}) {
		t.Fatal("expected no delivery for an offline user")
	}
}

func TestUnregisterRemovesConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newTestClient(3)
	hub.Register <- client
	time.Sleep(10 * time.Millisecond)
	hub.Unregister <- client
	time.Sleep(10 * time.Millisecond)

	if hub.SendToUser(3, EventReceivePrivate, map[string]string{"content": "gone"}) {
		t.Fatal("expected no delivery after unregister")
	}
}

func TestSendToUserWhileDisconnecting(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	for i := 0; i < 200; i++ {
		client := &Client{UserID: 5, Send: make(chan []byte, 1)}
		hub.Register <- client

		done := make(chan struct{})
		go func() {
			for j := 0; j < 10; j++ {
				hub.SendToUser(5, EventReceivePrivate, map[string]string{"content": "ping"})
			}
			close(done)
		}()
		hub.Unregister <- client
		<-done
	}
}
