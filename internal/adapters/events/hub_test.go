package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub(zap.NewNop())
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Publish(&core.Activity{Title: "one"})
	for name, ch := range map[string]<-chan *core.Activity{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got.Title != "one" {
				t.Errorf("%s received %q", name, got.Title)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s received nothing", name)
		}
	}

	cancelA()
	cancelA()
	if n := h.SubscriberCount(); n != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", n)
	}
	if _, ok := <-a; ok {
		t.Error("cancelled channel should be closed")
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(zap.NewNop())
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(&core.Activity{Title: "x"})
	}
	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered %d events, want %d", got, subscriberBuffer)
	}
}

func TestServeWS(t *testing.T) {
	h := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	h.Publish(&core.Activity{Title: "Malicious Website Blocked", Type: core.ActivityDetected})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got core.Activity
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Title != "Malicious Website Blocked" || got.Type != core.ActivityDetected {
		t.Errorf("received %+v", got)
	}
}
