package httpapi

import (
	"io"
	"log/slog"
	"testing"
)

func TestSlowClientLeavesNoEmptyRoom(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	slow := &Client{hub: h, send: make(chan []byte), treeID: "t1", userID: "u1"}
	shared := &Client{hub: h, send: make(chan []byte), treeID: "t2", userID: "u2"}
	ready := &Client{hub: h, send: make(chan []byte, 1), treeID: "t2", userID: "u3"}
	h.clients["t1"] = map[*Client]bool{slow: true}
	h.clients["t2"] = map[*Client]bool{shared: true, ready: true}

	msg := []byte(`{"type":"node.renamed"}`)
	h.deliverAll(h.clients["t1"], msg)
	h.deliverAll(h.clients["t2"], msg)

	if _, ok := h.clients["t1"]; ok {
		t.Error("room t1 should be removed once its only client is dropped")
	}
	if _, open := <-slow.send; open {
		t.Error("dropped client's send channel should be closed")
	}

	room, ok := h.clients["t2"]
	if !ok {
		t.Fatal("room t2 still has a client and should remain")
	}
	if room[shared] || !room[ready] {
		t.Errorf("room t2 = %v, want only the ready client", room)
	}
	if got := string(<-ready.send); got != string(msg) {
		t.Errorf("ready client got %q, want %q", got, msg)
	}
}
