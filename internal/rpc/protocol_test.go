package rpc

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	raw, _ := json.Marshal(map[string]string{"foo": "bar"})
	want := Message{ID: json.RawMessage(`1`), Method: "test", Params: raw}
	if err := w.WriteMessage(want); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewReader(&buf)
	got, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Method != "test" || string(got.ID) != "1" {
		t.Fatalf("got = %+v", got)
	}
}

func TestReaderRejectsMissingContentLength(t *testing.T) {
	r := NewReader(bytes.NewBufferString("\r\n{}"))
	if _, err := r.ReadMessage(); err == nil {
		t.Fatal("expected error for missing Content-Length")
	}
}
