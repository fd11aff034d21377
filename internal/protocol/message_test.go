package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewMessage(t *testing.T) {
	raw, err := NewMessage(TypeSessionCreated, SessionCreatedPayload{Code: "AB12C"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(raw), `{"type":"session_created","payload":{"code":"AB12C"}}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	raw, err = NewMessage(TypePong, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(raw), `{"type":"pong"}`; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestDecode(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"type":"set_score","payload":{"home_score":2,"away_score":1}}`), &msg); err != nil {
		t.Fatal(err)
	}
	var score SetScorePayload
	if err := Decode(msg, &score); err != nil {
		t.Fatal(err)
	}
	if score.HomeScore != 2 || score.AwayScore != 1 {
		t.Errorf("decoded %+v", score)
	}

	var create CreateSessionPayload
	if err := Decode(Message{Type: TypeCreateSession}, &create); err != nil {
		t.Errorf("empty payload: %v", err)
	}

	if err := Decode(Message{Type: TypeSetScore, Payload: []byte(`[1,2]`)}, &score); err == nil {
		t.Error("expected an error for a mistyped payload")
	}
}

func TestPlayerRowFlattensPlayer(t *testing.T) {
	raw, err := json.Marshal(PlayerRow{Available: true, Fatigue: 80})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"player_id", "disability_score", "value_score", "available", "fatigue"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing %q in %s", key, raw)
		}
	}
}
