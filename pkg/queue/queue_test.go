package queue

import (
	"encoding/json"
	"testing"
)

type refreshPayload struct {
	Ticker string `json:"ticker"`
	Days   int    `json:"days"`
}

func TestParsePayloadTyped(t *testing.T) {
	want := refreshPayload{Ticker: "AAPL", Days: 7}

	got, err := ParsePayload[refreshPayload](want)
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if *got != want {
		t.Errorf("value: got %+v, want %+v", *got, want)
	}

	got, err = ParsePayload[refreshPayload](&want)
	if err != nil {
		t.Fatalf("pointer: %v", err)
	}
	if got != &want {
		t.Error("pointer payload should pass through unchanged")
	}
}

func TestParsePayloadMap(t *testing.T) {
	// Redis delivery decodes into a generic map before dispatch.
	got, err := ParsePayload[refreshPayload](map[string]interface{}{
		"ticker": "TSLA",
		"days":   float64(30),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Ticker != "TSLA" || got.Days != 30 {
		t.Errorf("got %+v", *got)
	}
}

func TestParsePayloadSlice(t *testing.T) {
	got, err := ParsePayload[[]refreshPayload]([]interface{}{
		map[string]interface{}{"ticker": "AAPL", "days": float64(1)},
		map[string]interface{}{"ticker": "MSFT", "days": float64(7)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(*got) != 2 || (*got)[1].Ticker != "MSFT" {
		t.Errorf("got %+v", *got)
	}
}

func TestParsePayloadRawMessage(t *testing.T) {
	got, err := ParsePayload[refreshPayload](json.RawMessage(`{"ticker":"NVDA","days":14}`))
	if err != nil {
		t.Fatal(err)
	}
	if got.Ticker != "NVDA" || got.Days != 14 {
		t.Errorf("got %+v", *got)
	}
}

func TestParsePayloadUnsupportedType(t *testing.T) {
	if _, err := ParsePayload[refreshPayload](42); err == nil {
		t.Fatal("expected error for unsupported payload type")
	}
}
