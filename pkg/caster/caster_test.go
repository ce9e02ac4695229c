package caster

import "testing"

type frame struct {
	Topic string `json:"topic"`
	Speed int    `json:"speed"`
}

func TestJSONChannelCaster(t *testing.T) {
	var c ChannelCaster[frame] = JSONChannelCaster[frame]{}

	text, err := c.To(frame{Topic: "crash", Speed: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"topic":"crash","speed":3}` {
		t.Fatalf("unexpected frame %s", text)
	}

	if _, err := c.From("{broken"); err == nil {
		t.Fatalf("expected a decoding error")
	}
}
