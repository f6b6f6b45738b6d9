package audio

import (
	"bytes"
	"testing"
)

func TestIsBluetooth(t *testing.T) {
	cases := map[string]bool{
		"AirPods Pro":             true,
		"Sony WH-1000XM4":         true,
		"Built-in Microphone":     false,
		"USB Audio Device":        false,
		"Jabra Elite (Bluetooth)": true,
		"Scarlett 2i2 USB":        false,
	}
	for name, want := range cases {
		if got := IsBluetooth(name); got != want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFakeContextSupports(t *testing.T) {
	fc := NewFakeContext("audio/flac")
	if !fc.Supports("audio/flac") {
		t.Error("declared type not supported")
	}
	if fc.Supports("audio/mp4") {
		t.Error("undeclared type reported supported")
	}
	if fc.Permission() != PermissionUnknown {
		t.Errorf("permission = %s, want unknown by default", fc.Permission())
	}
}

func TestFakeCaptureLifecycleCounting(t *testing.T) {
	fc := NewFakeContext("audio/flac")
	dev, err := fc.NewCapture(nil, CaptureConfig{SampleRate: 48000, Channels: 1})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	c := dev.(*FakeCapture)

	var got []byte
	c.SetCallback(func(data []byte, _ uint32) {
		got = append(got, data...)
	})

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.Live() {
		t.Error("not live after Start")
	}

	c.Feed([]byte{1, 2, 3, 4}, 2)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("callback received %v", got)
	}

	c.ClearCallback()
	c.Feed([]byte{5, 6}, 1)
	if len(got) != 4 {
		t.Error("data delivered after ClearCallback")
	}

	c.Stop()
	if c.Live() {
		t.Error("live after Stop")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.Closes() != 1 {
		t.Errorf("closes = %d, want 1", c.Closes())
	}

	if fc.LastCapture() != c {
		t.Error("LastCapture does not track acquisition")
	}
}

func TestFakeCaptureFaultInjection(t *testing.T) {
	fc := NewFakeContext()
	dev, _ := fc.NewCapture(nil, CaptureConfig{})
	c := dev.(*FakeCapture)

	var fired error
	c.SetErrorCallback(func(err error) { fired = err })
	c.Fail(ErrNoDevice)
	if fired != ErrNoDevice {
		t.Errorf("error callback got %v", fired)
	}
}
