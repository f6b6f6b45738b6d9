package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWavEncoderHeader(t *testing.T) {
	enc := NewWav()
	data := enc.Bytes()
	if len(data) != WAVHeaderSize {
		t.Fatalf("header length = %d, want %d", len(data), WAVHeaderSize)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(data[22:]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint16(data[34:]); got != BitsPerSample {
		t.Errorf("bits per sample = %d, want %d", got, BitsPerSample)
	}
	// Streaming header: both size fields carry the unknown-length sentinel.
	if got := binary.LittleEndian.Uint32(data[4:]); got != 0xFFFFFFFF {
		t.Errorf("RIFF size = %#x, want unknown sentinel", got)
	}
	if got := binary.LittleEndian.Uint32(data[40:]); got != 0xFFFFFFFF {
		t.Errorf("data size = %#x, want unknown sentinel", got)
	}
}

func TestWavEncoderPayload(t *testing.T) {
	enc := NewWav()
	block := []int16{0, 100, -100, 32767, -32768}
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != uint64(len(block)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(block))
	}

	data := enc.Bytes()
	payload := data[WAVHeaderSize:]
	if len(payload) != len(block)*2 {
		t.Fatalf("payload length = %d, want %d", len(payload), len(block)*2)
	}

	want := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(want[i*2:], uint16(s))
	}
	if !bytes.Equal(payload, want) {
		t.Error("payload does not round-trip PCM samples")
	}
}
