package recorder

import (
	"bytes"
	"testing"
	"time"

	"miccap/encoder"
)

func TestExtensionMapping(t *testing.T) {
	cases := map[string]string{
		encoder.MimeMP4:  ".m4a",
		encoder.MimeWebM: ".webm",
		encoder.MimeOgg:  ".ogg",
		encoder.MimeFlac: ".flac",
		encoder.MimeWav:  ".wav",
		"audio/3gpp":     ".webm", // unmapped falls back to the default container
	}
	for mime, want := range cases {
		if got := extensionFor(mime); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestFinalizePreservesChunkOrder(t *testing.T) {
	chunks := [][]byte{[]byte("aaa"), []byte("bb"), []byte("cccc")}
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	res := finalize(chunks, encoder.MimeFlac, 7, at)

	if !bytes.Equal(res.Data, []byte("aaabbcccc")) {
		t.Errorf("payload = %q, want verbatim chunk order", res.Data)
	}
	if res.Duration != 7 {
		t.Errorf("duration = %d, want 7", res.Duration)
	}
	if res.MimeType != encoder.MimeFlac {
		t.Errorf("mime = %q", res.MimeType)
	}
	if want := "recording-20250314-092653.flac"; res.File.Name != want {
		t.Errorf("filename = %q, want %q", res.File.Name, want)
	}
	if res.File.MimeType != encoder.MimeFlac {
		t.Errorf("file mime = %q", res.File.MimeType)
	}
}

func TestFinalizeEmptyChunks(t *testing.T) {
	res := finalize(nil, encoder.MimeWav, 0, time.Now())
	if len(res.Data) != 0 {
		t.Errorf("payload length = %d, want 0", len(res.Data))
	}
}
