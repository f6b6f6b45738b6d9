package recorder

import (
	"bytes"
	"fmt"
	"time"

	"miccap/encoder"
)

// File is a named wrapper around the payload, ready for an upload form.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Result is the immutable artifact of a successful stop. Ownership passes
// entirely to the caller; it has no further tie to the session.
type Result struct {
	Data     []byte
	MimeType string
	Duration int // whole seconds
	File     File
}

var extByMime = map[string]string{
	encoder.MimeMP4:  ".m4a",
	encoder.MimeWebM: ".webm",
	encoder.MimeOgg:  ".ogg",
	encoder.MimeFlac: ".flac",
	encoder.MimeWav:  ".wav",
}

const defaultExt = ".webm"

func extensionFor(mimeType string) string {
	if ext, ok := extByMime[mimeType]; ok {
		return ext
	}
	return defaultExt
}

// finalize concatenates the ordered chunk list into one payload and wraps it
// with a timestamp-derived filename. Chunk order is preserved verbatim.
func finalize(chunks [][]byte, mimeType string, duration int, at time.Time) *Result {
	payload := bytes.Join(chunks, nil)
	name := fmt.Sprintf("recording-%s%s", at.Format("20060102-150405"), extensionFor(mimeType))
	return &Result{
		Data:     payload,
		MimeType: mimeType,
		Duration: duration,
		File: File{
			Name:     name,
			MimeType: mimeType,
			Data:     payload,
		},
	}
}
