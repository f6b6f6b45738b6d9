package encoder

import "fmt"

// Fixed capture quality. Consistent input matters more for downstream
// speech-to-text accuracy than per-caller flexibility.
const (
	SampleRate    = 48000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// MIME identifiers for the encodings the negotiation layer knows about.
// Only a subset is producible by this package; the rest exist so capability
// probing can name them.
const (
	MimeMP4  = "audio/mp4"
	MimeWebM = "audio/webm"
	MimeOgg  = "audio/ogg"
	MimeFlac = "audio/flac"
	MimeWav  = "audio/wav"
)

// Encoder turns 16-bit PCM blocks into a single growing container stream.
// Bytes always returns the full stream produced so far; callers that want
// incremental output track their own offset into it.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// CanEncode reports whether New can produce the given MIME type.
func CanEncode(mimeType string) bool {
	switch mimeType {
	case MimeFlac, MimeWav:
		return true
	}
	return false
}

// New returns an encoder producing the given MIME type.
func New(mimeType string) (Encoder, error) {
	switch mimeType {
	case MimeFlac:
		return NewFlac()
	case MimeWav:
		return NewWav(), nil
	}
	return nil, fmt.Errorf("no encoder for %q", mimeType)
}
