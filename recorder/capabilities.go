package recorder

import (
	"miccap/audio"
	"miccap/encoder"
)

// Capabilities is a read-only snapshot of what the capture runtime can do.
// It is produced at session setup and refreshed on demand; the recording
// lifecycle only ever touches the Permission field, and only when an actual
// acquisition attempt settles it.
type Capabilities struct {
	Supported  bool
	MimeTypes  []string // ordered most-transcription-friendly first
	Preferred  string   // first supported, or empty
	Permission audio.PermissionState
}

// Candidate encodings in fixed preference order. Broadly-supported container
// formats come before fallback containers, regardless of the order the
// runtime itself would enumerate them.
var encodingCandidates = []string{
	encoder.MimeMP4,
	encoder.MimeWebM,
	encoder.MimeOgg,
	encoder.MimeFlac,
	encoder.MimeWav,
}

// Probe inspects the runtime and never fails: a nil runtime yields an
// unsupported snapshot with an empty encoding list, and a backend whose
// queries panic is treated as answering "no".
func Probe(runtime audio.Context) Capabilities {
	caps := Capabilities{Permission: audio.PermissionUnknown}
	if runtime == nil {
		return caps
	}
	caps.Supported = true
	for _, mime := range encodingCandidates {
		if supportsQuiet(runtime, mime) {
			caps.MimeTypes = append(caps.MimeTypes, mime)
		}
	}
	if len(caps.MimeTypes) > 0 {
		caps.Preferred = caps.MimeTypes[0]
	}
	caps.Permission = permissionQuiet(runtime)
	return caps
}

func supportsQuiet(runtime audio.Context, mime string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return runtime.Supports(mime)
}

func permissionQuiet(runtime audio.Context) (state audio.PermissionState) {
	defer func() {
		if recover() != nil {
			state = audio.PermissionUnknown
		}
	}()
	return runtime.Permission()
}
