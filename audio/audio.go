package audio

import (
	"errors"
	"strings"
)

// PermissionState mirrors the tri-state permission model of the capture
// runtime. Unknown means no grant or denial has been observed yet; it is
// never guessed.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionUnknown PermissionState = "unknown"
)

// ErrPermissionDenied marks an acquisition failure caused by the user (or
// the OS on their behalf) refusing microphone access. Backends wrap their
// platform error so errors.Is still matches.
var ErrPermissionDenied = errors.New("microphone access denied")

// ErrNoDevice is returned when no capture device is reachable at all.
var ErrNoDevice = errors.New("no capture device available")

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

// ErrorCallback receives device-level faults raised while a capture is
// running (device unplugged, backend died). Each invocation is a discrete
// serialized event, never a concurrent thread of execution.
type ErrorCallback func(err error)

// CaptureConfig fixes the stream quality parameters. The processing toggles
// are requests: backends apply whatever their API exposes and capture
// unprocessed audio otherwise.
type CaptureConfig struct {
	SampleRate       uint32
	Channels         uint32
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

// Context is the capture runtime: device enumeration, stream acquisition,
// encoding type support, and a prompt-free permission query.
type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	// Supports reports whether the runtime can produce the given MIME type.
	// A backend that cannot answer the query reports false.
	Supports(mimeType string) bool
	// Permission reports the current microphone permission without
	// prompting. Backends with no such query report PermissionUnknown.
	Permission() PermissionState
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close() error
	SetCallback(cb DataCallback)
	SetErrorCallback(cb ErrorCallback)
	ClearCallback()
}
