package recorder

import (
	"testing"

	"miccap/audio"
	"miccap/encoder"
)

func TestProbeNilRuntime(t *testing.T) {
	caps := Probe(nil)
	if caps.Supported {
		t.Error("nil runtime reported supported")
	}
	if len(caps.MimeTypes) != 0 || caps.Preferred != "" {
		t.Errorf("nil runtime reported encodings: %v", caps.MimeTypes)
	}
	if caps.Permission != audio.PermissionUnknown {
		t.Errorf("permission = %s, want unknown", caps.Permission)
	}
}

func TestProbeOrdersByPreferenceNotEnumeration(t *testing.T) {
	// Declared webm-first; probing must still put mp4 first.
	fc := audio.NewFakeContext(encoder.MimeWebM, encoder.MimeMP4)
	caps := Probe(fc)

	if !caps.Supported {
		t.Fatal("runtime not reported supported")
	}
	want := []string{encoder.MimeMP4, encoder.MimeWebM}
	if len(caps.MimeTypes) != len(want) {
		t.Fatalf("encodings = %v, want %v", caps.MimeTypes, want)
	}
	for i := range want {
		if caps.MimeTypes[i] != want[i] {
			t.Fatalf("encodings = %v, want %v", caps.MimeTypes, want)
		}
	}
	if caps.Preferred != encoder.MimeMP4 {
		t.Errorf("preferred = %q, want %q", caps.Preferred, encoder.MimeMP4)
	}
}

func TestProbeSupportedButNoEncodings(t *testing.T) {
	fc := audio.NewFakeContext()
	caps := Probe(fc)
	if !caps.Supported {
		t.Error("runtime present but reported unsupported")
	}
	if caps.Preferred != "" {
		t.Errorf("preferred = %q, want empty", caps.Preferred)
	}
}

func TestProbeReportsPermissionWithoutPrompting(t *testing.T) {
	fc := audio.NewFakeContext(encoder.MimeWebM)
	fc.Perm = audio.PermissionGranted
	if got := Probe(fc).Permission; got != audio.PermissionGranted {
		t.Errorf("permission = %s, want granted", got)
	}
	if got := len(fc.Captures()); got != 0 {
		t.Errorf("probe acquired %d streams, want 0", got)
	}
}

// panicContext models a backend whose queries blow up mid-probe.
type panicContext struct{ *audio.FakeContext }

func (p *panicContext) Supports(string) bool              { panic("backend gone") }
func (p *panicContext) Permission() audio.PermissionState { panic("backend gone") }

func TestProbeSurvivesPanickingBackend(t *testing.T) {
	pc := &panicContext{audio.NewFakeContext(encoder.MimeWebM)}
	caps := Probe(pc)
	if len(caps.MimeTypes) != 0 {
		t.Errorf("encodings = %v, want none from a panicking query", caps.MimeTypes)
	}
	if caps.Permission != audio.PermissionUnknown {
		t.Errorf("permission = %s, want unknown", caps.Permission)
	}
}

func TestReprobeKeepsSettledPermission(t *testing.T) {
	fc := audio.NewFakeContext(encoder.MimeWebM)
	s, _, _ := newTestSession(t, fc)

	if _, err := s.RequestPermission(); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	// The runtime itself still answers unknown; the settled grant must win.
	if got := s.Capabilities().Permission; got != audio.PermissionGranted {
		t.Errorf("re-probed permission = %s, want granted", got)
	}
}
