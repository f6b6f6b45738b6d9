// Package doctor runs capture-path diagnostics: runtime probing, device
// enumeration, encoder health, and a short live capture smoke test.
package doctor

import (
	"fmt"
	"time"

	"miccap/audio"
	"miccap/encoder"
	"miccap/recorder"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run() int {
	fmt.Println("miccap doctor - capture diagnostics")
	fmt.Println("===================================")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("\n[1/4] Audio runtime\n  FAIL: cannot initialize audio context: %v\n", err)
		return 1
	}
	defer ctx.Close()

	allPass := true
	if !checkCapabilities(ctx) {
		allPass = false
	}
	if !checkDevices(ctx) {
		allPass = false
	}
	if !checkEncoders() {
		allPass = false
	}
	if allPass && !checkCapture(ctx) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkCapabilities(ctx audio.Context) bool {
	fmt.Println()
	fmt.Println("[1/4] Capabilities")
	caps := recorder.Probe(ctx)
	if !caps.Supported {
		fmt.Println("  FAIL: capture not supported")
		return false
	}
	if caps.Preferred == "" {
		fmt.Println("  FAIL: no usable encoding")
		return false
	}
	fmt.Printf("  PASS: encodings %v, preferred %s, permission %s\n",
		caps.MimeTypes, caps.Preferred, caps.Permission)
	return true
}

func checkDevices(ctx audio.Context) bool {
	fmt.Println()
	fmt.Println("[2/4] Capture devices")
	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	for _, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = " (bluetooth: lower audio quality)"
		}
		fmt.Printf("  - %s%s\n", d.Name, tag)
	}
	fmt.Printf("  PASS: %d device(s)\n", len(devices))
	return true
}

func checkEncoders() bool {
	fmt.Println()
	fmt.Println("[3/4] Encoders")
	block := make([]int16, encoder.BlockSize)
	for i := range block {
		block[i] = int16(i % 256)
	}
	for _, mime := range []string{encoder.MimeFlac, encoder.MimeWav} {
		enc, err := encoder.New(mime)
		if err != nil {
			fmt.Printf("  FAIL: %s: %v\n", mime, err)
			return false
		}
		if err := enc.EncodeBlock(block); err != nil {
			fmt.Printf("  FAIL: %s encode: %v\n", mime, err)
			return false
		}
		if err := enc.Close(); err != nil {
			fmt.Printf("  FAIL: %s close: %v\n", mime, err)
			return false
		}
		if len(enc.Bytes()) == 0 {
			fmt.Printf("  FAIL: %s produced no output\n", mime)
			return false
		}
		fmt.Printf("  PASS: %s (%d bytes for one block)\n", mime, len(enc.Bytes()))
	}
	return true
}

func checkCapture(ctx audio.Context) bool {
	fmt.Println()
	fmt.Println("[4/4] Live capture (2 seconds)")

	sess := recorder.NewSession(recorder.Config{Runtime: ctx})
	defer sess.Close()

	if err := sess.Start(); err != nil {
		fmt.Printf("  FAIL: start: %v\n", err)
		return false
	}
	time.Sleep(2 * time.Second)
	res, err := sess.Stop()
	if err != nil {
		fmt.Printf("  FAIL: stop: %v\n", err)
		return false
	}
	if res == nil || len(res.Data) == 0 {
		fmt.Println("  FAIL: no audio captured (muted or wrong device?)")
		return false
	}
	fmt.Printf("  PASS: %d bytes, %ds, %s\n", len(res.Data), res.Duration, res.File.Name)
	return true
}
