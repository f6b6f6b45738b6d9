//go:build !linux

package audio

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"miccap/encoder"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) Supports(mimeType string) bool {
	return encoder.CanEncode(mimeType)
}

// Permission: miniaudio exposes no prompt-free permission query on any of
// its backends, so the state stays unknown until an acquisition settles it.
func (m *malgoContext) Permission() PermissionState {
	return PermissionUnknown
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate

	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	c := &malgoCapture{}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			cb := c.callback.Load()
			if cb != nil {
				(*cb)(data, frameCount)
			}
		},
		Stop: func() {
			// The backend stops the device itself when the hardware goes
			// away; an unrequested stop is a device fault.
			if c.stopping.Load() {
				return
			}
			ecb := c.errcb.Load()
			if ecb != nil {
				(*ecb)(errors.New("capture device stopped unexpectedly"))
			}
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	c.device = dev
	return c, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	device   *malgo.Device
	callback atomic.Pointer[DataCallback]
	errcb    atomic.Pointer[ErrorCallback]
	stopping atomic.Bool
}

func (c *malgoCapture) Start() error {
	c.stopping.Store(false)
	return c.device.Start()
}

func (c *malgoCapture) Stop() {
	c.stopping.Store(true)
	c.device.Stop()
}

func (c *malgoCapture) Close() error {
	c.stopping.Store(true)
	c.device.Uninit()
	return nil
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *malgoCapture) SetErrorCallback(cb ErrorCallback) {
	c.errcb.Store(&cb)
}

func (c *malgoCapture) ClearCallback() {
	c.callback.Store(nil)
}
