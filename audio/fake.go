package audio

import "sync"

// FakeContext is a scriptable capture runtime for tests: it reports whatever
// encodings and permission state it is configured with, and every stream it
// hands out counts its own lifecycle calls so tests can assert on resource
// release.
type FakeContext struct {
	SupportedTypes []string
	Perm           PermissionState
	AcquireErr     error // returned by NewCapture when set
	DeviceList     []DeviceInfo

	mu       sync.Mutex
	captures []*FakeCapture
}

func NewFakeContext(supported ...string) *FakeContext {
	return &FakeContext{
		SupportedTypes: supported,
		Perm:           PermissionUnknown,
	}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return f.DeviceList, nil
}

func (f *FakeContext) Supports(mimeType string) bool {
	for _, t := range f.SupportedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

func (f *FakeContext) Permission() PermissionState {
	return f.Perm
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}
	c := &FakeCapture{Config: config}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) Close() {}

// Captures returns every stream handed out so far, in acquisition order.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

// LastCapture returns the most recently acquired stream, or nil.
func (f *FakeContext) LastCapture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captures) == 0 {
		return nil
	}
	return f.captures[len(f.captures)-1]
}

// FakeCapture is a hand-driven capture stream: tests push PCM through Feed
// and inject device faults through Fail.
type FakeCapture struct {
	Config CaptureConfig

	mu     sync.Mutex
	cb     DataCallback
	errcb  ErrorCallback
	starts int
	stops  int
	closes int
	live   bool
}

func (c *FakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	c.live = true
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	c.live = false
}

func (c *FakeCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.live = false
	return nil
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) SetErrorCallback(cb ErrorCallback) {
	c.mu.Lock()
	c.errcb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

// Feed pushes one PCM buffer through the registered data callback, exactly
// as a device thread would. Dropped silently when no callback is set.
func (c *FakeCapture) Feed(data []byte, frameCount uint32) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb != nil {
		cb(data, frameCount)
	}
}

// Fail injects a device-level fault through the error callback.
func (c *FakeCapture) Fail(err error) {
	c.mu.Lock()
	ecb := c.errcb
	c.mu.Unlock()
	if ecb != nil {
		ecb(err)
	}
}

// Live reports whether the stream is currently open and started.
func (c *FakeCapture) Live() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Closes reports how many times Close was called on this stream.
func (c *FakeCapture) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}
