package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"miccap/audio"
	"miccap/encoder"
)

// State is the session lifecycle state. Transitions are controlled entirely
// by the session; no external actor sets state directly.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

const defaultChunkInterval = time.Second

// Config wires a session to its runtime and its caller. All callbacks are
// optional and are invoked as discrete serialized events, never concurrently
// with each other, and never while the session lock is held.
type Config struct {
	Runtime audio.Context
	Device  *audio.DeviceInfo // nil means system default

	OnChunk       func(data []byte) // streaming partial data, upload-as-you-go
	OnError       func(err error)
	OnStateChange func(s State)
	OnResult      func(res *Result) // fires on every finalize, including fault salvage
	OnLevel       func(rms float64)

	// ChunkInterval is the cadence at which accumulated encoder output is
	// cut into chunks. Defaults to one second.
	ChunkInterval time.Duration

	// NewEncoder builds the encoder for the negotiated MIME type. Defaults
	// to encoder.New. Injected so tests own their collaborators.
	NewEncoder func(mimeType string) (encoder.Encoder, error)

	Logger zerolog.Logger
}

// Session owns the full lifecycle of one microphone recording at a time:
// capability probing, permission/stream acquisition, the
// idle/recording/paused/stopped state machine, and finalization into an
// upload-ready artifact. Only one recording may be active per session;
// starting a second while one is live is rejected.
type Session struct {
	cfg Config
	now func() time.Time

	mu     sync.Mutex
	state  State
	caps   Capabilities
	closed bool

	// Permission as settled by an actual acquisition attempt. Probing never
	// overwrites a settled value with unknown.
	permSettled audio.PermissionState

	// Pending-acquisition bookkeeping: cancel must win even when issued
	// while Start is still waiting on the runtime.
	acquiring            bool
	cancelWhileAcquiring bool

	// Active acquisition resources. All nil/zero whenever state is idle or
	// stopped; no stream or timer outlives a transition out of
	// recording/paused other than into each other.
	id       string
	mimeType string
	stream   audio.CaptureDevice
	enc      encoder.Encoder
	guard    *cleanupGuard
	stopTick chan struct{}

	// Chunk accumulation, guarded separately so the device data path never
	// contends with control operations. pending holds cut chunks not yet
	// delivered; one drainer at a time hands them to OnChunk in cut order,
	// with no lock held across the callback.
	bufMu    sync.Mutex
	chunks   [][]byte
	flushed  int
	pending  [][]byte
	emitting bool

	// Duration model: accumulated baseline plus elapsed-since-last-resume,
	// so totals stay continuous across pause/resume without drift.
	durBase   time.Duration
	resumedAt time.Time
}

// NewSession probes the runtime once and returns an idle session.
func NewSession(cfg Config) *Session {
	if cfg.ChunkInterval <= 0 {
		cfg.ChunkInterval = defaultChunkInterval
	}
	if cfg.NewEncoder == nil {
		cfg.NewEncoder = encoder.New
	}
	s := &Session{
		cfg:   cfg,
		now:   time.Now,
		state: StateIdle,
	}
	s.caps = Probe(cfg.Runtime)
	return s
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Duration returns elapsed whole seconds: advancing while recording, frozen
// while paused, preserved after stop, zeroed by cancel and reset.
func (s *Session) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durationLocked()
}

func (s *Session) durationLocked() int {
	d := s.durBase
	if s.state == StateRecording {
		d += s.now().Sub(s.resumedAt)
	}
	return int(d / time.Second)
}

// Capabilities re-probes the runtime and returns a fresh snapshot. A
// permission decision already settled by a real acquisition attempt is never
// downgraded back to unknown.
func (s *Session) Capabilities() Capabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	caps := Probe(s.cfg.Runtime)
	if caps.Permission == audio.PermissionUnknown && s.permSettled != "" {
		caps.Permission = s.permSettled
	}
	s.caps = caps
	return caps
}

func captureConfig() audio.CaptureConfig {
	return audio.CaptureConfig{
		SampleRate:       encoder.SampleRate,
		Channels:         encoder.Channels,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// RequestPermission elicits the permission decision by opening a probe
// stream and releasing it immediately; the probe must never be mistaken for
// an active recording stream. While a recording is live the session answers
// from its own stream instead of opening a second one. Returns (false, nil)
// on explicit denial and (false, err) on any other acquisition failure,
// which leaves the permission flag untouched.
func (s *Session) RequestPermission() (bool, error) {
	if s.cfg.Runtime == nil {
		return false, ErrNotSupported
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	// A live recording already owns a granted stream; never open a probe
	// stream beside it.
	if s.state == StateRecording || s.state == StatePaused {
		s.mu.Unlock()
		return true, nil
	}
	if s.acquiring {
		s.mu.Unlock()
		return false, ErrInvalidState
	}
	s.mu.Unlock()
	dev, err := s.cfg.Runtime.NewCapture(s.cfg.Device, captureConfig())
	if err != nil {
		if errors.Is(err, audio.ErrPermissionDenied) {
			s.settlePermission(audio.PermissionDenied)
			return false, nil
		}
		return false, err
	}
	dev.Close()
	s.settlePermission(audio.PermissionGranted)
	return true, nil
}

func (s *Session) settlePermission(state audio.PermissionState) {
	s.mu.Lock()
	s.permSettled = state
	s.caps.Permission = state
	s.mu.Unlock()
}

// Start acquires a stream and begins recording. Only accepted while idle or
// stopped. Fails without attempting acquisition when the runtime is
// unsupported or offers no usable encoding.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == StateRecording || s.state == StatePaused || s.acquiring {
		s.mu.Unlock()
		return ErrInvalidState
	}
	if !s.caps.Supported {
		s.mu.Unlock()
		s.notifyError(ErrNotSupported)
		return ErrNotSupported
	}
	mimeType := s.caps.Preferred
	if mimeType == "" {
		s.mu.Unlock()
		s.notifyError(ErrNoEncoding)
		return ErrNoEncoding
	}
	s.acquiring = true
	s.cancelWhileAcquiring = false
	s.mu.Unlock()

	// Acquisition can pend for a human-timescale interval (permission
	// prompt), so it runs outside the lock under the acquiring flag.
	dev, err := s.cfg.Runtime.NewCapture(s.cfg.Device, captureConfig())

	s.mu.Lock()
	s.acquiring = false
	if err != nil {
		denied := errors.Is(err, audio.ErrPermissionDenied)
		if denied {
			s.permSettled = audio.PermissionDenied
			s.caps.Permission = audio.PermissionDenied
		}
		s.mu.Unlock()
		if denied {
			s.notifyError(audio.ErrPermissionDenied)
		} else {
			s.notifyError(fmt.Errorf("could not acquire input device: %w", err))
		}
		return err
	}
	if s.cancelWhileAcquiring || s.closed {
		s.cancelWhileAcquiring = false
		s.mu.Unlock()
		dev.Close()
		return ErrCanceled
	}
	s.permSettled = audio.PermissionGranted
	s.caps.Permission = audio.PermissionGranted

	enc, err := s.cfg.NewEncoder(mimeType)
	if err != nil {
		s.mu.Unlock()
		dev.Close()
		err = fmt.Errorf("encoder for %s: %w", mimeType, err)
		s.notifyError(err)
		return err
	}

	s.id = uuid.NewString()
	s.mimeType = mimeType
	s.stream = dev
	s.enc = enc
	s.guard = &cleanupGuard{stream: dev, enc: enc, stopTimer: s.clearTimerLocked}

	s.bufMu.Lock()
	s.chunks = nil
	s.flushed = 0
	s.pending = nil
	s.bufMu.Unlock()

	dev.SetCallback(s.onData)
	dev.SetErrorCallback(s.onDeviceError)
	if err := dev.Start(); err != nil {
		s.guard.release()
		s.clearResourcesLocked()
		s.mu.Unlock()
		err = fmt.Errorf("could not start capture: %w", err)
		s.notifyError(err)
		return err
	}

	s.durBase = 0
	s.resumedAt = s.now()
	s.startTimerLocked()

	s.cfg.Logger.Info().
		Str("session", s.id).
		Str("mime", mimeType).
		Msg("recording started")

	notify := s.transitionLocked(StateRecording)
	s.mu.Unlock()
	notify()
	return nil
}

// Pause suspends chunk accumulation and freezes the duration. Only accepted
// while recording; the stream stays owned across the pause.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.durBase += s.now().Sub(s.resumedAt)
	s.resumedAt = time.Time{}
	s.stream.ClearCallback()
	s.clearTimerLocked()
	s.cutChunk()
	s.cfg.Logger.Info().Str("session", s.id).Msg("recording paused")
	notify := s.transitionLocked(StatePaused)
	s.mu.Unlock()
	notify()
	s.drainChunks()
	return nil
}

// Resume continues a paused recording with the accumulated duration as the
// new baseline, so total elapsed time is continuous across the pause.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.resumedAt = s.now()
	s.stream.SetCallback(s.onData)
	s.startTimerLocked()
	s.cfg.Logger.Info().Str("session", s.id).Msg("recording resumed")
	notify := s.transitionLocked(StateRecording)
	s.mu.Unlock()
	notify()
	return nil
}

// Stop finalizes the recording: releases the stream and timer, flushes the
// encoder, concatenates the chunk list, and returns the artifact. Stop with
// nothing active returns (nil, nil) and releases nothing.
func (s *Session) Stop() (*Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.state != StateRecording && s.state != StatePaused {
		s.mu.Unlock()
		return nil, nil
	}
	res, notify := s.stopLocked()
	s.mu.Unlock()
	notify()
	s.drainChunks()
	if s.cfg.OnResult != nil && res != nil {
		s.cfg.OnResult(res)
	}
	return res, nil
}

// stopLocked runs the shared stop path: cleanup first, then finalize.
// Returns the artifact and the deferred state-change notification.
func (s *Session) stopLocked() (*Result, func()) {
	if s.state == StateRecording {
		s.durBase += s.now().Sub(s.resumedAt)
		s.resumedAt = time.Time{}
	}
	if err := s.guard.release(); err != nil {
		s.cfg.Logger.Warn().Str("session", s.id).Err(err).Msg("release error on stop")
	}
	s.cutChunk() // encoder is closed now; pick up its finalization bytes

	s.bufMu.Lock()
	chunks := s.chunks
	s.chunks = nil
	s.flushed = 0
	s.bufMu.Unlock()

	res := finalize(chunks, s.mimeType, int(s.durBase/time.Second), s.now())

	s.cfg.Logger.Info().
		Str("session", s.id).
		Str("mime", res.MimeType).
		Int("duration_s", res.Duration).
		Int("bytes", len(res.Data)).
		Str("file", res.File.Name).
		Msg("recording finalized")

	s.clearResourcesLocked()
	return res, s.transitionLocked(StateStopped)
}

// Cancel discards the session from any state: chunks dropped, stream
// released, timer cleared, duration zeroed, state forced back to idle. No
// artifact is produced. Safe to call at any time, including while a start
// acquisition is still pending — the resolving start releases the stream it
// just opened.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.acquiring {
		s.cancelWhileAcquiring = true
	}
	if s.guard != nil {
		if err := s.guard.release(); err != nil {
			s.cfg.Logger.Warn().Str("session", s.id).Err(err).Msg("release error on cancel")
		}
		s.cfg.Logger.Info().Str("session", s.id).Msg("recording canceled")
	}
	s.bufMu.Lock()
	s.chunks = nil
	s.flushed = 0
	s.pending = nil
	s.bufMu.Unlock()
	s.clearResourcesLocked()
	s.durBase = 0
	s.resumedAt = time.Time{}
	var notify func()
	if s.state != StateIdle {
		notify = s.transitionLocked(StateIdle)
	}
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Reset returns the session to a fresh idle state, discarding any held
// resources and the preserved post-stop duration.
func (s *Session) Reset() {
	s.Cancel()
}

// Close tears the session down for good. Idempotent; guarantees the
// single-release invariant even on abrupt teardown of the owning context.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.acquiring {
		s.cancelWhileAcquiring = true
	}
	if s.guard != nil {
		s.guard.release()
	}
	s.bufMu.Lock()
	s.chunks = nil
	s.flushed = 0
	s.pending = nil
	s.bufMu.Unlock()
	s.clearResourcesLocked()
	s.durBase = 0
	var notify func()
	if s.state != StateIdle {
		notify = s.transitionLocked(StateIdle)
	}
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// onData is the device data path: convert, encode, report level. It runs on
// the device thread and takes only bufMu, so it never contends with control
// operations holding the session lock.
func (s *Session) onData(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}
	block := pcmToInt16(data)

	s.bufMu.Lock()
	enc := s.enc
	s.bufMu.Unlock()
	if enc == nil {
		return
	}
	if err := enc.EncodeBlock(block); err != nil {
		// A broken encoder cannot recover mid-stream; salvage what was
		// already encoded instead of dropping data while appearing to record.
		s.faultStop(fmt.Errorf("encoding failed: %w", err))
		return
	}

	if s.cfg.OnLevel != nil {
		var sumSquares float64
		for _, sample := range block {
			normalized := float64(sample) / 32768.0
			sumSquares += normalized * normalized
		}
		s.cfg.OnLevel(math.Sqrt(sumSquares / float64(len(block))))
	}
}

func (s *Session) onDeviceError(err error) {
	s.faultStop(fmt.Errorf("device fault during recording: %w", err))
}

// faultStop handles a mid-recording fault (device gone, encoder broken):
// run the stop path to salvage whatever was captured, then notify. A fault
// must never leave the session stuck mid-state.
func (s *Session) faultStop(err error) {
	s.mu.Lock()
	if s.state != StateRecording && s.state != StatePaused {
		s.mu.Unlock()
		return
	}
	s.cfg.Logger.Error().Str("session", s.id).Err(err).Msg("fault, salvaging recording")
	res, notify := s.stopLocked()
	s.mu.Unlock()
	notify()
	s.drainChunks()
	if s.cfg.OnResult != nil && res != nil {
		s.cfg.OnResult(res)
	}
	s.notifyError(err)
}

func (s *Session) startTimerLocked() {
	stop := make(chan struct{})
	s.stopTick = stop
	go func() {
		ticker := time.NewTicker(s.cfg.ChunkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.flushChunk()
			}
		}
	}()
}

// clearTimerLocked stops the chunk ticker. Callers hold s.mu.
func (s *Session) clearTimerLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) clearResourcesLocked() {
	s.clearTimerLocked()
	s.stream = nil
	s.guard = nil
	s.bufMu.Lock()
	s.enc = nil
	s.bufMu.Unlock()
}

// flushChunk cuts the encoder output growth into the next ordered chunk.
func (s *Session) flushChunk() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	s.cutChunk()
	s.mu.Unlock()
	s.drainChunks()
}

// cutChunk copies the not-yet-emitted tail of the encoder stream into the
// chunk list and queues it for delivery. No-op when nothing new accumulated.
func (s *Session) cutChunk() {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	if s.enc == nil {
		return
	}
	buf := s.enc.Bytes()
	if len(buf) <= s.flushed {
		return
	}
	chunk := append([]byte(nil), buf[s.flushed:]...)
	s.flushed = len(buf)
	s.chunks = append(s.chunks, chunk)
	s.pending = append(s.pending, chunk)
}

// drainChunks delivers pending chunks to OnChunk in cut order. One drainer
// runs at a time and no lock is held across the callback, so OnChunk may
// call back into the session (stopping once enough data has streamed, for
// example) without deadlocking.
func (s *Session) drainChunks() {
	if s.cfg.OnChunk == nil {
		return
	}
	s.bufMu.Lock()
	if s.emitting {
		s.bufMu.Unlock()
		return
	}
	s.emitting = true
	for len(s.pending) > 0 {
		chunk := s.pending[0]
		s.pending = s.pending[1:]
		s.bufMu.Unlock()
		s.cfg.OnChunk(chunk)
		s.bufMu.Lock()
	}
	s.emitting = false
	s.bufMu.Unlock()
}

// transitionLocked records the new state and returns the deferred
// notification, to be invoked after the lock is dropped.
func (s *Session) transitionLocked(to State) func() {
	s.state = to
	cb := s.cfg.OnStateChange
	if cb == nil {
		return func() {}
	}
	return func() { cb(to) }
}

func (s *Session) notifyError(err error) {
	s.cfg.Logger.Error().Err(err).Msg("session error")
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	}
}

func pcmToInt16(data []byte) []int16 {
	block := make([]int16, len(data)/2)
	for i := range block {
		block[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return block
}
