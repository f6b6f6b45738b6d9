package recorder

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"miccap/audio"
	"miccap/encoder"
)

// cleanupGuard owns the releasable resources of exactly one acquisition:
// the hardware stream, the chunk timer, and the encoder bound to the stream.
// release runs at most once no matter which exit path invokes it (stop,
// cancel, device fault, or owning-context teardown) and is safe to call
// again as a no-op. A leaked open microphone after the caller has moved on
// is the failure mode this exists to prevent.
type cleanupGuard struct {
	once      sync.Once
	stream    audio.CaptureDevice
	enc       encoder.Encoder
	stopTimer func()
}

// release tears down in dependency order: timer first (no more flushes),
// then the stream (no more data), then the encoder (stream finalization).
// The encoder stays readable after Close so a stop path can still cut the
// final chunk.
func (g *cleanupGuard) release() error {
	var err error
	g.once.Do(func() {
		if g.stopTimer != nil {
			g.stopTimer()
		}
		var merr *multierror.Error
		if g.stream != nil {
			g.stream.ClearCallback()
			g.stream.Stop()
			if cerr := g.stream.Close(); cerr != nil {
				merr = multierror.Append(merr, cerr)
			}
		}
		if g.enc != nil {
			if cerr := g.enc.Close(); cerr != nil {
				merr = multierror.Append(merr, cerr)
			}
		}
		err = merr.ErrorOrNil()
	})
	return err
}
