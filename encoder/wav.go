package encoder

import (
	"bytes"
	"encoding/binary"
	"sync"
)

const WAVHeaderSize = 44

// WavEncoder produces a streaming WAV container: the header is emitted up
// front with the unknown-length sentinel in both size fields, so bytes
// already handed out stay valid no matter when the stream ends. Readers
// treat the sentinel as "data runs to EOF".
type WavEncoder struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	totalFrames uint64
}

func NewWav() *WavEncoder {
	e := &WavEncoder{}
	e.writeHeader()
	return e
}

func (e *WavEncoder) writeHeader() {
	const unknown = 0xFFFFFFFF
	var h [WAVHeaderSize]byte
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], unknown)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(h[20:], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:], Channels)
	binary.LittleEndian.PutUint32(h[24:], SampleRate)
	byteRate := uint32(SampleRate * Channels * BitsPerSample / 8)
	binary.LittleEndian.PutUint32(h[28:], byteRate)
	binary.LittleEndian.PutUint16(h[32:], Channels*BitsPerSample/8)
	binary.LittleEndian.PutUint16(h[34:], BitsPerSample)
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], unknown)
	e.buf.Write(h[:])
}

func (e *WavEncoder) EncodeBlock(block []int16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	data := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	e.buf.Write(data)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WavEncoder) Close() error {
	return nil
}

func (e *WavEncoder) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf.Bytes()
}

func (e *WavEncoder) TotalFrames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalFrames
}
