package main

import (
	"encoding/binary"
	"math"
)

const bytesPerSample = 4

// deinterleave decodes little-endian float32 frames into per-channel buffers.
// It returns the number of frames decoded.
func deinterleave(dst [][]float64, src []byte) int {
	nCh := len(dst)
	if nCh == 0 {
		return 0
	}

	frames := min(len(src)/(bytesPerSample*nCh), len(dst[0]))

	for i := range frames {
		for ch := range nCh {
			off := (i*nCh + ch) * bytesPerSample
			dst[ch][i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(src[off:])))
		}
	}

	return frames
}

// interleave encodes the first frames samples of src as little-endian float32.
func interleave(dst []byte, src [][]float64, frames int) {
	nCh := len(src)

	for i := range frames {
		for ch := range nCh {
			off := (i*nCh + ch) * bytesPerSample
			if off+bytesPerSample > len(dst) {
				return
			}

			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(float32(src[ch][i])))
		}
	}
}
