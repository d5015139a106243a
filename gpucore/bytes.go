package gpucore

import (
	"encoding/binary"
	"math"
)

// AppendFloat32s appends src to dst as little-endian float32 bytes, the
// byte order every supported device expects for vertex and uniform data.
func AppendFloat32s(dst []byte, src []float32) []byte {
	for _, f := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// Float32s decodes little-endian float32 bytes. Trailing bytes that do not
// form a whole float are ignored.
func Float32s(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
