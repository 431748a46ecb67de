package scannersim

import "encoding/base64"

func encodeTemplate(t []byte, enc Encoding) any {
	switch enc {
	case EncodingBytes:
		return byteList(t)
	case EncodingWrapped:
		return map[string]any{"type": "Buffer", "data": byteList(t)}
	default:
		return base64.StdEncoding.EncodeToString(t)
	}
}

// byteList renders bytes as numbers; encoding/json would emit a []byte as
// a base64 string.
func byteList(t []byte) []int {
	out := make([]int, len(t))
	for i, b := range t {
		out[i] = int(b)
	}
	return out
}
