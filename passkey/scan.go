package passkey

import "bytes"

// IndexFrom returns the index of the first occurrence of sub in data at or
// after start, or -1 when sub does not occur there. An empty sub matches
// immediately at start. A negative start is treated as zero; a start
// beyond the end of data never matches.
func IndexFrom(data, sub []byte, start int) int {
	if start < 0 {
		start = 0
	}
	if start > len(data) {
		return -1
	}
	i := bytes.Index(data[start:], sub)
	if i < 0 {
		return -1
	}
	return start + i
}
