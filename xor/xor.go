// Package xor combines byte buffers and null-terminated strings with
// exclusive or.
//
// Every function writes into a caller supplied buffer and returns the part
// it wrote. XOR is its own inverse, so combining a result with one operand
// gives back the other.
package xor

import "fmt"

func outputMustFit(out []byte, size int) {
	if len(out) < size {
		panic(fmt.Sprintf("xor: output holds %d bytes, need %d", len(out), size))
	}
}

// Bytes writes a[i] ^ b[i] for the first size bytes.
func Bytes(a, b []byte, size int, out []byte) []byte {
	outputMustFit(out, size)

	for i := 0; i < size; i++ {
		out[i] = a[i] ^ b[i]
	}

	return out[:size]
}

// BytesText combines a with text cut or zero padded to size bytes. The
// terminator of text counts as part of it when it fits.
func BytesText(a []byte, text string, size int, out []byte) []byte {
	outputMustFit(out, size)

	for i := 0; i < size; i++ {
		var t byte
		if i < len(text) {
			t = text[i]
		}

		out[i] = a[i] ^ t
	}

	return out[:size]
}

// TextsSize returns the number of bytes Texts writes for a and b.
func TextsSize(a, b string) int {
	return max(len(a), len(b)) + 1
}

// Texts combines two strings, both zero extended to TextsSize(a, b) bytes.
func Texts(a, b string, out []byte) []byte {
	size := TextsSize(a, b)
	outputMustFit(out, size)

	for i := 0; i < size; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}

		if i < len(b) {
			y = b[i]
		}

		out[i] = x ^ y
	}

	return out[:size]
}
