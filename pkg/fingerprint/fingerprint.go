// Package fingerprint derives short stable digests of captured attacker
// input, so identical probes can be correlated across sessions and sensors
// without comparing full payloads.
package fingerprint

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Size is the number of digest bytes kept (hex-encoded to twice that).
const Size = 16

// Bytes returns the truncated BLAKE2b-256 digest of data, hex encoded.
func Bytes(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:Size])
}

// Command fingerprints a command invocation. Arguments are length-prefix
// framed before hashing so ("set", ["a b"]) and ("set", ["a", "b"]) do not
// collide.
func Command(name string, args []string) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		return ""
	}
	writeFramed(h.Write, name)
	for _, a := range args {
		writeFramed(h.Write, a)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:Size])
}

func writeFramed(write func([]byte) (int, error), s string) {
	var lenBuf [4]byte
	n := len(s)
	lenBuf[0] = byte(n >> 24)
	lenBuf[1] = byte(n >> 16)
	lenBuf[2] = byte(n >> 8)
	lenBuf[3] = byte(n)
	_, _ = write(lenBuf[:])
	_, _ = write([]byte(s))
}
