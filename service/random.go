package service

import (
	"crypto/rand"
	"encoding/binary"
)

type cryptoSource struct{}

// NewCryptoSource returns a RandomSource backed by the operating system CSPRNG
func NewCryptoSource() RandomSource {
	return cryptoSource{}
}

// Float64 returns a uniform value in [0, 1) with 53 bits of precision
func (cryptoSource) Float64() float64 {
	var b [8]byte
	// crypto/rand.Read never fails on supported platforms
	_, _ = rand.Read(b[:])
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}
