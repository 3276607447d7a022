package crypto

import (
	"encoding/binary"
	"math/bits"
)

// DigestSize is the size of an Engine digest in bytes.
const DigestSize = 32

// BlockSize is the compression block size in bytes.
const BlockSize = 64

// Digest is a fixed 256-bit hash value. Digests have no ordering semantics
// beyond byte-wise equality.
type Digest [DigestSize]byte

// ZeroDigest is the all-zero digest, used as the empty-tree sentinel.
var ZeroDigest Digest

// Initial hash values: first 32 bits of the fractional parts of the square
// roots of the first 8 primes (FIPS 180-4 §5.3.3).
var initVector = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// Round constants: first 32 bits of the fractional parts of the cube roots
// of the first 64 primes.
var roundK = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// Engine computes the 256-bit digest of a byte stream incrementally.
// An Engine is single-use: create with New, feed with Update, then call
// Finalize exactly once. Engines are not safe for concurrent use; each
// goroutine must own its own instance.
type Engine struct {
	state    [8]uint32           // running hash value H0..H7
	buf      [BlockSize]byte     // pending bytes, always < BlockSize between Updates
	bufLen   int
	totalLen uint64              // total bytes consumed
	done     bool
}

// New returns an Engine initialized with the standard IV.
func New() *Engine {
	e := &Engine{}
	e.state = initVector
	return e
}

// Update appends data to the stream being hashed. Every complete 64-byte
// block is compressed immediately; any remainder stays buffered for the
// next call. Update never fails.
func (e *Engine) Update(data []byte) {
	if e.done {
		panic("crypto: Update after Finalize")
	}

	e.totalLen += uint64(len(data))

	// Top up a partially filled buffer first.
	if e.bufLen > 0 {
		n := copy(e.buf[e.bufLen:], data)
		e.bufLen += n
		data = data[n:]
		if e.bufLen < BlockSize {
			return
		}
		compress(&e.state, e.buf[:])
		e.bufLen = 0
	}

	for len(data) >= BlockSize {
		compress(&e.state, data[:BlockSize])
		data = data[BlockSize:]
	}

	if len(data) > 0 {
		e.bufLen = copy(e.buf[:], data)
	}
}

// Finalize applies the standard padding (0x80, zeros to 56 mod 64, then the
// big-endian 64-bit bit length of the whole stream), compresses the final
// block(s), and returns the digest. The engine is consumed: any further use
// panics.
func (e *Engine) Finalize() Digest {
	if e.done {
		panic("crypto: Finalize called twice")
	}
	e.done = true

	bitLen := e.totalLen * 8

	var pad [BlockSize + 8]byte
	pad[0] = 0x80
	padLen := 1
	for (e.bufLen+padLen)%BlockSize != BlockSize-8 {
		padLen++
	}
	binary.BigEndian.PutUint64(pad[padLen:], bitLen)

	// Buffered remainder plus padding is one or two exact blocks.
	msg := make([]byte, 0, 2*BlockSize)
	msg = append(msg, e.buf[:e.bufLen]...)
	msg = append(msg, pad[:padLen+8]...)
	for len(msg) > 0 {
		compress(&e.state, msg[:BlockSize])
		msg = msg[BlockSize:]
	}

	var d Digest
	for i, w := range e.state {
		binary.BigEndian.PutUint32(d[i*4:], w)
	}
	return d
}

// Sum computes the digest of data in one call.
func Sum(data []byte) Digest {
	e := New()
	e.Update(data)
	return e.Finalize()
}

// compress runs the FIPS 180-4 compression function over one 64-byte block,
// mutating state in place. Any block content is valid; there is no error path.
func compress(state *[8]uint32, block []byte) {
	// Message schedule: first 16 words straight from the block, the rest
	// derived from earlier words via the σ0/σ1 mixers.
	var w [64]uint32

	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	for i := 16; i < 64; i++ {
		s0 := bits.RotateLeft32(w[i-15], -7) ^ bits.RotateLeft32(w[i-15], -18) ^ (w[i-15] >> 3)
		s1 := bits.RotateLeft32(w[i-2], -17) ^ bits.RotateLeft32(w[i-2], -19) ^ (w[i-2] >> 10)
		w[i] = w[i-16] + s0 + w[i-7] + s1
	}

	a, b, c, d := state[0], state[1], state[2], state[3]
	e, f, g, h := state[4], state[5], state[6], state[7]

	for i := 0; i < 64; i++ {
		s1 := bits.RotateLeft32(e, -6) ^ bits.RotateLeft32(e, -11) ^ bits.RotateLeft32(e, -25)
		ch := (e & f) ^ (^e & g)
		t1 := h + s1 + ch + roundK[i] + w[i]

		s0 := bits.RotateLeft32(a, -2) ^ bits.RotateLeft32(a, -13) ^ bits.RotateLeft32(a, -22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		t2 := s0 + maj

		h = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}

	state[0] += a
	state[1] += b
	state[2] += c
	state[3] += d
	state[4] += e
	state[5] += f
	state[6] += g
	state[7] += h
}
