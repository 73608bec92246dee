package modes

import (
	"crypto/cipher"

	errors "golang.org/x/xerrors"
)

// CBC encrypts or decrypts src into dst in cipher block chaining mode,
// starting from iv. The caller's iv is left untouched.
//
// Encryption XORs each plaintext block with the running chaining value
// before the block transform, and the ciphertext becomes the next chaining
// value. Decryption applies the inverse transform, then XORs with the
// chaining value, which becomes the ciphertext block just consumed.
func CBC(dir Direction, b cipher.Block, dst, src, iv []byte) error {
	if err := checkIV(iv); err != nil {
		return err
	}
	if err := checkBlocks(dst, src); err != nil {
		return err
	}

	var chain [BlockSize]byte
	copy(chain[:], iv)

	for len(src) > 0 {
		in, out := src[:BlockSize], dst[:BlockSize]
		if dir == Encrypt {
			xorBytes(out, in, chain[:])
			b.Encrypt(out, out)
			copy(chain[:], out)
		} else {
			b.Decrypt(out, in)
			xorBytes(out, out, chain[:])
			copy(chain[:], in)
		}
		src = src[BlockSize:]
		dst = dst[BlockSize:]
	}
	return nil
}

// CBCChain CBC-encrypts buf in place starting from iv, and leaves the final
// chaining value (the last ciphertext block) in iv. The plaintext in buf is
// destroyed. This is the scratch primitive behind CBC-MAC.
func CBCChain(b cipher.Block, buf, iv []byte) error {
	if err := checkIV(iv); err != nil {
		return err
	}
	if len(buf)%BlockSize != 0 {
		return errors.Errorf("%d bytes is not a whole number of blocks: %w", len(buf), ErrInvalidLength)
	}
	if anyOverlap(buf, iv) {
		return ErrBufferAliasing
	}

	for ; len(buf) > 0; buf = buf[BlockSize:] {
		block := buf[:BlockSize]
		xorBytes(block, block, iv)
		b.Encrypt(block, block)
		copy(iv, block)
	}
	return nil
}
