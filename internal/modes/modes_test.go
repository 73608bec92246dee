package modes

import (
	aes_ "crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(strings.Replace(s, " ", "", -1))
	if err != nil {
		panic(err)
	}
	return b
}

func newBlock(t *testing.T, keyHex string) cipher.Block {
	b, err := aes_.NewCipher(mustDecodeHex(keyHex))
	require.NoError(t, err)
	return b
}

// NIST SP 800-38A, Appendix F.
const (
	sp80038aKey       = "2b7e151628aed2a6abf7158809cf4f3c"
	sp80038aIV        = "000102030405060708090a0b0c0d0e0f"
	sp80038aPlaintext = "6bc1bee22e409f96e93d7e117393172a" +
		"ae2d8a571e03ac9c9eb76fac45af8e51" +
		"30c81c46a35ce411e5fbc1191a0a52ef" +
		"f69f2445df4f9b17ad2b417be66c3710"
)

func TestECBKnownAnswer(t *testing.T) {
	b := newBlock(t, sp80038aKey)
	pt := mustDecodeHex(sp80038aPlaintext)

	ct := make([]byte, len(pt))
	require.NoError(t, ECB(Encrypt, b, ct, pt))
	assert.Equal(t,
		"3ad77bb40d7a3660a89ecaf32466ef97"+
			"f5d3d58503b9699de785895a96fdbaaf"+
			"43b1cd7f598ece23881b00e3ed030688"+
			"7b0c785e27e8ad3f8223207104725dd4",
		hex.EncodeToString(ct))

	out := make([]byte, len(ct))
	require.NoError(t, ECB(Decrypt, b, out, ct))
	assert.Equal(t, pt, out)
}

func TestCBCKnownAnswer(t *testing.T) {
	b := newBlock(t, sp80038aKey)
	pt := mustDecodeHex(sp80038aPlaintext)
	iv := mustDecodeHex(sp80038aIV)

	ct := make([]byte, len(pt))
	require.NoError(t, CBC(Encrypt, b, ct, pt, iv))
	assert.Equal(t,
		"7649abac8119b246cee98e9b12e9197d"+
			"5086cb9b507219ee95db113a917678b2"+
			"73bed6b8e3c1743b7116e69e22229516"+
			"3ff1caa1681fac09120eca307586e1a7",
		hex.EncodeToString(ct))
	assert.Equal(t, sp80038aIV, hex.EncodeToString(iv), "caller IV must not change")

	out := make([]byte, len(ct))
	require.NoError(t, CBC(Decrypt, b, out, ct, iv))
	assert.Equal(t, pt, out)
}

func TestCBCRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3686))
	for _, keyLen := range []int{16, 24, 32} {
		key := make([]byte, keyLen)
		iv := make([]byte, BlockSize)
		r.Read(key)
		r.Read(iv)
		b, err := aes_.NewCipher(key)
		require.NoError(t, err)

		for blocks := 0; blocks < 8; blocks++ {
			pt := make([]byte, blocks*BlockSize)
			r.Read(pt)
			ct := make([]byte, len(pt))
			out := make([]byte, len(pt))
			require.NoError(t, CBC(Encrypt, b, ct, pt, iv))
			require.NoError(t, CBC(Decrypt, b, out, ct, iv))
			assert.Equal(t, pt, out)
		}
	}
}

func TestCBCChainMatchesCBC(t *testing.T) {
	b := newBlock(t, sp80038aKey)
	buf := mustDecodeHex(sp80038aPlaintext)
	iv := mustDecodeHex(sp80038aIV)

	require.NoError(t, CBCChain(b, buf, iv))
	assert.Equal(t, "3ff1caa1681fac09120eca307586e1a7", hex.EncodeToString(iv))
	assert.Equal(t, "7649abac8119b246cee98e9b12e9197d", hex.EncodeToString(buf[:16]))
}

func TestBlockModesRejectBadInput(t *testing.T) {
	b := newBlock(t, sp80038aKey)
	iv := make([]byte, BlockSize)

	dst := make([]byte, 32)
	err := ECB(Encrypt, b, dst, make([]byte, 17))
	assert.True(t, errors.Is(err, ErrInvalidLength))
	assert.Equal(t, make([]byte, 32), dst, "no partial output")

	err = CBC(Encrypt, b, make([]byte, 16), make([]byte, 32), iv)
	assert.True(t, errors.Is(err, ErrInvalidLength))

	err = CBC(Encrypt, b, dst, make([]byte, 32), iv[:8])
	assert.True(t, errors.Is(err, ErrInvalidIV))

	buf := make([]byte, 64)
	assert.True(t, errors.Is(ECB(Encrypt, b, buf[8:40], buf[:32]), ErrBufferAliasing))
	assert.True(t, errors.Is(ECB(Encrypt, b, buf[:32], buf[:32]), ErrBufferAliasing))
	assert.True(t, errors.Is(CBC(Decrypt, b, buf[16:48], buf[:32], iv), ErrBufferAliasing))
	assert.NoError(t, ECB(Encrypt, b, buf[32:], buf[:32]))

	assert.True(t, errors.Is(CBCChain(b, buf[:20], iv), ErrInvalidLength))
	assert.True(t, errors.Is(CBCChain(b, buf[:32], buf[16:32]), ErrBufferAliasing))
}

func TestEmptyInputIsNoOp(t *testing.T) {
	b := newBlock(t, sp80038aKey)
	assert.NoError(t, ECB(Encrypt, b, nil, nil))
	assert.NoError(t, CBC(Decrypt, b, nil, nil, make([]byte, BlockSize)))
}

type ctrVector struct {
	name, key, iv, plaintext, ciphertext string
}

var ctrVectors = []ctrVector{
	// RFC 3686 Test Vector #3
	{
		name:      "AES-128",
		key:       "7691BE035E5020A8AC6E618529F9A0DC",
		iv:        "00E0017B27777F3F4A1786F000000001",
		plaintext: "000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F20212223",
		ciphertext: "C1CF48A89F2FFDD9CF4652E9EFDB72D7" +
			"4540A42BDE6D7836D59A5CEAAEF31053" +
			"25B2072F",
	},
	// RFC 3686 Test Vector #6
	{
		name:      "AES-192",
		key:       "02BF391EE8ECB159B959617B0965279BF59B60A786D3E0FE",
		iv:        "0007BDFD5CBD60278DCC091200000001",
		plaintext: "000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F20212223",
		ciphertext: "96893FC55E5C722F540B7DD1DDF7E758" +
			"D288BC95C69165884536C811662F2188" +
			"ABEE0935",
	},
}

func ctrChunked(t *testing.T, b cipher.Block, iv, src []byte, splits ...int) []byte {
	s, err := NewCTRStream(iv)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	off := 0
	for _, n := range splits {
		require.NoError(t, s.XORKeyStream(b, dst[off:off+n], src[off:off+n]))
		off += n
	}
	require.NoError(t, s.XORKeyStream(b, dst[off:], src[off:]))
	return dst
}

func TestCTRKnownAnswerWithIrregularSplits(t *testing.T) {
	for _, v := range ctrVectors {
		b := newBlock(t, v.key)
		iv := mustDecodeHex(v.iv)
		pt := mustDecodeHex(v.plaintext)
		want := strings.ToLower(v.ciphertext)

		whole := ctrChunked(t, b, iv, pt)
		assert.Equal(t, want, hex.EncodeToString(whole), v.name)

		assert.Equal(t, want, hex.EncodeToString(ctrChunked(t, b, iv, pt, 15, 3, 18)), v.name)
		assert.Equal(t, want, hex.EncodeToString(ctrChunked(t, b, iv, pt, 5, 11, 20)), v.name)

		// Decryption uses a different split of its own.
		assert.Equal(t, pt, ctrChunked(t, b, iv, whole, 10, 7, 19), v.name)
	}
}

// AES-CM keystream, RFC 3711 Appendix B.2.
func TestCTRKeystream(t *testing.T) {
	b := newBlock(t, "2B7E151628AED2A6ABF7158809CF4F3C")
	keystream := ctrChunked(t, b, mustDecodeHex("F0F1F2F3F4F5F6F7F8F9FAFBFCFD0000"), make([]byte, 48), 1, 31)
	assert.Equal(t,
		"e03ead0935c95e80e166b16dd92b4eb4"+
			"d23513162b02d0f72a43a2fe4a5f97ab"+
			"41e95b3bb0a2e8dd477901e4fca894c0",
		hex.EncodeToString(keystream))
}

func TestCTRChunkingInvariance(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		key := make([]byte, 16+8*r.Intn(3))
		iv := make([]byte, BlockSize)
		r.Read(key)
		r.Read(iv)
		b, err := aes_.NewCipher(key)
		require.NoError(t, err)

		pt := make([]byte, r.Intn(200))
		r.Read(pt)
		whole := ctrChunked(t, b, iv, pt)

		var encSplits, decSplits []int
		for left := len(pt); left > 0; {
			n := r.Intn(left + 1)
			encSplits = append(encSplits, n)
			left -= n
		}
		for left := len(pt); left > 0; {
			n := 1 + r.Intn(left)
			decSplits = append(decSplits, n)
			left -= n
		}

		assert.Equal(t, whole, ctrChunked(t, b, iv, pt, encSplits...))
		assert.Equal(t, pt, ctrChunked(t, b, iv, whole, decSplits...))
	}
}

func TestCTRCounterAdvancesOncePerBlock(t *testing.T) {
	b := newBlock(t, sp80038aKey)
	iv := mustDecodeHex("000000000000000000000000000000fe")
	s, err := NewCTRStream(iv)
	require.NoError(t, err)

	buf := make([]byte, 40)
	out := make([]byte, 40)

	require.NoError(t, s.XORKeyStream(b, out[:15], buf[:15]))
	c := s.Counter()
	assert.Equal(t, "000000000000000000000000000000ff", hex.EncodeToString(c[:]))
	assert.Equal(t, 15, s.Offset())

	require.NoError(t, s.XORKeyStream(b, out[15:16], buf[15:16]))
	c = s.Counter()
	assert.Equal(t, "000000000000000000000000000000ff", hex.EncodeToString(c[:]))
	assert.Equal(t, 0, s.Offset())

	require.NoError(t, s.XORKeyStream(b, out[16:17], buf[16:17]))
	c = s.Counter()
	assert.Equal(t, "00000000000000000000000000000100", hex.EncodeToString(c[:]))
	assert.Equal(t, 1, s.Offset())
}

func TestCTRCounterWraps(t *testing.T) {
	ctr := [BlockSize]byte{}
	for i := range ctr {
		ctr[i] = 0xff
	}
	incrementCounter(&ctr)
	assert.Equal(t, [BlockSize]byte{}, ctr)
}

func TestCTRRejectsBadInputWithoutAdvancing(t *testing.T) {
	b := newBlock(t, sp80038aKey)

	_, err := NewCTRStream(make([]byte, 12))
	assert.True(t, errors.Is(err, ErrInvalidIV))

	s, err := NewCTRStream(make([]byte, BlockSize))
	require.NoError(t, err)

	buf := make([]byte, 32)
	assert.True(t, errors.Is(s.XORKeyStream(b, buf[4:], buf[:20]), ErrBufferAliasing))
	assert.True(t, errors.Is(s.XORKeyStream(b, make([]byte, 3), make([]byte, 5)), ErrInvalidLength))
	assert.Equal(t, [BlockSize]byte{}, s.Counter())
	assert.Equal(t, 0, s.Offset())

	s.XORKeyStream(b, make([]byte, 5), make([]byte, 5))
	s.Erase()
	assert.Equal(t, [BlockSize]byte{}, s.Counter())
	assert.Equal(t, 0, s.Offset())
}

func TestXOR(t *testing.T) {
	dst := make([]byte, 4)
	n := XOR(dst, []byte{0xf0, 0x0f, 0xaa}, []byte{0xff, 0xff, 0xaa, 0x01})
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0x0f, 0xf0, 0x00, 0x00}, dst)
}
