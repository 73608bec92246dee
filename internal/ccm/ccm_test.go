package ccm

import (
	aes_ "crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/hosal/internal/modes"
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(strings.Replace(s, " ", "", -1))
	if err != nil {
		panic(err)
	}
	return b
}

func seq(from, to byte) []byte {
	b := make([]byte, 0, int(to-from)+1)
	for c := from; c <= to; c++ {
		b = append(b, c)
	}
	return b
}

func rfc3610Block(t *testing.T) cipher.Block {
	b, err := aes_.NewCipher(seq(0xc0, 0xcf))
	require.NoError(t, err)
	return b
}

// RFC 3610 packet vectors #1 to #4 and #7.
var rfc3610Vectors = []struct {
	name   string
	nonce  string
	hdr    []byte
	data   []byte
	tagLen int
	sealed string
}{
	{"#1", "00000003020100a0a1a2a3a4a5", seq(0, 7), seq(0x08, 0x1e), 8,
		"0001020304050607 588c979a61c663d2f066d0c2c0f989806d5f6b61dac38417 e8d12cfdf926e0"},
	{"#2", "00000004030201a0a1a2a3a4a5", seq(0, 7), seq(0x08, 0x1f), 8,
		"0001020304050607 72c91a36e135f8cf291ca894085c87e3cc15c439c9e43a3b a091d56e10400916"},
	{"#3", "00000005040302a0a1a2a3a4a5", seq(0, 7), seq(0x08, 0x20), 8,
		"0001020304050607 51b1e5f44a197d1da46b0f8e2d282ae871e838bb64da859657 4adaa76fbd9fb0c5"},
	{"#4", "00000006050403a0a1a2a3a4a5", seq(0, 11), seq(0x0c, 0x1e), 8,
		"000102030405060708090a0b a28c6865939a9a79faaa5c4c2a9d4a91cdac8c 96c861b9c9e61ef1"},
	{"#7", "00000009080706a0a1a2a3a4a5", seq(0, 7), seq(0x08, 0x1e), 10,
		"0001020304050607 0135d1b2c95f41d5d1d4fec185d166b8094e999dfed96c 048c56602c97acbb7490"},
}

func TestSealOpenRFC3610(t *testing.T) {
	b := rfc3610Block(t)

	for _, v := range rfc3610Vectors {
		nonce := mustDecodeHex(v.nonce)
		want := mustDecodeHex(v.sealed)

		sealed := make([]byte, 64)
		n, err := Seal(b, sealed, nonce, v.hdr, v.data, v.tagLen)
		require.NoError(t, err, v.name)
		assert.Equal(t, len(want), n, v.name)
		assert.Equal(t, want, sealed[:n], v.name)

		plain := make([]byte, 64)
		n, err = Open(b, plain, nonce, sealed[:n], len(v.hdr), v.tagLen)
		require.NoError(t, err, v.name)
		assert.Equal(t, v.data, plain[:n], v.name)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	b := rfc3610Block(t)
	v := rfc3610Vectors[4]
	nonce := mustDecodeHex(v.nonce)

	for _, pos := range []int{0, 8, 20, 40} {
		sealed := mustDecodeHex(v.sealed)
		sealed[pos] ^= 0x01

		plain := make([]byte, 64)
		n, err := Open(b, plain, nonce, sealed, len(v.hdr), v.tagLen)
		assert.True(t, errors.Is(err, ErrAuthentication), "byte %d: %v", pos, err)
		assert.Equal(t, 0, n)
		assert.Equal(t, make([]byte, 64), plain, "byte %d: plaintext released", pos)
	}

	// A shorter tag under the same key and nonce does not verify either.
	sealed := mustDecodeHex(v.sealed)
	_, err := Open(b, make([]byte, 64), nonce, sealed[:len(sealed)-2], len(v.hdr), 8)
	assert.True(t, errors.Is(err, ErrAuthentication))
}

func TestSealWithoutHeader(t *testing.T) {
	b := rfc3610Block(t)
	nonce := seq(1, 12)
	data := []byte("no associated data")

	sealed := make([]byte, len(data)+16)
	n, err := Seal(b, sealed, nonce, nil, data, 16)
	require.NoError(t, err)
	require.Equal(t, len(sealed), n)

	plain := make([]byte, len(data))
	n, err = Open(b, plain, nonce, sealed, 0, 16)
	require.NoError(t, err)
	assert.Equal(t, data, plain[:n])

	// An empty message still carries a tag.
	n, err = Seal(b, sealed, nonce, []byte("header only"), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	n, err = Open(b, nil, nonce, sealed[:n], 11, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestParameterChecks(t *testing.T) {
	b := rfc3610Block(t)
	out := make([]byte, 64)
	data := make([]byte, 16)

	_, err := Seal(b, out, make([]byte, 6), nil, data, 8)
	assert.True(t, errors.Is(err, ErrInvalidNonce))
	_, err = Seal(b, out, make([]byte, 14), nil, data, 8)
	assert.True(t, errors.Is(err, ErrInvalidNonce))

	for _, tagLen := range []int{0, 2, 5, 18} {
		_, err = Seal(b, out, make([]byte, 13), nil, data, tagLen)
		assert.True(t, errors.Is(err, modes.ErrInvalidLength), "tag %d", tagLen)
	}

	_, err = Seal(b, out[:20], make([]byte, 13), nil, data, 8)
	assert.True(t, errors.Is(err, modes.ErrInvalidLength))

	_, err = Seal(b, out, make([]byte, 13), nil, out[10:26], 8)
	assert.True(t, errors.Is(err, modes.ErrBufferAliasing))

	_, err = Open(b, out, make([]byte, 13), make([]byte, 10), 4, 8)
	assert.True(t, errors.Is(err, modes.ErrInvalidLength))

	_, err = Open(b, out[:30], make([]byte, 13), out[20:52], 0, 8)
	assert.True(t, errors.Is(err, modes.ErrBufferAliasing))

	assert.Equal(t, make([]byte, 64), out)
}

func TestLengthFieldLimit(t *testing.T) {
	// A 13-byte nonce leaves a 2-byte length field.
	_, err := SealSize(make([]byte, 1<<16+8), make([]byte, 13), nil, make([]byte, 1<<16), 8)
	assert.True(t, errors.Is(err, modes.ErrInvalidLength))

	n, err := SealSize(make([]byte, 1<<16+8), make([]byte, 12), nil, make([]byte, 1<<16), 8)
	require.NoError(t, err)
	assert.Equal(t, 1<<16+8, n)
}
