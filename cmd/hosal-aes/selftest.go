package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/lanikai/hosal"

	"github.com/pkg/errors"
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

type selfTestCase struct {
	name string
	run  func(ctx context.Context, dev *hosal.Device) error
}

var selfTests = []selfTestCase{
	{"AES_256_ecb_test", ecb256SelfTest},
	{"AES_128_cbc_test", cbc128SelfTest},
	{"AES_128_ctr_test", ctr128SelfTest},
	{"AES_192_ctr_test", ctr192SelfTest},
	{"AES_128_cmac_test", cmacSelfTest},
	{"AES_128_ccm_test", ccmSelfTest},
}

// selfTest runs every known-answer test against dev, printing one
// SUCCESS/FAILURE line each, and reports whether all passed.
func selfTest(ctx context.Context, dev *hosal.Device, w io.Writer) bool {
	ok := true
	for _, tc := range selfTests {
		if err := tc.run(ctx, dev); err != nil {
			fmt.Fprintf(w, "%s : %s %v\n", tc.name, color.RedString("FAILURE!"), err)
			ok = false
		} else {
			fmt.Fprintf(w, "%s : %s\n", tc.name, color.GreenString("SUCCESS!"))
		}
	}
	return ok
}

func expect(got, want []byte) error {
	if !bytes.Equal(got, want) {
		return errors.Errorf("got %X, want %X", got, want)
	}
	return nil
}

func ecb256SelfTest(ctx context.Context, dev *hosal.Device) error {
	key := mustDecodeHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	pt := mustDecodeHex("00112233445566778899aabbccddeeff")
	ct := make([]byte, 16)
	back := make([]byte, 16)

	req := &hosal.Request{Operation: hosal.Encrypt, KeyBits: hosal.Key256, Key: key, In: pt, Out: ct, Length: 16}
	if err := dev.Operation(ctx, req); err != nil {
		return err
	}
	if err := expect(ct, mustDecodeHex("8ea2b7ca516745bfeafc49904b496089")); err != nil {
		return err
	}

	req = &hosal.Request{Operation: hosal.Decrypt, KeyBits: hosal.Key256, Key: key, In: ct, Out: back, Length: 16}
	if err := dev.Operation(ctx, req); err != nil {
		return err
	}
	return expect(back, pt)
}

// pkcs7Pad appends 1 to 16 bytes, each holding the pad length.
func pkcs7Pad(b []byte) []byte {
	n := hosal.BlockSize - len(b)%hosal.BlockSize
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func cbc128SelfTest(ctx context.Context, dev *hosal.Device) error {
	key := mustDecodeHex("2b7e151628aed2a6abf7158809cf4f3c")
	plain := pkcs7Pad([]byte("Example string to demonstrate AES CBC mode with padding. This text has 85 characters."))
	iv := make([]byte, hosal.BlockSize)
	enc := make([]byte, len(plain))
	dec := make([]byte, len(plain))

	req := &hosal.Request{Operation: hosal.Encrypt, KeyBits: hosal.Key128, Key: key, In: plain, Out: enc, Length: len(plain), IV: iv}
	if err := dev.CBCOperation(ctx, req); err != nil {
		return err
	}
	req = &hosal.Request{Operation: hosal.Decrypt, KeyBits: hosal.Key128, Key: key, In: enc, Out: dec, Length: len(enc), IV: iv}
	if err := dev.CBCOperation(ctx, req); err != nil {
		return err
	}
	return expect(dec, plain)
}

var ctrPlaintext = mustDecodeHex("000102030405060708090A0B0C0D0E0F101112131415161718191A1B1C1D1E1F20212223")

// ctrSplit runs in through one CTR session in chunks of the given sizes.
func ctrSplit(ctx context.Context, dev *hosal.Device, op hosal.Operation, bits hosal.KeyBits, key, iv, in []byte, splits ...int) ([]byte, error) {
	s, err := dev.OpenCTR(&hosal.Request{Operation: op, KeyBits: bits, Key: key, IV: iv})
	if err != nil {
		return nil, err
	}
	defer s.Close()

	out := make([]byte, len(in))
	off := 0
	for _, n := range splits {
		if err := s.XORKeyStream(ctx, out[off:off+n], in[off:off+n]); err != nil {
			return nil, err
		}
		off += n
	}
	return out, nil
}

func ctr128SelfTest(ctx context.Context, dev *hosal.Device) error {
	key := mustDecodeHex("7691BE035E5020A8AC6E618529F9A0DC")
	iv := mustDecodeHex("00E0017B27777F3F4A1786F000000001")

	enc, err := ctrSplit(ctx, dev, hosal.Encrypt, hosal.Key128, key, iv, ctrPlaintext, 15, 3, 18)
	if err != nil {
		return err
	}
	if err := expect(enc, mustDecodeHex("C1CF48A89F2FFDD9CF4652E9EFDB72D74540A42BDE6D7836D59A5CEAAEF3105325B2072F")); err != nil {
		return err
	}

	dec, err := ctrSplit(ctx, dev, hosal.Decrypt, hosal.Key128, key, iv, enc, 10, 7, 19)
	if err != nil {
		return err
	}
	return expect(dec, ctrPlaintext)
}

func ctr192SelfTest(ctx context.Context, dev *hosal.Device) error {
	key := mustDecodeHex("02BF391EE8ECB159B959617B0965279BF59B60A786D3E0FE")
	iv := mustDecodeHex("0007BDFD5CBD60278DCC091200000001")
	enc := make([]byte, len(ctrPlaintext))
	dec := make([]byte, len(ctrPlaintext))

	req := &hosal.Request{Operation: hosal.Encrypt, KeyBits: hosal.Key192, Key: key, In: ctrPlaintext, Out: enc, Length: len(enc), IV: iv}
	if err := dev.CTROperation(ctx, req); err != nil {
		return err
	}
	if err := expect(enc, mustDecodeHex("96893FC55E5C722F540B7DD1DDF7E758D288BC95C69165884536C811662F2188ABEE0935")); err != nil {
		return err
	}

	req = &hosal.Request{Operation: hosal.Decrypt, KeyBits: hosal.Key192, Key: key, In: enc, Out: dec, Length: len(dec), IV: iv}
	if err := dev.CTROperation(ctx, req); err != nil {
		return err
	}
	return expect(dec, ctrPlaintext)
}

func cmacSelfTest(ctx context.Context, dev *hosal.Device) error {
	key := mustDecodeHex("2b7e151628aed2a6abf7158809cf4f3c")

	l := make([]byte, hosal.BlockSize)
	req := &hosal.Request{Operation: hosal.CMACLoadKey, KeyBits: hosal.Key128, Key: key, In: make([]byte, hosal.BlockSize), Out: l}
	if err := dev.CMACOperation(ctx, req); err != nil {
		return err
	}
	if err := expect(l, mustDecodeHex("7df76b0c1ab899b33e42f047b91b546f")); err != nil {
		return err
	}

	msg := mustDecodeHex("6bc1bee22e409f96e93d7e117393172aae2d8a571e03ac9c9eb76fac45af8e51" +
		"30c81c46a35ce411e5fbc1191a0a52eff69f2445df4f9b17ad2b417be66c3710")
	tag := make([]byte, hosal.BlockSize)
	req = &hosal.Request{
		Operation: hosal.CMAC, KeyBits: hosal.Key128, Key: key,
		In: msg, Out: tag, Length: len(msg), IV: mustDecodeHex("000102030405060708090a0b0c0d0e0f"),
	}
	if err := dev.CMACOperation(ctx, req); err != nil {
		return err
	}
	return expect(tag, mustDecodeHex("3ff1caa1681fac09120eca307586e1a7"))
}

// RFC 3610 packet vectors #1 to #4 and #7.
var ccmVectors = []struct {
	nonce  string
	hdrLen int
	tagLen int
	sealed string
}{
	{"00000003020100a0a1a2a3a4a5", 8, 8, "0001020304050607588c979a61c663d2f066d0c2c0f989806d5f6b61dac38417e8d12cfdf926e0"},
	{"00000004030201a0a1a2a3a4a5", 8, 8, "000102030405060772c91a36e135f8cf291ca894085c87e3cc15c439c9e43a3ba091d56e10400916"},
	{"00000005040302a0a1a2a3a4a5", 8, 8, "000102030405060751b1e5f44a197d1da46b0f8e2d282ae871e838bb64da8596574adaa76fbd9fb0c5"},
	{"00000006050403a0a1a2a3a4a5", 12, 8, "000102030405060708090a0ba28c6865939a9a79faaa5c4c2a9d4a91cdac8c96c861b9c9e61ef1"},
	{"00000009080706a0a1a2a3a4a5", 8, 10, "00010203040506070135d1b2c95f41d5d1d4fec185d166b8094e999dfed96c048c56602c97acbb7490"},
}

func ccmSelfTest(ctx context.Context, dev *hosal.Device) error {
	key := mustDecodeHex("c0c1c2c3c4c5c6c7c8c9cacbcccdcecf")

	for i, v := range ccmVectors {
		nonce := mustDecodeHex(v.nonce)
		want := mustDecodeHex(v.sealed)
		hdr := want[:v.hdrLen]
		plain := make([]byte, len(want)-v.hdrLen-v.tagLen)
		for j := range plain {
			plain[j] = byte(v.hdrLen + j)
		}

		sealed := make([]byte, len(want))
		_, err := dev.CCMOperation(ctx, &hosal.CCMRequest{
			Operation: hosal.Encrypt, KeyBits: hosal.Key128, Key: key,
			Nonce: nonce, Header: hdr, In: plain, TagLen: v.tagLen, Out: sealed,
		})
		if err != nil {
			return errors.Wrapf(err, "vector %d", i)
		}
		if err := expect(sealed, want); err != nil {
			return errors.Wrapf(err, "vector %d", i)
		}

		back := make([]byte, len(plain))
		_, err = dev.CCMOperation(ctx, &hosal.CCMRequest{
			Operation: hosal.Decrypt, KeyBits: hosal.Key128, Key: key,
			Nonce: nonce, HeaderLen: v.hdrLen, In: sealed, TagLen: v.tagLen, Out: back,
		})
		if err != nil {
			return errors.Wrapf(err, "vector %d", i)
		}
		if err := expect(back, plain); err != nil {
			return errors.Wrapf(err, "vector %d", i)
		}
	}
	return nil
}
