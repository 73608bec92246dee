// Copyright 2019 Lanikai Labs. All rights reserved.

package remote

import (
	"github.com/lanikai/hosal"
	"github.com/lanikai/hosal/internal/packet"

	"github.com/pkg/errors"
)

// MaxDataLen bounds the data field of a frame.
const MaxDataLen = 1 << 20

// Longest possible frame: the data field plus every fixed and length-prefixed
// header field at its maximum.
const maxFrameLen = MaxDataLen + 1 + 1 + 2 + 1 + 255 + 1 + 255 + 4 + 2 + 0xffff

// Status is the first byte of every response frame.
type Status uint8

const (
	StatusOK Status = iota
	StatusInvalidKeyLength
	StatusInvalidLength
	StatusEngineBusy
	StatusBufferAliasing
	StatusInvalidIV
	StatusMalformedFrame
	StatusOther
)

var statusErrors = map[Status]error{
	StatusInvalidKeyLength: hosal.ErrInvalidKeyLength,
	StatusInvalidLength:    hosal.ErrInvalidLength,
	StatusEngineBusy:       hosal.ErrEngineBusy,
	StatusBufferAliasing:   hosal.ErrBufferAliasing,
	StatusInvalidIV:        hosal.ErrInvalidIV,
	StatusMalformedFrame:   ErrMalformedFrame,
}

// StatusOf maps an operation result to its wire status.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	for s := StatusInvalidKeyLength; s <= StatusMalformedFrame; s++ {
		if errors.Is(err, statusErrors[s]) {
			return s
		}
	}
	return StatusOther
}

// EncodeRequest serializes mode and the key, IV and the first req.Length
// bytes of req.In.
//
//	mode u8 | op u8 | keyBits u16 | keyLen u8 | key | ivLen u8 | iv | dataLen u32 | data
func EncodeRequest(mode hosal.Mode, req *hosal.Request) ([]byte, error) {
	if len(req.Key) > 0xff || len(req.IV) > 0xff {
		return nil, errors.Wrapf(ErrMalformedFrame, "%d byte key, %d byte IV", len(req.Key), len(req.IV))
	}
	if req.Length < 0 || req.Length > len(req.In) {
		return nil, errors.Wrapf(hosal.ErrInvalidLength, "length %d with %d byte input", req.Length, len(req.In))
	}
	if req.Length > MaxDataLen {
		return nil, errors.Wrapf(ErrMalformedFrame, "%d data bytes exceeds frame limit", req.Length)
	}

	w := packet.NewWriterSize(10 + len(req.Key) + len(req.IV) + req.Length)
	w.WriteByte(byte(mode))
	w.WriteByte(byte(req.Operation))
	w.WriteUint16(uint16(req.KeyBits))
	w.WriteByte(byte(len(req.Key)))
	w.WriteSlice(req.Key)
	w.WriteByte(byte(len(req.IV)))
	w.WriteSlice(req.IV)
	w.WriteUint32(uint32(req.Length))
	w.WriteSlice(req.In[:req.Length])
	return w.Bytes(), nil
}

// DecodeRequest parses a request frame. The returned Request references
// frame for its key, IV and input, and has a freshly allocated output
// buffer sized for mode: one block for MAC, the input length otherwise.
func DecodeRequest(frame []byte) (hosal.Mode, *hosal.Request, error) {
	r := packet.NewReader(frame)
	mode := hosal.Mode(r.ReadByte())
	req := &hosal.Request{
		Operation: hosal.Operation(r.ReadByte()),
		KeyBits:   hosal.KeyBits(r.ReadUint16()),
	}
	req.Key = r.ReadSlice(int(r.ReadByte()))
	if n := int(r.ReadByte()); n > 0 {
		req.IV = r.ReadSlice(n)
	}
	dataLen := r.ReadUint32()
	if r.Err() == nil && dataLen > MaxDataLen {
		return 0, nil, errors.Wrapf(ErrMalformedFrame, "%d data bytes exceeds frame limit", dataLen)
	}
	req.In = r.ReadSlice(int(dataLen))
	if err := r.CheckEmpty(); err != nil {
		return 0, nil, errors.Wrapf(ErrMalformedFrame, "request: %v", err)
	}

	req.Length = len(req.In)
	if mode == hosal.MAC {
		req.Out = make([]byte, hosal.BlockSize)
	} else {
		req.Out = make([]byte, req.Length)
	}
	return mode, req, nil
}

// A Response is the decoded reply to one request frame.
type Response struct {
	Status  Status
	Message string
	Data    []byte
}

// Err rebuilds the operation error from the response, so that errors.Is
// works against the hosal sentinels on the client side too.
func (resp *Response) Err() error {
	if resp.Status == StatusOK {
		return nil
	}
	if sentinel, ok := statusErrors[resp.Status]; ok {
		return errors.Wrap(sentinel, resp.Message)
	}
	return errors.Errorf("remote: %s (status %d)", resp.Message, resp.Status)
}

// EncodeResponse serializes the outcome of an operation. data is only sent
// when err is nil.
//
//	status u8 | msgLen u16 | msg | dataLen u32 | data
func EncodeResponse(err error, data []byte) []byte {
	var msg string
	if err != nil {
		msg = err.Error()
		if len(msg) > 0xffff {
			msg = msg[:0xffff]
		}
		data = nil
	}

	w := packet.NewWriterSize(7 + len(msg) + len(data))
	w.WriteByte(byte(StatusOf(err)))
	w.WriteUint16(uint16(len(msg)))
	w.WriteString(msg)
	w.WriteUint32(uint32(len(data)))
	w.WriteSlice(data)
	return w.Bytes()
}

func DecodeResponse(frame []byte) (*Response, error) {
	r := packet.NewReader(frame)
	resp := &Response{Status: Status(r.ReadByte())}
	resp.Message = r.ReadString(int(r.ReadUint16()))
	resp.Data = r.ReadSlice(int(r.ReadUint32()))
	if err := r.CheckEmpty(); err != nil {
		return nil, errors.Wrapf(ErrMalformedFrame, "response: %v", err)
	}
	if resp.Status > StatusOther {
		return nil, errors.Wrapf(ErrMalformedFrame, "status %d", resp.Status)
	}
	return resp, nil
}
