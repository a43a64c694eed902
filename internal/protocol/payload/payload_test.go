package payload_test

import (
	"bytes"
	"errors"
	"testing"

	"obscuraproto/internal/protocol/payload"
	"obscuraproto/internal/protocol/protoerr"
)

func TestPayloadSerializeDeserializeRoundTrip(t *testing.T) {
	p := payload.NewBuilder(7).AddString("hi").Build()
	got, err := payload.Deserialize(p.Serialize())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.OpCode != 7 {
		t.Fatalf("op code = %d, want 7", got.OpCode)
	}
	if !bytes.Equal(got.Parameters, p.Parameters) {
		t.Fatal("parameters mismatch")
	}
}

func TestDeserializeRejectsTruncatedHeader(t *testing.T) {
	_, err := payload.Deserialize([]byte{0x00})
	if !errors.Is(err, protoerr.ErrMalformedMessage) {
		t.Fatalf("got %v, want ErrMalformedMessage", err)
	}
}

func TestBuilderReaderRoundTripAllTypes(t *testing.T) {
	p := payload.NewBuilder(1).
		AddBool(true).
		AddInt8(-5).
		AddUint8(200).
		AddInt16(-1000).
		AddUint16(60000).
		AddInt32(-100000).
		AddUint32(4000000000).
		AddInt64(-9000000000000000000).
		AddUint64(18000000000000000000).
		AddFloat32(3.5).
		AddFloat64(2.71828).
		AddString("obscura").
		AddBytes([]byte{1, 2, 3}).
		Build()

	r := payload.NewReader(p)

	if v, err := r.ReadBool(); err != nil || v != true {
		t.Fatalf("ReadBool: %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != -5 {
		t.Fatalf("ReadInt8: %v, %v", v, err)
	}
	if v, err := r.ReadUint8(); err != nil || v != 200 {
		t.Fatalf("ReadUint8: %v, %v", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != -1000 {
		t.Fatalf("ReadInt16: %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 60000 {
		t.Fatalf("ReadUint16: %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -100000 {
		t.Fatalf("ReadInt32: %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 4000000000 {
		t.Fatalf("ReadUint32: %v, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != -9000000000000000000 {
		t.Fatalf("ReadInt64: %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 18000000000000000000 {
		t.Fatalf("ReadUint64: %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Fatalf("ReadFloat32: %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != 2.71828 {
		t.Fatalf("ReadFloat64: %v, %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "obscura" {
		t.Fatalf("ReadString: %v, %v", v, err)
	}
	if v, err := r.ReadBytes(); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("ReadBytes: %v, %v", v, err)
	}
	if r.HasMore() {
		t.Fatal("reader should be exhausted")
	}
}

func TestGenericAddParamReadParamRoundTrip(t *testing.T) {
	b := payload.NewBuilder(2)
	payload.AddParam(b, uint32(99))
	payload.AddParam(b, "generic")
	p := b.Build()

	r := payload.NewReader(p)
	n, err := payload.ReadParam[uint32](r)
	if err != nil || n != 99 {
		t.Fatalf("ReadParam[uint32]: %v, %v", n, err)
	}
	s, err := payload.ReadParam[string](r)
	if err != nil || s != "generic" {
		t.Fatalf("ReadParam[string]: %v, %v", s, err)
	}
}

func TestReadParamWidthMismatch(t *testing.T) {
	p := payload.NewBuilder(3).AddUint32(1).Build()
	r := payload.NewReader(p)
	if _, err := payload.ReadParam[uint8](r); !errors.Is(err, protoerr.ErrWidthMismatch) {
		t.Fatalf("got %v, want ErrWidthMismatch", err)
	}
}

func TestReadBoolRejectsNonBooleanByte(t *testing.T) {
	p := payload.NewBuilder(4).AddUint8(2).Build()
	r := payload.NewReader(p)
	if _, err := r.ReadBool(); !errors.Is(err, protoerr.ErrInvalidBool) {
		t.Fatalf("got %v, want ErrInvalidBool", err)
	}
}

func TestReadStringRejectsInvalidUTF8(t *testing.T) {
	p := payload.NewBuilder(5).AddBytes([]byte{0xFF, 0xFE}).Build()
	r := payload.NewReader(p)
	if _, err := r.ReadString(); !errors.Is(err, protoerr.ErrInvalidUTF8) {
		t.Fatalf("got %v, want ErrInvalidUTF8", err)
	}
}

func TestWidthSniffingReads(t *testing.T) {
	p := payload.NewBuilder(6).
		AddInt8(-1).
		AddUint16(500).
		AddFloat64(1.5).
		Build()
	r := payload.NewReader(p)

	i, err := r.ReadInt()
	if err != nil || i != -1 {
		t.Fatalf("ReadInt: %v, %v", i, err)
	}
	u, err := r.ReadUint()
	if err != nil || u != 500 {
		t.Fatalf("ReadUint: %v, %v", u, err)
	}
	f, err := r.ReadFloat()
	if err != nil || f != 1.5 {
		t.Fatalf("ReadFloat: %v, %v", f, err)
	}
}

func TestReadPastEndFailsTruncated(t *testing.T) {
	p := payload.NewBuilder(8).Build()
	r := payload.NewReader(p)
	if _, err := r.ReadBytes(); !errors.Is(err, protoerr.ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
}
