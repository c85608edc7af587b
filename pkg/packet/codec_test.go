package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

func TestMarshalLayout(t *testing.T) {
	p := New(KindKeyExchange, 0x01020304, 7, []byte("abc"))
	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	want := []byte{
		constants.PacketVersion, byte(KindKeyExchange),
		0x01, 0x02, 0x03, 0x04,
		0x00, 0x00, 0x00, 0x07,
		0x00, 0x00, 0x00, 0x03,
		'a', 'b', 'c',
	}
	if !bytes.Equal(data, want) {
		t.Errorf("MarshalBinary = %x, want %x", data, want)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind() != p.Kind() || got.Sender() != p.Sender() || got.Receiver() != p.Receiver() ||
		!bytes.Equal(got.Payload(), p.Payload()) {
		t.Errorf("Decode = %v, want %v", got, p)
	}
}

func TestDecodeDetachesPayload(t *testing.T) {
	data, _ := New(KindEncryptedData, 1, 2, []byte("xyz")).MarshalBinary()
	p, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	data[constants.PacketHeaderSize] = 'Q'
	if string(p.Payload()) != "xyz" {
		t.Error("decoded packet shares memory with the input frame")
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, _ := New(KindEncryptedData, 1, 2, []byte("hello")).MarshalBinary()

	mutate := func(f func([]byte) []byte) []byte {
		return f(bytes.Clone(valid))
	}
	oversized := mutate(func(b []byte) []byte {
		binary.BigEndian.PutUint32(b[10:], constants.MaxMessageSize+1)
		return b
	})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, qerrors.ErrInvalidPacket},
		{"short header", valid[:5], qerrors.ErrInvalidPacket},
		{"bad version", mutate(func(b []byte) []byte { b[0] = 9; return b }), qerrors.ErrInvalidPacket},
		{"bad kind", mutate(func(b []byte) []byte { b[1] = 200; return b }), qerrors.ErrInvalidPacket},
		{"truncated payload", valid[:len(valid)-1], qerrors.ErrInvalidPacket},
		{"trailing bytes", append(bytes.Clone(valid), 0), qerrors.ErrInvalidPacket},
		{"oversized length", oversized, qerrors.ErrMessageTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStreamRoundTrip(t *testing.T) {
	packets := []Packet{
		New(KindEntanglement, 1, 2, nil),
		New(KindEncryptedData, 2, 1, []byte("first")),
		New(KindErrorCorrection, 3, 4, []byte{0, 1, 2}),
	}

	var buf bytes.Buffer
	for _, p := range packets {
		n, err := p.WriteTo(&buf)
		if err != nil {
			t.Fatalf("WriteTo failed: %v", err)
		}
		if int(n) != constants.PacketHeaderSize+p.Len() {
			t.Errorf("WriteTo wrote %d bytes, want %d", n, constants.PacketHeaderSize+p.Len())
		}
	}

	for i, want := range packets {
		got, err := ReadPacket(&buf)
		if err != nil {
			t.Fatalf("ReadPacket #%d failed: %v", i, err)
		}
		if got.String() != want.String() || !bytes.Equal(got.Payload(), want.Payload()) {
			t.Errorf("ReadPacket #%d = %v, want %v", i, got, want)
		}
	}

	if _, err := ReadPacket(&buf); !errors.Is(err, io.EOF) {
		t.Errorf("ReadPacket on empty stream = %v, want io.EOF", err)
	}
}

func TestReadPacketTruncated(t *testing.T) {
	data, _ := New(KindEncryptedData, 1, 2, []byte("hello")).MarshalBinary()
	_, err := ReadPacket(bytes.NewReader(data[:len(data)-2]))
	if !errors.Is(err, qerrors.ErrInvalidPacket) {
		t.Errorf("ReadPacket = %v, want ErrInvalidPacket", err)
	}
}

func FuzzDecode(f *testing.F) {
	seed, _ := New(KindEncryptedData, 1, 2, []byte("seed")).MarshalBinary()
	f.Add(seed)
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := Decode(data)
		if err != nil {
			return
		}
		out, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Errorf("re-encode = %x, want %x", out, data)
		}
	})
}
