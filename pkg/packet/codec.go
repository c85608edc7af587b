// codec.go implements the binary encoding of packets.
//
// Wire Format:
//
//	+---------+------+--------+----------+--------+----------+
//	| Version | Kind | Sender | Receiver | Length | Payload  |
//	| 1B      | 1B   | 4B BE  | 4B BE    | 4B BE  | Variable |
//	+---------+------+--------+----------+--------+----------+
//
// Length is big-endian uint32, not including header bytes, and is bounded
// by MaxMessageSize.
package packet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
)

// MarshalBinary implements encoding.BinaryMarshaler.
func (p Packet) MarshalBinary() ([]byte, error) {
	if len(p.payload) > constants.MaxMessageSize {
		return nil, qerrors.ErrMessageTooLarge
	}

	buf := make([]byte, constants.PacketHeaderSize+len(p.payload))
	buf[0] = constants.PacketVersion
	buf[1] = byte(p.kind)
	binary.BigEndian.PutUint32(buf[2:], uint32(p.sender))
	binary.BigEndian.PutUint32(buf[6:], uint32(p.receiver))
	binary.BigEndian.PutUint32(buf[10:], uint32(len(p.payload)))
	copy(buf[constants.PacketHeaderSize:], p.payload)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The data must hold
// exactly one packet.
func (p *Packet) UnmarshalBinary(data []byte) error {
	n, err := parseHeader(data)
	if err != nil {
		return err
	}
	if len(data) != constants.PacketHeaderSize+n {
		return fmt.Errorf("%w: length %d, frame carries %d payload bytes",
			qerrors.ErrInvalidPacket, n, len(data)-constants.PacketHeaderSize)
	}
	*p = New(Kind(data[1]),
		quantum.NodeID(binary.BigEndian.Uint32(data[2:])),
		quantum.NodeID(binary.BigEndian.Uint32(data[6:])),
		data[constants.PacketHeaderSize:])
	return nil
}

// Decode parses a single encoded packet.
func Decode(data []byte) (Packet, error) {
	var p Packet
	err := p.UnmarshalBinary(data)
	return p, err
}

// ReadPacket reads one encoded packet from r.
func ReadPacket(r io.Reader) (Packet, error) {
	header := make([]byte, constants.PacketHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Packet{}, err
	}
	n, err := parseHeader(header)
	if err != nil {
		return Packet{}, err
	}

	frame := make([]byte, constants.PacketHeaderSize+n)
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[constants.PacketHeaderSize:]); err != nil {
		return Packet{}, fmt.Errorf("%w: truncated payload: %v", qerrors.ErrInvalidPacket, err)
	}
	return Decode(frame)
}

// WriteTo writes the encoded packet to w. It implements io.WriterTo.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// parseHeader validates a header and returns the payload length.
func parseHeader(data []byte) (int, error) {
	if len(data) < constants.PacketHeaderSize {
		return 0, fmt.Errorf("%w: short header", qerrors.ErrInvalidPacket)
	}
	if data[0] != constants.PacketVersion {
		return 0, fmt.Errorf("%w: version %d", qerrors.ErrInvalidPacket, data[0])
	}
	if Kind(data[1]) > KindErrorCorrection {
		return 0, fmt.Errorf("%w: kind %d", qerrors.ErrInvalidPacket, data[1])
	}
	n := binary.BigEndian.Uint32(data[10:])
	if n > constants.MaxMessageSize {
		return 0, qerrors.ErrMessageTooLarge
	}
	return int(n), nil
}
