// Package packet defines the messages exchanged between simulated nodes and
// the node-level send and receive operations.
//
// A Packet is immutable: its payload is copied on construction and on every
// read, and Encrypt/Decrypt return new packets.
package packet

import (
	"fmt"
	"slices"

	"github.com/pzverkov/quantum-netsim/pkg/crypto"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
)

// Kind identifies the purpose of a packet.
type Kind uint8

// Packet kinds.
const (
	// KindEntanglement carries an entanglement request.
	KindEntanglement Kind = iota
	// KindKeyExchange carries QKD traffic.
	KindKeyExchange
	// KindEncryptedData carries an XOR-encrypted application payload.
	KindEncryptedData
	// KindErrorCorrection carries error-correction traffic.
	KindErrorCorrection
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindEntanglement:
		return "Entanglement"
	case KindKeyExchange:
		return "KeyExchange"
	case KindEncryptedData:
		return "EncryptedData"
	case KindErrorCorrection:
		return "ErrorCorrection"
	default:
		return "Unknown"
	}
}

// Packet is a message from one node to another.
type Packet struct {
	kind     Kind
	sender   quantum.NodeID
	receiver quantum.NodeID
	payload  []byte
}

// New builds a packet holding a copy of payload.
func New(kind Kind, sender, receiver quantum.NodeID, payload []byte) Packet {
	return Packet{
		kind:     kind,
		sender:   sender,
		receiver: receiver,
		payload:  slices.Clone(payload),
	}
}

// Kind returns the packet kind.
func (p Packet) Kind() Kind { return p.kind }

// Sender returns the sending node.
func (p Packet) Sender() quantum.NodeID { return p.sender }

// Receiver returns the addressed node.
func (p Packet) Receiver() quantum.NodeID { return p.receiver }

// Payload returns a copy of the payload.
func (p Packet) Payload() []byte { return slices.Clone(p.payload) }

// Len returns the payload length.
func (p Packet) Len() int { return len(p.payload) }

// Encrypt returns a copy of p whose payload is XOR-encrypted under key.
func (p Packet) Encrypt(key []byte) (Packet, error) {
	ct, err := crypto.Encrypt(p.payload, key)
	if err != nil {
		return Packet{}, err
	}
	return Packet{kind: p.kind, sender: p.sender, receiver: p.receiver, payload: ct}, nil
}

// Decrypt returns a copy of p whose payload is decrypted under key.
func (p Packet) Decrypt(key []byte) (Packet, error) {
	pt, err := crypto.Decrypt(p.payload, key)
	if err != nil {
		return Packet{}, err
	}
	return Packet{kind: p.kind, sender: p.sender, receiver: p.receiver, payload: pt}, nil
}

// String summarises the packet without printing the payload.
func (p Packet) String() string {
	return fmt.Sprintf("%s packet %d -> %d (%d bytes)", p.kind, p.sender, p.receiver, len(p.payload))
}
