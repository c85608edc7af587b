package packet

import (
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/crypto"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
)

// Send encrypts plaintext under the key sender shares with receiver and
// returns the resulting EncryptedData packet. It fails with ErrNoKey if the
// sender holds no key for receiver. Plaintext length is not bounded here;
// MarshalBinary enforces MaxMessageSize at the wire.
func Send(sender *quantum.Node, receiver quantum.NodeID, plaintext []byte) (Packet, error) {
	key, ok := sender.Key(receiver)
	if !ok {
		return Packet{}, qerrors.NewNodeError("send", uint32(receiver), qerrors.ErrNoKey)
	}
	defer crypto.Zeroize(key)

	return New(KindEncryptedData, sender.ID(), receiver, plaintext).Encrypt(key)
}

// Receive decrypts p with the key receiver shares with p's sender and
// returns the text. It fails with ErrNoKey if no such key is held.
//
// When the plaintext is not valid UTF-8 the result is
// constants.DecryptionFailed together with ErrDecodeFailed.
func Receive(receiver *quantum.Node, p Packet) (string, error) {
	key, ok := receiver.Key(p.Sender())
	if !ok {
		return "", qerrors.NewNodeError("receive", uint32(p.Sender()), qerrors.ErrNoKey)
	}
	defer crypto.Zeroize(key)

	return crypto.DecryptString(p.payload, key)
}
