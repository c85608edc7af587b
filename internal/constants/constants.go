// Package constants defines simulation parameters for the quantum network
// simulator. The probabilities are modelling knobs, not physical constants.
package constants

// Identification
const (
	// ProjectName is used in version strings and metric namespaces
	ProjectName = "Quantum-NetSim"

	// MetricsNamespace prefixes every exported Prometheus metric
	MetricsNamespace = "quantum_netsim"
)

// Key distribution parameters
const (
	// QKDKeySize is the length of a distributed key in bytes
	QKDKeySize = 16

	// QKDNoiseProbability is the chance that a key byte has its
	// least-significant bit flipped during simulated transmission
	QKDNoiseProbability = 0.10

	// FingerprintSize is the number of SHA3-256 bytes shown for a key
	FingerprintSize = 4
)

// Entanglement parameters
const (
	// TunnelingProbability is the chance that a tunneling attempt succeeds
	TunnelingProbability = 0.5

	// ErrorKindCount is the number of error kinds the error model draws from
	ErrorKindCount = 3
)

// Cipher parameters
const (
	// DecryptionFailed is returned in place of plaintext when decrypted bytes
	// are not valid UTF-8
	DecryptionFailed = "Decryption failed"

	// MaxMessageSize bounds packet payloads on the wire and plaintexts
	// accepted by the service facade
	MaxMessageSize = 65536
)

// Packet wire format
const (
	// PacketVersion is the first byte of every encoded packet
	PacketVersion = 1

	// PacketHeaderSize is version(1) + kind(1) + sender(4) + receiver(4) + length(4)
	PacketHeaderSize = 14
)

// Randomness parameters
const (
	// DomainSeparatorSeed is absorbed before the seed when expanding it into
	// keystream parameters
	DomainSeparatorSeed = "QNETSIM-RNG-Seed-v1"

	// SeedKeySize is the ChaCha20 key size derived from a seed
	SeedKeySize = 32

	// SeedNonceSize is the ChaCha20 nonce size derived from a seed
	SeedNonceSize = 12
)
