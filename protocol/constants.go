// Package protocol implements the BitCraps wire format: a fixed
// 14-byte header followed by an optional recipient, a TLV payload,
// and an optional trailing signature.
package protocol

const (
	// ProtocolVersion is the only version this codec emits or accepts.
	ProtocolVersion uint8 = 1

	// HeaderSize is the fixed-width packet header in bytes:
	// version(1) | type(1) | ttl(1) | timestamp(8) | flags(1) | payload_length(2).
	HeaderSize = 14

	// MaxPacketSize bounds a fully encoded packet, header included.
	MaxPacketSize = 4096

	// MaxTTL bounds the hop count a packet may carry; the mesh
	// dispatcher caps the TTL of every forwarded copy at its configured
	// maximum.
	MaxTTL uint8 = 7

	// MaxPayloadSize is the largest TLV payload a single packet may carry.
	MaxPayloadSize = MaxPacketSize - HeaderSize
)

// PacketType identifies the wire message kind. System types occupy
// 0x01-0x0F, gaming types occupy 0x10-0x1F.
type PacketType uint8

const (
	TypeAnnouncement       PacketType = 0x01
	TypePrivateMessage     PacketType = 0x02
	TypePublicMessage      PacketType = 0x03
	TypeHandshakeInit      PacketType = 0x04
	TypeHandshakeResponse  PacketType = 0x05
	TypePing               PacketType = 0x06
	TypePong               PacketType = 0x07

	TypeGameCreate        PacketType = 0x10
	TypeGameJoin          PacketType = 0x11
	TypeGameBet           PacketType = 0x12
	TypeGameRollCommit    PacketType = 0x13
	TypeGameRollReveal    PacketType = 0x14
	TypeGameResult        PacketType = 0x15
	TypeCrapTokenTransfer PacketType = 0x16
	TypeGameStateSync     PacketType = 0x17
)

// IsGaming reports whether a packet type belongs to the gaming range.
func (t PacketType) IsGaming() bool {
	return t >= 0x10 && t <= 0x1F
}

// Flags is a bitset of wire header flags.
type Flags uint8

const (
	FlagRecipientPresent  Flags = 0x01
	FlagSignaturePresent  Flags = 0x02
	FlagPayloadCompressed Flags = 0x04
	FlagGamingMessage     Flags = 0x08
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// Gaming-domain constants.
const (
	InitialCrapTokens uint64 = 1000
	MinBetAmount      uint64 = 1
	MaxBetAmount      uint64 = 100
	CommitmentSize           = 32 // SHA-256 digest size
	NonceSize                = 32
)
