package protocol

import (
	"encoding/binary"
	"fmt"
)

// Packet is one decoded wire message. Recipient and Signature are
// optional and only present when their flag bits are set.
type Packet struct {
	Type      PacketType
	TTL       uint8
	Timestamp uint64
	Flags     Flags
	Recipient *PeerID
	Payload   []byte // raw TLV-encoded payload
	Signature []byte
}

// NewPacket builds an unsigned, unaddressed packet with the given
// type and payload, mirroring original_source BitchatPacket::new.
func NewPacket(t PacketType, ttl uint8, timestamp uint64, payload []byte) (*Packet, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPacketTooLarge
	}
	p := &Packet{Type: t, TTL: ttl, Timestamp: timestamp, Payload: payload}
	if t.IsGaming() {
		p.Flags |= FlagGamingMessage
	}
	return p, nil
}

// WithRecipient addresses the packet to a specific peer, setting the
// recipient-present flag.
func (p *Packet) WithRecipient(id PeerID) *Packet {
	r := id
	p.Recipient = &r
	p.Flags |= FlagRecipientPresent
	return p
}

// WithSignature attaches a detached signature, setting the
// signature-present flag.
func (p *Packet) WithSignature(sig []byte) *Packet {
	p.Signature = sig
	p.Flags |= FlagSignaturePresent
	return p
}

// IsExpired reports whether the packet's TTL has been exhausted.
func (p *Packet) IsExpired() bool {
	return p.TTL == 0
}

// SigningBytes returns the canonical bytes covered by Signature: the
// fully encoded packet with the signature flag and bytes cleared,
// following identity.Signer's clear-then-marshal contract.
func (p *Packet) SigningBytes() ([]byte, error) {
	clone := *p
	clone.Signature = nil
	clone.Flags &^= FlagSignaturePresent
	return clone.Encode()
}

// Encode serializes the packet to its wire form: header, optional
// recipient, payload, optional signature.
func (p *Packet) Encode() ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, ErrPacketTooLarge
	}

	size := HeaderSize + len(p.Payload)
	if p.Flags.has(FlagRecipientPresent) {
		if p.Recipient == nil {
			return nil, fmt.Errorf("protocol: recipient flag set but Recipient is nil")
		}
		size += len(p.Recipient)
	}
	if p.Flags.has(FlagSignaturePresent) {
		size += len(p.Signature)
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}

	buf := make([]byte, 0, size)
	buf = append(buf, ProtocolVersion, byte(p.Type), p.TTL)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], p.Timestamp)
	buf = append(buf, ts[:]...)

	buf = append(buf, byte(p.Flags))

	var payloadLen [2]byte
	binary.BigEndian.PutUint16(payloadLen[:], uint16(len(p.Payload)))
	buf = append(buf, payloadLen[:]...)

	if p.Flags.has(FlagRecipientPresent) {
		buf = append(buf, p.Recipient[:]...)
	}
	buf = append(buf, p.Payload...)
	if p.Flags.has(FlagSignaturePresent) {
		buf = append(buf, p.Signature...)
	}
	return buf, nil
}

// Decode parses a wire-format packet. It performs no partial reads: a
// truncated buffer always yields an error, never a partially
// populated Packet.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, ErrPacketTooSmall
	}
	if len(buf) > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	if buf[0] != ProtocolVersion {
		return nil, ErrUnsupportedVersion
	}

	p := &Packet{
		Type:      PacketType(buf[1]),
		TTL:       buf[2],
		Timestamp: binary.BigEndian.Uint64(buf[3:11]),
		Flags:     Flags(buf[11]),
	}
	payloadLen := int(binary.BigEndian.Uint16(buf[12:14]))

	offset := HeaderSize
	if p.Flags.has(FlagRecipientPresent) {
		if len(buf) < offset+32 {
			return nil, ErrTruncatedRecipient
		}
		var r PeerID
		copy(r[:], buf[offset:offset+32])
		p.Recipient = &r
		offset += 32
	}

	if len(buf) < offset+payloadLen {
		return nil, ErrTruncatedPayload
	}
	p.Payload = append([]byte(nil), buf[offset:offset+payloadLen]...)
	offset += payloadLen

	if p.Flags.has(FlagSignaturePresent) {
		sigLen := len(buf) - offset
		if sigLen <= 0 {
			return nil, ErrTruncatedSignature
		}
		p.Signature = append([]byte(nil), buf[offset:]...)
	}

	return p, nil
}
