package protocol

import "errors"

var (
	ErrPacketTooSmall    = errors.New("protocol: packet shorter than header")
	ErrUnsupportedVersion = errors.New("protocol: unsupported protocol version")
	ErrPacketTooLarge    = errors.New("protocol: packet exceeds max packet size")
	ErrTruncatedPayload  = errors.New("protocol: payload shorter than declared length")
	ErrTruncatedRecipient = errors.New("protocol: recipient flag set but bytes missing")
	ErrTruncatedSignature = errors.New("protocol: signature flag set but bytes missing")
	ErrMalformedTLV      = errors.New("protocol: malformed TLV entry")
	ErrPacketExpired     = errors.New("protocol: packet ttl expired")
)
