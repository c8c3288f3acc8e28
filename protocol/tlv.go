package protocol

import "encoding/binary"

// TLV is one tag-length-value entry within a packet payload. Tags are
// application-defined per packet type (e.g. a game-bet payload uses
// one tag per Bet field).
type TLV struct {
	Tag   uint8
	Value []byte
}

// EncodeTLVs serializes a sequence of TLV entries: tag(1) | length(2) | value.
func EncodeTLVs(entries []TLV) []byte {
	size := 0
	for _, e := range entries {
		size += 3 + len(e.Value)
	}
	buf := make([]byte, 0, size)
	for _, e := range entries {
		buf = append(buf, e.Tag)
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(e.Value)))
		buf = append(buf, l[:]...)
		buf = append(buf, e.Value...)
	}
	return buf
}

// DecodeTLVs parses a TLV-encoded payload. It rejects any entry whose
// declared length runs past the end of buf.
func DecodeTLVs(buf []byte) ([]TLV, error) {
	var out []TLV
	offset := 0
	for offset < len(buf) {
		if offset+3 > len(buf) {
			return nil, ErrMalformedTLV
		}
		tag := buf[offset]
		length := int(binary.BigEndian.Uint16(buf[offset+1 : offset+3]))
		offset += 3
		if offset+length > len(buf) {
			return nil, ErrMalformedTLV
		}
		value := append([]byte(nil), buf[offset:offset+length]...)
		out = append(out, TLV{Tag: tag, Value: value})
		offset += length
	}
	return out, nil
}

// Find returns the first entry with the given tag, if any.
func Find(entries []TLV, tag uint8) (TLV, bool) {
	for _, e := range entries {
		if e.Tag == tag {
			return e, true
		}
	}
	return TLV{}, false
}
