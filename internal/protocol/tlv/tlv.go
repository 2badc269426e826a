package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
)

// Type IDs carried in the field header.
const (
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
)

// Field is one decoded TLV field.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

func EncodeField(f Field) []byte {
	buf := make([]byte, HeaderLen+len(f.Value))
	putHeader(buf, f)
	copy(buf[HeaderLen:], f.Value)
	return buf
}

func AppendField(dst []byte, f Field) []byte {
	var hdr [HeaderLen]byte
	putHeader(hdr[:], f)
	dst = append(dst, hdr[:]...)
	return append(dst, f.Value...)
}

func putHeader(buf []byte, f Field) {
	binary.BigEndian.PutUint16(buf[0:2], f.ID)
	buf[2] = f.Type
	binary.BigEndian.PutUint32(buf[3:7], uint32(len(f.Value)))
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typeID := payload[i+2]
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Type: typeID, Value: val})
	}
	return fields, nil
}

func EncodeFields(fields []Field) []byte {
	out := make([]byte, 0)
	for _, f := range fields {
		out = AppendField(out, f)
	}
	return out
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("tlv: field %d type mismatch: got %d want %d", f.ID, f.Type, expected)
	}
	return nil
}

// EncodeStrings encodes values as string fields numbered by position. Field IDs
// wrap at 65536; order, not ID, is authoritative.
func EncodeStrings(values []string) []byte {
	out := make([]byte, 0)
	for i, v := range values {
		out = AppendField(out, Field{ID: uint16(i), Type: TypeString, Value: []byte(v)})
	}
	return out
}

// DecodeStrings reverses EncodeStrings.
func DecodeStrings(payload []byte) ([]string, error) {
	fields, err := DecodeFields(payload)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		if err := MustType(f, TypeString); err != nil {
			return nil, err
		}
		out[i] = string(f.Value)
	}
	return out, nil
}
