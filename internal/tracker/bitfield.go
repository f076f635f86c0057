package tracker

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// wordBits is the number of minutes stored in each BitField word.
const wordBits = 30

// BitField marks which of the 60 minutes of an hour carry authoritative data.
// Minutes 0-29 live in word 0 and minutes 30-59 in word 1.
type BitField [2]int32

// FullHour returns a BitField with every minute tracked.
func FullHour() BitField {
	var b BitField
	for m := 0; m < MinutesPerHour; m++ {
		b.TurnOn(m)
	}
	return b
}

// TurnOn marks minute m as tracked. Out-of-range minutes are ignored.
func (b *BitField) TurnOn(m int) {
	if m < 0 || m >= MinutesPerHour {
		return
	}
	if m < wordBits {
		b[0] |= 1 << m
	} else {
		b[1] |= 1 << (m - wordBits)
	}
}

// IsOn reports whether minute m is tracked.
func (b BitField) IsOn(m int) bool {
	if m < 0 || m >= MinutesPerHour {
		return false
	}
	if m < wordBits {
		return b[0]&(1<<m) != 0
	}
	return b[1]&(1<<(m-wordBits)) != 0
}

// EncodeMsgpack writes the field as a two-element array.
func (b BitField) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := enc.EncodeInt(int64(b[0])); err != nil {
		return err
	}
	return enc.EncodeInt(int64(b[1]))
}

// DecodeMsgpack reads a two-element array.
func (b *BitField) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 2 {
		return fmt.Errorf("tracked_mins: expected 2 words, got %d", n)
	}
	for i := range b {
		w, err := dec.DecodeInt64()
		if err != nil {
			return fmt.Errorf("tracked_mins word %d: %w", i, err)
		}
		b[i] = int32(w)
	}
	return nil
}
