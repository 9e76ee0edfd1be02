package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a Value holds
type ValueKind uint8

const (
	KindAbsent ValueKind = iota
	KindText
	KindNumeral
)

// String returns the variant name
func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeral:
		return "numeral"
	default:
		return "absent"
	}
}

// Value is a single spreadsheet cell: absent, free text, or a number.
// The zero Value is Absent.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

// Absent returns the missing-value marker
func Absent() Value {
	return Value{}
}

// Text wraps a string cell
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Numeral wraps a numeric cell
func Numeral(f float64) Value {
	return Value{kind: KindNumeral, num: f}
}

// Kind returns the variant held by v
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v is the missing marker
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Str returns the text of a Text value and "" otherwise
func (v Value) Str() string {
	if v.kind == KindText {
		return v.text
	}
	return ""
}

// Num returns the number of a Numeral value. ok is false for other variants.
func (v Value) Num() (float64, bool) {
	if v.kind == KindNumeral {
		return v.num, true
	}
	return 0, false
}

// String renders v the way a spreadsheet cell would show it.
// Integral numerals render without a decimal point.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumeral:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and payload
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindNumeral:
		return v.num == other.num
	default:
		return true
	}
}

// Key returns a string usable as a map key that keeps variants apart
func (v Value) Key() string {
	return v.kind.String() + ":" + v.String()
}

// FormatNumber formats f using the shortest representation
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseCell converts raw cell text into a Value. Text becomes a Numeral only
// when FormatNumber renders the number back to the same text, so "0830",
// "1e3" and " 12" stay Text. Blank cells stay Text so sentinel matching can
// see them; callers that treat blanks as missing use ParseCellStrict.
func ParseCell(raw string) Value {
	f, ok := parseFinite(raw)
	if !ok || FormatNumber(f) != raw {
		return Text(raw)
	}
	return Numeral(f)
}

// ParseNumber is for cells a workbook already stores as numbers: any finite
// float text becomes a Numeral, whatever its formatting. Anything else is
// handled by ParseCellStrict.
func ParseNumber(raw string) Value {
	if f, ok := parseFinite(raw); ok {
		return Numeral(f)
	}
	return ParseCellStrict(raw)
}

func parseFinite(raw string) (float64, bool) {
	if raw == "" || strings.TrimSpace(raw) != raw {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseCellStrict is ParseCell with empty cells mapped to Absent
func ParseCellStrict(raw string) Value {
	if raw == "" {
		return Absent()
	}
	return ParseCell(raw)
}

// MarshalJSON encodes Absent as null, Text as a string and Numeral as a number
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumeral:
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string or a number
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Absent()
	case string:
		*v = Text(t)
	case float64:
		*v = Numeral(t)
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}
