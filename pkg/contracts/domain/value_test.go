package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Variants(t *testing.T) {
	var zero Value
	assert.True(t, zero.IsAbsent())
	assert.Equal(t, KindAbsent, zero.Kind())
	assert.Equal(t, "", zero.String())

	text := Text("Dusk")
	assert.Equal(t, KindText, text.Kind())
	assert.Equal(t, "Dusk", text.Str())
	_, ok := text.Num()
	assert.False(t, ok)

	num := Numeral(1415)
	f, ok := num.Num()
	require.True(t, ok)
	assert.Equal(t, 1415.0, f)
	assert.Equal(t, "", num.Str())
	assert.Equal(t, "1415", num.String())
	assert.Equal(t, "0.5", Numeral(0.5).String())
}

func TestValue_EqualAndKey(t *testing.T) {
	assert.True(t, Absent().Equal(Value{}))
	assert.True(t, Text("M").Equal(Text("M")))
	assert.False(t, Text("1").Equal(Numeral(1)), "variants differ")
	assert.NotEqual(t, Text("1").Key(), Numeral(1).Key())
	assert.Equal(t, Numeral(2).Key(), Numeral(2.0).Key())
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
	}{
		{"", Text("")},
		{"   ", Text("   ")},
		{"14h00", Text("14h00")},
		{"2018", Numeral(2018)},
		{"0.25", Numeral(0.25)},
		{" 12", Text(" 12")},
		{"0830", Text("0830")},
		{"1e3", Text("1e3")},
		{"2018.0", Text("2018.0")},
		{"-4", Numeral(-4)},
		{"NaN", Text("NaN")},
		{"Inf", Text("Inf")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := ParseCell(tt.raw)
			assert.True(t, tt.want.Equal(got), "ParseCell(%q) = %v (%s)", tt.raw, got, got.Kind())
		})
	}

	assert.True(t, ParseCellStrict("").IsAbsent())
	assert.Equal(t, Numeral(0.5833333333333334), ParseNumber("0.58333333333333337"), "stored numbers need not be canonical")
	assert.Equal(t, Numeral(830), ParseNumber("0830"))
	assert.True(t, ParseNumber("").IsAbsent())
	assert.Equal(t, Text("Dusk"), ParseNumber("Dusk"))
	assert.Equal(t, KindText, ParseCellStrict(" ").Kind())
}

func TestValue_JSON(t *testing.T) {
	cells := []Value{Absent(), Text("Night"), Numeral(7)}
	data, err := json.Marshal(cells)
	require.NoError(t, err)
	assert.JSONEq(t, `[null,"Night",7]`, string(data))

	var decoded []Value
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 3)
	for i := range cells {
		assert.True(t, cells[i].Equal(decoded[i]), "cell %d", i)
	}

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
}

func TestTimeCategory_Codes(t *testing.T) {
	codes := map[TimeCategory]string{
		TimeMorning:   "M",
		TimeAfternoon: "T",
		TimeNight:     "N",
		TimeUnknown:   "Unknown",
	}
	for c, code := range codes {
		assert.Equal(t, code, c.Code())
		parsed, err := ParseTimeCategory(code)
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseTimeCategory("morning")
	assert.Error(t, err, "labels are not codes")

	data, err := json.Marshal(struct {
		C TimeCategory `json:"c"`
	}{TimeAfternoon})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"T"}`, string(data))

	var c TimeCategory
	require.NoError(t, json.Unmarshal([]byte(`"N"`), &c))
	assert.Equal(t, TimeNight, c)
	assert.Error(t, json.Unmarshal([]byte(`"X"`), &c))
}
