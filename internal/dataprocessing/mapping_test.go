package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sharkclean/pkg/contracts/domain"
)

func TestMapping_Apply(t *testing.T) {
	tests := []struct {
		name    string
		mapping Mapping
		in      domain.Value
		want    domain.Value
	}{
		{"country mapped", CountryMapping, domain.Text("ENGLAND"), domain.Text("UNITED KINGDOM")},
		{"country trimmed before lookup", CountryMapping, domain.Text(" NEW CALEDONIA "), domain.Text("FRANCE")},
		{"country sea", CountryMapping, domain.Text("PACIFIC OCEAN "), domain.Text("INTERNATIONAL WATERS")},
		{"country pass through", CountryMapping, domain.Text("USA "), domain.Text("USA")},
		{"country unknown stays", CountryMapping, domain.Text("UNKNOWN"), domain.Text("UNKNOWN")},
		{"country absent", CountryMapping, domain.Absent(), domain.Absent()},
		{"sex kept", SexMapping, domain.Text("F"), domain.Text("F")},
		{"sex trimmed", SexMapping, domain.Text(" M"), domain.Text("M")},
		{"sex double", SexMapping, domain.Text("M x 2"), domain.Absent()},
		{"sex lli", SexMapping, domain.Text("lli"), domain.Absent()},
		{"sex N", SexMapping, domain.Text("N "), domain.Absent()},
		{"sex dot", SexMapping, domain.Text("."), domain.Absent()},
		{"sex other passes", SexMapping, domain.Text("X"), domain.Text("X")},
		{"species large", SpeciesSizeMapping, domain.Text("White shark"), domain.Text("Large")},
		{"species small", SpeciesSizeMapping, domain.Text("4' shark"), domain.Text("Small")},
		{"species unmapped", SpeciesSizeMapping, domain.Text("Wobbegong"), domain.Text(UnknownLabel)},
		{"species invalid", SpeciesSizeMapping, domain.Text("Invalid"), domain.Absent()},
		{"species question", SpeciesSizeMapping, domain.Text("?"), domain.Absent()},
		{"species no involvement", SpeciesSizeMapping, domain.Text("No shark involvement"), domain.Absent()},
		{"type trimmed", TypeMapping, domain.Text(" Provoked"), domain.Text("Provoked")},
		{"type unverified", TypeMapping, domain.Text("Unverified"), domain.Absent()},
		{"type under investigation", TypeMapping, domain.Text("Under investigation"), domain.Absent()},
		{"gender", GenderMapping, domain.Text("Femal"), domain.Text("F")},
		{"education", EducationMapping, domain.Text("Bachelors"), domain.Text("Bachelor")},
		{"state", StateMapping, domain.Text("Cali"), domain.Text("California")},
		{"state numeral untouched", StateMapping, domain.Numeral(3), domain.Numeral(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mapping.Apply(tt.in))
		})
	}
}

func TestMapping_Fallbacks(t *testing.T) {
	base := Mapping{Name: "x", Entries: map[string]string{"a": "A"}}

	pass := base
	pass.Fallback = FallbackPassThrough
	assert.Equal(t, domain.Text("b"), pass.Apply(domain.Text("b")))

	unknown := base
	unknown.Fallback = FallbackUnknown
	assert.Equal(t, domain.Text(UnknownLabel), unknown.Apply(domain.Text("b")))

	absent := base
	absent.Fallback = FallbackAbsent
	assert.True(t, absent.Apply(domain.Text("b")).IsAbsent())
	assert.Equal(t, domain.Text("A"), absent.Apply(domain.Text("a")))

	assert.Equal(t, "pass-through", FallbackPassThrough.String())
	assert.Equal(t, "unknown", FallbackUnknown.String())
	assert.Equal(t, "absent", FallbackAbsent.String())
}

func TestMapping_ApplyColumn(t *testing.T) {
	in := []domain.Value{domain.Text("ENGLAND"), domain.Text("USA"), domain.Absent(), domain.Text(" FIJI")}
	out, changed := CountryMapping.ApplyColumn(in)

	assert.Equal(t, []domain.Value{
		domain.Text("UNITED KINGDOM"), domain.Text("USA"), domain.Absent(), domain.Text("FIJI"),
	}, out)
	assert.Equal(t, 2, changed)
	assert.Equal(t, domain.Text("ENGLAND"), in[0], "input is not modified")
}

func TestSurveyMappings(t *testing.T) {
	assert.Len(t, SurveyMappings, 3)
	for name, m := range SurveyMappings {
		assert.Equal(t, name, m.Name)
	}
}
