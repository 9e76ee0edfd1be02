package dataprocessing

import (
	"strings"

	"sharkclean/pkg/contracts/domain"
)

// Fallback decides what a Mapping does with a value that has no table entry
type Fallback uint8

const (
	// FallbackPassThrough keeps the normalized input
	FallbackPassThrough Fallback = iota
	// FallbackUnknown replaces the value with the literal "Unknown"
	FallbackUnknown
	// FallbackAbsent turns the value into a missing marker
	FallbackAbsent
)

func (f Fallback) String() string {
	switch f {
	case FallbackUnknown:
		return "unknown"
	case FallbackAbsent:
		return "absent"
	default:
		return "pass-through"
	}
}

// UnknownLabel is the text written by FallbackUnknown
const UnknownLabel = "Unknown"

// Mapping is a declarative lookup table for one column.
//
// A value is processed as follows: Absent stays Absent; the raw text is
// checked against Nullify (exact, before any normalization); the text is
// normalized with Normalize (when set), checked against Discard and looked
// up in Entries; anything left over is handled by Fallback.
type Mapping struct {
	Name      string
	Entries   map[string]string
	Nullify   []string
	Discard   []string
	Normalize func(string) string
	Fallback  Fallback
}

// Apply maps a single value
func (m Mapping) Apply(v domain.Value) domain.Value {
	if v.IsAbsent() {
		return v
	}
	raw := v.String()
	for _, n := range m.Nullify {
		if raw == n {
			return domain.Absent()
		}
	}

	key := raw
	if m.Normalize != nil {
		key = m.Normalize(raw)
	}
	for _, d := range m.Discard {
		if key == d {
			return domain.Absent()
		}
	}
	if out, ok := m.Entries[key]; ok {
		return domain.Text(out)
	}

	switch m.Fallback {
	case FallbackUnknown:
		return domain.Text(UnknownLabel)
	case FallbackAbsent:
		return domain.Absent()
	default:
		if m.Normalize == nil {
			return v
		}
		return domain.Text(key)
	}
}

// ApplyColumn maps every value and returns the new column and how many cells
// changed.
func (m Mapping) ApplyColumn(values []domain.Value) ([]domain.Value, int) {
	out := make([]domain.Value, len(values))
	changed := 0
	for i, v := range values {
		out[i] = m.Apply(v)
		if !out[i].Equal(v) {
			changed++
		}
	}
	return out, changed
}

// CountryMapping folds territories and seas into sovereign countries or
// INTERNATIONAL WATERS. Unlisted countries pass through trimmed.
var CountryMapping = Mapping{
	Name:      "country",
	Normalize: strings.TrimSpace,
	Fallback:  FallbackPassThrough,
	Entries: map[string]string{
		"ENGLAND":                               "UNITED KINGDOM",
		"NEW CALEDONIA":                         "FRANCE",
		"ST HELENA, British overseas territory": "UNITED KINGDOM",
		"REUNION":                               "FRANCE",
		"FRENCH POLYNESIA":                      "FRANCE",
		"Fiji":                                  "FIJI",
		"CAYMAN ISLANDS":                        "UNITED KINGDOM",
		"ARUBA":                                 "NETHERLANDS",
		"ST. MARTIN":                            "FRANCE",
		"DIEGO GARCIA":                          "UNITED KINGDOM",
		"GUAM":                                  "USA",
		"TURKS & CAICOS":                        "UNITED KINGDOM",
		"AZORES":                                "PORTUGAL",
		"Sierra Leone":                          "SIERRA LEONE",
		"ATLANTIC OCEAN":                        "INTERNATIONAL WATERS",
		"GRAND CAYMAN":                          "UNITED KINGDOM",
		"Seychelles":                            "SEYCHELLES",
		"OKINAWA":                               "JAPAN",
		"NORTHERN ARABIAN SEA":                  "INTERNATIONAL WATERS",
		"CARIBBEAN SEA":                         "INTERNATIONAL WATERS",
		"NORTH ATLANTIC OCEAN":                  "INTERNATIONAL WATERS",
		"SOUTH CHINA SEA":                       "INTERNATIONAL WATERS",
		"WESTERN SAMOA":                         "SAMOA",
		"BRITISH ISLES":                         "UNITED KINGDOM",
		"NEW BRITAIN":                           "PAPUA NEW GUINEA",
		"JOHNSTON ISLAND":                       "USA",
		"SOUTH PACIFIC OCEAN":                   "INTERNATIONAL WATERS",
		"NEW GUINEA":                            "PAPUA NEW GUINEA",
		"RED SEA":                               "INTERNATIONAL WATERS",
		"NORTH PACIFIC OCEAN":                   "INTERNATIONAL WATERS",
		"FEDERATED STATES OF MICRONESIA":        "MICRONESIA",
		"MID ATLANTIC OCEAN":                    "INTERNATIONAL WATERS",
		"ADMIRALTY ISLANDS":                     "PAPUA NEW GUINEA",
		"BRITISH WEST INDIES":                   "INTERNATIONAL WATERS",
		"SOUTH ATLANTIC OCEAN":                  "INTERNATIONAL WATERS",
		"PERSIAN GULF":                          "INTERNATIONAL WATERS",
		"RED SEA / INDIAN OCEAN":                "INTERNATIONAL WATERS",
		"PACIFIC OCEAN":                         "INTERNATIONAL WATERS",
		"NORTH SEA":                             "INTERNATIONAL WATERS",
		"AMERICAN SAMOA":                        "USA",
		"ANDAMAN / NICOBAR ISLANDAS":            "INDIA",
		"MAYOTTE":                               "FRANCE",
		"THE BALKANS":                           "INTERNATIONAL WATERS",
		"SUDAN?":                                "SUDAN",
		"NORTHERN MARIANA ISLANDS":              "USA",
		"IRAN / IRAQ":                           "INTERNATIONAL WATERS",
		"CENTRAL PACIFIC":                       "INTERNATIONAL WATERS",
		"INDIAN OCEAN":                          "INTERNATIONAL WATERS",
		"SOLOMON ISLANDS / VANUATU":             "INTERNATIONAL WATERS",
		"SOUTHWEST PACIFIC OCEAN":               "INTERNATIONAL WATERS",
		"BAY OF BENGAL":                         "INDIA",
		"MID-PACIFC OCEAN":                      "INTERNATIONAL WATERS",
		"CURACAO":                               "NETHERLANDS",
		"ITALY / CROATIA":                       "INTERNATIONAL WATERS",
		"SAN DOMINGO":                           "DOMINIKANA",
		"YEMEN":                                 "YEMEN",
		"REUNION ISLAND":                        "FRANCE",
		"FALKLAND ISLANDS":                      "UNITED KINGDOM",
		"CRETE":                                 "GREECE",
		"NETHERLANDS ANTILLES":                  "NETHERLANDS",
		"UNITED ARAB EMIRATES (UAE)":            "UNITED ARAB EMIRATES",
		"EGYPT / ISRAEL":                        "INTERNATIONAL WATERS",
		"PALESTINIAN TERRITORIES":               "INTERNATIONAL WATERS",
	},
}

// SexMapping keeps M and F and drops codes that are not a sex
var SexMapping = Mapping{
	Name:      "sex",
	Normalize: strings.TrimSpace,
	Fallback:  FallbackPassThrough,
	Discard:   []string{"M x 2", "lli", "N", "."},
	Entries: map[string]string{
		"M": "M",
		"F": "F",
	},
}

// SpeciesSizeMapping groups shark descriptions by size class. Anything not
// listed becomes Unknown and is later imputed.
var SpeciesSizeMapping = Mapping{
	Name:     "species",
	Nullify:  []string{"?", "Invalid", "No shark involvement", "Shark involvement not confirmed"},
	Fallback: FallbackUnknown,
	Entries: map[string]string{
		"White shark":                           "Large",
		"Tiger shark":                           "Large",
		"Bull shark":                            "Large",
		"6' shark":                              "Medium",
		"4' shark":                              "Small",
		"1.8 m [6'] shark":                      "Medium",
		"1.5 m [5'] shark":                      "Small",
		"5' shark":                              "Small",
		"1.2 m [4'] shark":                      "Small",
		"4' to 5' shark":                        "Small",
		"2 m shark":                             "Medium",
		"3' shark":                              "Small",
		"3 m [10'] shark":                       "Large",
		"Nurse shark":                           "Medium",
		"Blacktip shark":                        "Medium",
		"3' to 4' shark":                        "Small",
		"3 m shark":                             "Large",
		"2.4 m [8'] shark":                      "Medium",
		"12' shark":                             "Large",
		"3.7 m [12'] shark":                     "Large",
		"Blue shark":                            "Large",
		"7' shark":                              "Medium",
		"1.2 m to 1.5 m [4' to 5'] shark":       "Small",
		"Mako shark":                            "Large",
		"1.5 m shark":                           "Small",
		"Bronze whaler shark":                   "Medium",
		"Raggedtooth shark":                     "Medium",
		"6 m [20'] white shark":                 "Large",
		"10' shark":                             "Large",
		"5 m [16.5'] white shark":               "Large",
		"Grey nurse shark":                      "Medium",
		"Zambesi shark":                         "Medium",
		"Sandtiger shark":                       "Medium",
		"Hammerhead shark":                      "Large",
		"Oceanic whitetip shark":                "Large",
		"Lemon shark":                           "Medium",
		"4 m [13'] white shark":                 "Large",
		"8' shark":                              "Medium",
		"2' to 3' shark":                        "Small",
		"2.1 m [7'] shark":                      "Medium",
		"1 m shark":                             "Small",
		"Bull shark, 6'":                        "Medium",
		"9' shark":                              "Medium",
		"3 m [10'] white shark":                 "Large",
		"2.5 m shark":                           "Medium",
		"Spinner shark":                         "Medium",
		"1.8 m shark":                           "Medium",
		"Basking shark":                         "Large",
		"2' shark":                              "Small",
		"5' to 6' shark":                        "Medium",
		"14' shark":                             "Large",
		"4 m to 5 m [13' to 16.5'] white shark": "Large",
		"Angel shark":                           "Medium",
		"6' to 8' shark":                        "Medium",
		"2.5 m [8.25'] white shark":             "Medium",
		"1.8 m [6'] blacktip shark":             "Medium",
		"4.3 m [14'] shark":                     "Large",
		"3 m [10'] bull shark":                  "Large",
		"1.8 m to 2.4 m [6' to 8'] shark":       "Medium",
		"15' shark":                             "Large",
		"13' shark":                             "Large",
		"4.6 m [15'] shark":                     "Large",
		"Sevengill shark":                       "Medium",
		"0.9 m [3'] shark":                      "Small",
		"5 m to 6 m [16.5' to 20'] white shark": "Large",
		"5.5 m [18'] white shark":               "Large",
		"Grey reef shark":                       "Medium",
		"Tiger shark, 3 m [10']":                "Large",
		"4 m [13'] shark":                       "Large",
		"Caribbean reef shark":                  "Medium",
		"Bull shark, 4' to 5'":                  "Small",
	},
}

// TypeMapping drops unverified incident types and trims the rest
var TypeMapping = Mapping{
	Name:      "type",
	Nullify:   []string{"?", "Unconfirmed", "Unverified", "Invalid", "Under investigation"},
	Normalize: strings.TrimSpace,
	Fallback:  FallbackPassThrough,
}

// ActivityMapping only trims
var ActivityMapping = Mapping{
	Name:      "activity",
	Normalize: strings.TrimSpace,
	Fallback:  FallbackPassThrough,
}

// Lookup tables for survey-style datasets (gender, education, state columns)
var (
	GenderMapping = Mapping{
		Name:     "gender",
		Fallback: FallbackPassThrough,
		Entries:  map[string]string{"Male": "M", "female": "F", "Female": "F", "Femal": "F"},
	}
	EducationMapping = Mapping{
		Name:     "education",
		Fallback: FallbackPassThrough,
		Entries:  map[string]string{"Bachelors": "Bachelor"},
	}
	StateMapping = Mapping{
		Name:     "state",
		Fallback: FallbackPassThrough,
		Entries:  map[string]string{"AZ": "Arizona", "Cali": "California", "WA": "Washington"},
	}
)

// SurveyMappings are the survey lookups keyed by the column they clean
var SurveyMappings = map[string]Mapping{
	GenderMapping.Name:    GenderMapping,
	EducationMapping.Name: EducationMapping,
	StateMapping.Name:     StateMapping,
}
