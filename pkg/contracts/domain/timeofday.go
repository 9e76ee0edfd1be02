package domain

import (
	"encoding/json"
	"fmt"
)

// TimeCategory is the time-of-day bucket assigned to an incident
type TimeCategory uint8

const (
	TimeUnknown TimeCategory = iota
	TimeMorning
	TimeAfternoon
	TimeNight
)

// Output codes written to the cleaned dataset
const (
	TimeCodeMorning   = "M"
	TimeCodeAfternoon = "T"
	TimeCodeNight     = "N"
	TimeCodeUnknown   = "Unknown"
)

// AllTimeCategories lists every category in report order
var AllTimeCategories = []TimeCategory{TimeMorning, TimeAfternoon, TimeNight, TimeUnknown}

// Code returns the fixed string code for c
func (c TimeCategory) Code() string {
	switch c {
	case TimeMorning:
		return TimeCodeMorning
	case TimeAfternoon:
		return TimeCodeAfternoon
	case TimeNight:
		return TimeCodeNight
	default:
		return TimeCodeUnknown
	}
}

// String returns a human-readable label
func (c TimeCategory) String() string {
	switch c {
	case TimeMorning:
		return "morning"
	case TimeAfternoon:
		return "afternoon"
	case TimeNight:
		return "night"
	default:
		return "unknown"
	}
}

// ParseTimeCategory maps an output code back to its category
func ParseTimeCategory(code string) (TimeCategory, error) {
	switch code {
	case TimeCodeMorning:
		return TimeMorning, nil
	case TimeCodeAfternoon:
		return TimeAfternoon, nil
	case TimeCodeNight:
		return TimeNight, nil
	case TimeCodeUnknown:
		return TimeUnknown, nil
	}
	return TimeUnknown, fmt.Errorf("unknown time category code %q", code)
}

// MarshalJSON encodes the category as its code
func (c TimeCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Code())
}

// UnmarshalJSON decodes a category code
func (c *TimeCategory) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	parsed, err := ParseTimeCategory(code)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
