package crm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// Address is a postal address. All parts are optional.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// SocialProfiles holds profile URLs.
type SocialProfiles struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Facebook string `json:"facebook,omitempty"`
}

// Check validates each non-empty URL.
func (s *SocialProfiles) Check(c *validate.Collector, param string) {
	if s == nil {
		return
	}
	c.URL(param+".linkedin", &s.LinkedIn)
	c.URL(param+".twitter", &s.Twitter)
	c.URL(param+".facebook", &s.Facebook)
}

const maxTagLength = 50

// CleanTags trims tags, drops empty ones and keeps the caller's order.
func CleanTags(c *validate.Collector, tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > maxTagLength {
			c.Add("tags", "Tags cannot exceed %d characters", maxTagLength)
			continue
		}
		out = append(out, t)
	}
	return out
}

// CustomFields is an open map of scalar values.
type CustomFields map[string]any

// Check rejects nested objects and arrays.
func (f CustomFields) Check(c *validate.Collector) {
	for k, v := range f {
		switch v.(type) {
		case nil, string, bool, float64, json.Number, int, int64:
		default:
			c.Add("customFields."+k, "Custom field %q must be a string, number or boolean", k)
		}
	}
}

// JSON encodes v for a JSONB column. Nil pointers and maps become SQL NULL.
func JSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

// DecodeJSON decodes a JSONB column into dst. NULL leaves dst untouched.
func DecodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode jsonb: %w", err)
	}
	return nil
}
