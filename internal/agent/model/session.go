package model

import "strings"

// Session holds the entities carried across turns of one conversation.
// It is a value: Merge and Reset return a new Session and never mutate the receiver.
type Session struct {
	PartID       string `json:"part_id,omitempty"`
	ModelID      string `json:"model_id,omitempty"`
	ModelIDValid bool   `json:"model_id_valid,omitempty"`
	LastSymptom  string `json:"last_symptom,omitempty"`
	Appliance    string `json:"appliance,omitempty"`
	Brand        string `json:"brand,omitempty"`
}

// IsEmpty reports whether the session carries nothing.
func (s Session) IsEmpty() bool {
	return s == Session{}
}

// Merge overlays the fields present in r; absent fields keep their prior value.
func (s Session) Merge(r Resolved) Session {
	out := s
	if r.ModelID != "" {
		out.ModelID = r.ModelID
		out.ModelIDValid = r.ModelIDValid
	}
	if r.PartID != "" {
		out.PartID = r.PartID
	}
	if r.Symptom != "" {
		out.LastSymptom = r.Symptom
	}
	if r.Appliance != "" {
		out.Appliance = r.Appliance
	}
	if r.Brand != "" {
		out.Brand = r.Brand
	}
	return out
}

// Reset returns an empty session.
func (s Session) Reset() Session {
	return Session{}
}

// String renders the non-empty fields as "key: value" lines for prompts.
func (s Session) String() string {
	var b strings.Builder
	write := func(k, v string) {
		if v == "" {
			return
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	write("part_id", s.PartID)
	write("model_id", s.ModelID)
	if s.ModelID != "" {
		if s.ModelIDValid {
			write("model_id_valid", "true")
		} else {
			write("model_id_valid", "false")
		}
	}
	write("last_symptom", s.LastSymptom)
	write("appliance", s.Appliance)
	write("brand", s.Brand)
	return strings.TrimRight(b.String(), "\n")
}

// applianceAliases maps colloquial names onto the product type used in the catalog.
var applianceAliases = map[string]string{
	"fridge": "refrigerator",
}

// CanonicalAppliance lowercases an appliance name and resolves aliases.
func CanonicalAppliance(name string) string {
	a := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := applianceAliases[a]; ok {
		return canon
	}
	return a
}
