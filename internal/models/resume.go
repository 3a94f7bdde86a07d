package models

import (
	"encoding/json"
)

// FlexibleText is a description field that providers return either as a
// single string or as a list of bullet points. Both shapes unmarshal into
// a slice; a single line marshals back to a plain string.
type FlexibleText []string

func (f *FlexibleText) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*f = FlexibleText{}
		} else {
			*f = FlexibleText{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = FlexibleText(many)
	return nil
}

func (f FlexibleText) MarshalJSON() ([]byte, error) {
	if len(f) == 1 {
		return json.Marshal(f[0])
	}
	if f == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(f))
}

type Experience struct {
	Title       string       `json:"title"`
	Company     string       `json:"company"`
	Period      string       `json:"period"`
	Description FlexibleText `json:"description"`
}

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Period      string `json:"period"`
	Description string `json:"description,omitempty"`
}

type LanguageSkill struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"`
}

// StructuredResume is the canonical parsed CV record. Every field is
// always present: strings default to "" and slices to empty, never nil,
// so a serialized record is total regardless of what the model omitted.
type StructuredResume struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	About          string          `json:"about"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Languages      []LanguageSkill `json:"languages"`
	Hobbies        []string        `json:"hobbies"`
	Certifications []string        `json:"certifications"`
	Links          []Link          `json:"links,omitempty"`
}

// DefaultResume returns an all-empty record used as the merge base after
// structured extraction.
func DefaultResume() StructuredResume {
	return StructuredResume{
		Skills:         []string{},
		Experience:     []Experience{},
		Education:      []Education{},
		Languages:      []LanguageSkill{},
		Hobbies:        []string{},
		Certifications: []string{},
	}
}

// Normalize replaces nil collections with empty ones so the record stays
// total after a partial unmarshal.
func (r *StructuredResume) Normalize() {
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	for i := range r.Experience {
		if r.Experience[i].Description == nil {
			r.Experience[i].Description = FlexibleText{}
		}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Languages == nil {
		r.Languages = []LanguageSkill{}
	}
	if r.Hobbies == nil {
		r.Hobbies = []string{}
	}
	if r.Certifications == nil {
		r.Certifications = []string{}
	}
}

// IsEmpty reports whether nothing at all was extracted.
func (r *StructuredResume) IsEmpty() bool {
	return r.Name == "" && r.Email == "" && r.Phone == "" && r.About == "" &&
		len(r.Skills) == 0 && len(r.Experience) == 0 && len(r.Education) == 0
}

// IdentityHints carries user-supplied identity fields used to correct OCR
// noise during extraction. The preference policy lives in the prompt, not
// in code.
type IdentityHints struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func (h IdentityHints) IsZero() bool {
	return h.FirstName == "" && h.LastName == "" && h.Email == "" && h.Phone == ""
}
