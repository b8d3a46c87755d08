package reference

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// partRecord mirrors one entry of the scraped part map. The scraper is loose
// about types, so several fields accept either a string or a native value.
type partRecord struct {
	PartID                 string     `json:"part_id"`
	Title                  string     `json:"title"`
	Brand                  string     `json:"brand"`
	Price                  flexString `json:"price"`
	Description            string     `json:"description"`
	InstallationDifficulty string     `json:"installation_difficulty"`
	InstallationTime       string     `json:"installation_time"`
	VideoURL               string     `json:"video_url"`
	URL                    string     `json:"url"`
	Symptoms               flexList   `json:"symptoms"`
	RelatedParts           flexList   `json:"related_parts"`
	ProductTypes           flexString `json:"product_types"`
	Rating                 flexString `json:"rating"`
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexList accepts a JSON array of strings or a single pipe-separated string.
type flexList []string

func (f *flexList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*f = cleanList(items)
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	*f = cleanList(strings.Split(string(s), "|"))
	return nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || strings.EqualFold(it, "N/A") {
			continue
		}
		out = append(out, it)
	}
	return out
}

// toPart converts a raw record into the immutable domain record.
func (r partRecord) toPart(key string) model.Part {
	id := NormalizePartID(r.PartID)
	if id == "" {
		id = NormalizePartID(key)
	}
	p := model.Part{
		ID:                     id,
		Title:                  strings.TrimSpace(r.Title),
		Brand:                  strings.TrimSpace(r.Brand),
		Price:                  strings.TrimSpace(string(r.Price)),
		Description:            strings.TrimSpace(r.Description),
		InstallationDifficulty: notAvailable(r.InstallationDifficulty),
		InstallationTime:       notAvailable(r.InstallationTime),
		VideoURL:               notAvailable(r.VideoURL),
		URL:                    strings.TrimSpace(r.URL),
		Symptoms:               []string(r.Symptoms),
		RelatedParts:           []string(r.RelatedParts),
		ProductTypes:           strings.ToLower(string(r.ProductTypes)),
	}
	if p.Price == "" {
		p.Price = "N/A"
	}
	if v, ok := ParsePrice(p.Price); ok {
		p.PriceValue = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(string(r.Rating)), 64); err == nil {
		p.Rating = &v
	}
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}
	return p
}

// ParsePrice reads a display price such as "$1,024.50".
func ParsePrice(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func notAvailable(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}
