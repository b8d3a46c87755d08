// Package reference holds the read-only part and model compatibility maps.
// A Store is built once at startup and shared by all conversations without locking.
package reference

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
	logx "github.com/partdesk-core-poc-v1/server/pkg/logger"
)

// Stats summarises the loaded data.
type Stats struct {
	Parts  int `json:"parts"`
	Models int `json:"models"`
}

type Store struct {
	parts  map[string]model.Part
	order  []string
	models map[string][]string
	compat map[string]map[string]struct{}
}

// New builds a Store from in-memory data. Model keys and part ids are normalized.
func New(parts []model.Part, compatibility map[string][]string) *Store {
	s := &Store{
		parts:  make(map[string]model.Part, len(parts)),
		order:  make([]string, 0, len(parts)),
		models: make(map[string][]string, len(compatibility)),
		compat: make(map[string]map[string]struct{}, len(compatibility)),
	}
	for _, p := range parts {
		p.ID = NormalizePartID(p.ID)
		if p.ID == "" {
			continue
		}
		if _, dup := s.parts[p.ID]; !dup {
			s.order = append(s.order, p.ID)
		}
		s.parts[p.ID] = p
	}
	for rawModel, ids := range compatibility {
		key := NormalizeModelID(rawModel)
		if key == "" {
			continue
		}
		set := s.compat[key]
		if set == nil {
			set = make(map[string]struct{}, len(ids))
			s.compat[key] = set
		}
		for _, id := range ids {
			id = NormalizePartID(id)
			if _, seen := set[id]; seen || id == "" {
				continue
			}
			set[id] = struct{}{}
			s.models[key] = append(s.models[key], id)
		}
	}
	return s
}

// Load reads the part map and the model-to-parts map from disk.
func Load(cfg model.ReferenceConfig) (*Store, error) {
	var records map[string]partRecord
	if err := readJSON(cfg.PartMapPath, &records); err != nil {
		return nil, err
	}
	var compatibility map[string][]string
	if err := readJSON(cfg.ModelMapPath, &compatibility); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]model.Part, 0, len(records))
	for _, k := range keys {
		parts = append(parts, records[k].toPart(k))
	}

	s := New(parts, compatibility)
	logx.Info().
		Int("parts", len(s.parts)).
		Int("models", len(s.compat)).
		Str("part_map", cfg.PartMapPath).
		Str("model_map", cfg.ModelMapPath).
		Msg("reference data loaded")
	return s, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errx.Wrap(errx.ErrReferenceLoad, fmt.Errorf("read %s: %w", path, err))
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errx.Wrap(errx.ErrReferenceLoad, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// LookupPart returns the part record for id.
func (s *Store) LookupPart(id string) (model.Part, bool) {
	p, ok := s.parts[NormalizePartID(id)]
	return p, ok
}

// ModelExists reports whether the model is in the compatibility map.
func (s *Store) ModelExists(id string) bool {
	_, ok := s.compat[NormalizeModelID(id)]
	return ok
}

// CompatibleParts returns the part ids known to fit the model, in source order.
func (s *Store) CompatibleParts(modelID string) []string {
	return s.models[NormalizeModelID(modelID)]
}

// IsCompatible reports whether partID is listed for modelID.
func (s *Store) IsCompatible(modelID, partID string) bool {
	set := s.compat[NormalizeModelID(modelID)]
	_, ok := set[NormalizePartID(partID)]
	return ok
}

// Parts returns every part in load order.
func (s *Store) Parts() []model.Part {
	out := make([]model.Part, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.parts[id])
	}
	return out
}

// PopularParts is the last-resort list when search yields nothing: parts whose
// product types mention the appliance, best rated first. When nothing matches
// the appliance it falls back to the first parts in load order.
func (s *Store) PopularParts(appliance string, limit int) []model.ScoredPart {
	if limit <= 0 {
		return nil
	}
	appliance = model.CanonicalAppliance(appliance)
	if appliance == "" {
		appliance = "refrigerator"
	}

	var out []model.ScoredPart
	for _, id := range s.order {
		p := s.parts[id]
		if strings.Contains(p.ProductTypes, appliance) {
			out = append(out, model.ScoredPart{Part: p, Similarity: 0.5})
		}
	}
	if len(out) == 0 {
		for _, id := range s.order {
			if len(out) == limit {
				break
			}
			out = append(out, model.ScoredPart{Part: s.parts[id], Similarity: 0.4})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RatingOr(3.0) > out[j].RatingOr(3.0)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats returns the number of loaded parts and models.
func (s *Store) Stats() Stats {
	return Stats{Parts: len(s.parts), Models: len(s.compat)}
}

// NormalizePartID uppercases and trims a part id.
func NormalizePartID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// NormalizeModelID keeps only letters and digits, uppercased.
func NormalizeModelID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
