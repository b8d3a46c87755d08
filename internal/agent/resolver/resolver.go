// Package resolver merges extractor candidates, planner entities and carried
// session entities into one validated record per turn.
package resolver

import (
	"regexp"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/extract"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

// Lookup is the part of the reference store the resolver validates against.
type Lookup interface {
	LookupPart(id string) (model.Part, bool)
	ModelExists(id string) bool
}

var (
	partBackRef  = regexp.MustCompile(`(?i)\b(this part|that part|the part|same part|it)\b`)
	modelBackRef = regexp.MustCompile(`(?i)\b(this model|that model|my model|same model|with it)\b`)
)

// Prefetch holds reference lookups done ahead of resolution, keyed by the
// extractor candidates. Zero values mean "not prefetched".
type Prefetch struct {
	PartID     string
	PartFound  bool
	ModelID    string
	ModelFound bool
}

type Resolver struct {
	store Lookup
}

func New(store Lookup) *Resolver {
	return &Resolver{store: store}
}

// Resolve builds the turn's validated entities. Session values are reused only
// for non-troubleshooting intents whose query explicitly refers back to them.
// A part id that fails validation is dropped; a model id is always kept, with
// ModelIDValid recording whether the store knows it.
func (r *Resolver) Resolve(plan model.Plan, c model.Candidates, session model.Session, query string, pre *Prefetch) model.Resolved {
	out := model.Resolved{
		Intent:    plan.Intent,
		Appliance: plan.Appliance,
		Brand:     plan.Brand,
	}
	if plan.Intent == model.IntentSymptomTroubleshoot {
		out.Symptom = firstNonEmpty(plan.Query, plan.Symptom)
	}

	reuse := plan.Intent != model.IntentSymptomTroubleshoot
	partCandidate := firstNonEmpty(c.PartID, plan.PartID)
	if partCandidate == "" && reuse && partBackRef.MatchString(query) {
		partCandidate = session.PartID
	}
	modelCandidate := firstNonEmpty(c.ModelID, plan.ModelID)
	if modelCandidate == "" && reuse && modelBackRef.MatchString(query) {
		modelCandidate = session.ModelID
	}

	if pid := strings.ToUpper(strings.TrimSpace(partCandidate)); pid != "" {
		if strings.HasPrefix(pid, extract.PartPrefix) && r.partExists(pid, pre) {
			out.PartID = pid
			out.PartIDValid = true
		}
	}
	if mid := strings.ToUpper(strings.TrimSpace(modelCandidate)); mid != "" {
		out.ModelID = mid
		out.ModelIDValid = r.modelExists(mid, pre)
	}
	return out
}

func (r *Resolver) partExists(id string, pre *Prefetch) bool {
	if pre != nil && pre.PartID == id {
		return pre.PartFound
	}
	_, ok := r.store.LookupPart(id)
	return ok
}

func (r *Resolver) modelExists(id string, pre *Prefetch) bool {
	if pre != nil && pre.ModelID == id {
		return pre.ModelFound
	}
	return r.store.ModelExists(id)
}

// PrefetchPart looks up the extractor part candidate. It is safe to run
// concurrently with planning since it depends only on the raw text.
func PrefetchPart(store Lookup, partID string) Prefetch {
	if partID == "" {
		return Prefetch{}
	}
	_, ok := store.LookupPart(partID)
	return Prefetch{PartID: partID, PartFound: ok}
}

// PrefetchModel reports whether the candidate model is known.
func PrefetchModel(store Lookup, modelID string) Prefetch {
	if modelID == "" {
		return Prefetch{}
	}
	return Prefetch{ModelID: modelID, ModelFound: store.ModelExists(modelID)}
}

// Combine merges a part prefetch and a model prefetch.
func Combine(part, mdl Prefetch) *Prefetch {
	return &Prefetch{
		PartID:     part.PartID,
		PartFound:  part.PartFound,
		ModelID:    mdl.ModelID,
		ModelFound: mdl.ModelFound,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
