// Package router picks exactly one route for a turn from the resolved entities,
// the confidence and the merged session.
package router

import (
	"math"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

type Router struct {
	threshold        float64
	modelRequired    float64
	unvalidatedFloor float64
}

func New(cfg model.RoutingConfig) *Router {
	return &Router{
		threshold:        cfg.ConfidenceThreshold,
		modelRequired:    cfg.ModelRequiredFloor,
		unvalidatedFloor: cfg.UnvalidatedFloor,
	}
}

// Route applies the decision tree; the first matching rule wins.
//
//  1. a valid part with a lookup intent goes to part lookup regardless of confidence
//  2. below threshold: symptom without model asks for the model, symptom with an
//     unvalidated model degrades gracefully, anything else asks for clarification
//  3. at or above threshold: part lookup, compatibility, symptom handling, a
//     follow-up on the session's last symptom, issue required, clarification
func (rt *Router) Route(r model.Resolved, confidence float64, session model.Session) model.Decision {
	lookup := r.Intent.IsLookup()

	if r.PartIDValid && lookup {
		return decide(model.RoutePartLookup, confidence, "", "valid part with lookup intent")
	}

	if confidence < rt.threshold {
		switch {
		case r.Symptom != "" && r.ModelID == "":
			return decide(model.RouteModelRequired, math.Max(confidence, rt.modelRequired), r.Symptom, "low confidence, symptom without model")
		case r.Symptom != "" && !r.ModelIDValid:
			return decide(model.RouteSymptomUnvalidated, math.Max(confidence, rt.unvalidatedFloor), r.Symptom, "low confidence, symptom with unvalidated model")
		default:
			return decide(model.RouteClarification, confidence, "", "low confidence")
		}
	}

	switch {
	case r.PartID != "" && lookup:
		return decide(model.RoutePartLookup, confidence, "", "part with lookup intent")
	case r.Intent == model.IntentCompatibilityCheck && r.PartID != "" && r.ModelID != "":
		if r.ModelIDValid {
			return decide(model.RouteCompatibility, confidence, "", "compatibility with validated model")
		}
		return decide(model.RouteCompatibilityUnvalidated, confidence, "", "compatibility with unvalidated model")
	case r.Symptom != "":
		return rt.symptom(r, confidence, r.Symptom, "symptom")
	case r.ModelID != "" && session.LastSymptom != "":
		return rt.symptom(r, confidence, session.LastSymptom, "model follow-up on last symptom")
	case r.ModelID != "":
		return decide(model.RouteIssueRequired, confidence, "", "model without symptom")
	default:
		return decide(model.RouteClarification, confidence, "", "no actionable entities")
	}
}

func (rt *Router) symptom(r model.Resolved, confidence float64, symptom, reason string) model.Decision {
	switch {
	case r.ModelID == "":
		return decide(model.RouteModelRequired, confidence, symptom, reason+" without model")
	case r.ModelIDValid:
		return decide(model.RouteSymptom, confidence, symptom, reason+" with validated model")
	default:
		return decide(model.RouteSymptomUnvalidated, math.Max(confidence, rt.unvalidatedFloor), symptom, reason+" with unvalidated model")
	}
}

func decide(route model.Route, confidence float64, symptom, reason string) model.Decision {
	return model.Decision{Route: route, Confidence: confidence, Symptom: symptom, Reason: reason}
}
