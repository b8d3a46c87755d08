package composer

import (
	"fmt"

	"github.com/partdesk-core-poc-v1/server/internal/agent/guardrails"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

const errorMessage = "I encountered an issue processing your request. Could you try rephrasing?"

var (
	scopeQuestions = []string{
		"Are you looking for refrigerator or dishwasher parts?",
		"I specialize in these appliances only.",
	}
	openQuestions = []string{
		"Do you have a specific part number (starts with PS)?",
		"Or would you like help diagnosing an issue?",
		"What appliance are you working on?",
	}
	modelQuestions = []string{
		"What is your model number?",
		"It's usually on a sticker inside the appliance",
	}
	rephraseQuestions = []string{
		"Could you rephrase your question?",
		"Are you looking for a specific part or troubleshooting help?",
	}
	errorQuestions = []string{
		"Do you have a part number or model number?",
		"What issue are you experiencing?",
	}
)

// ModelRequired asks for the model number needed to recommend parts for a symptom.
func ModelRequired(r model.Resolved, symptom string, confidence float64) model.Response {
	shownSymptom := symptom
	if shownSymptom == "" {
		shownSymptom = "your issue"
	}
	appliance := r.Appliance
	if appliance == "" {
		appliance = "appliance"
	}
	msg := fmt.Sprintf("I can help with %s! To recommend the right parts, I need your %s model number.\n\n"+
		"Where to find it:\n"+
		"- Inside the appliance door\n"+
		"- On the back or side panel\n"+
		"- Near the serial number plate", shownSymptom, appliance)

	return model.ModelRequiredResponse{
		Base:              model.NewBase(model.KindModelRequired, confidence, true, msg),
		ClarificationType: "model_number",
		DetectedInfo: model.DetectedInfo{
			Intent:     r.Intent,
			Symptom:    symptom,
			Appliance:  r.Appliance,
			Brand:      r.Brand,
			HasPart:    r.PartID != "",
			HasSymptom: symptom != "",
		},
		HelpfulTips: []string{
			"Model numbers are usually 10-15 characters",
			"It may include both letters and numbers",
		},
	}
}

// IssueRequired acknowledges a model number and asks what is wrong.
func IssueRequired(modelID string, confidence float64) model.Response {
	return model.IssueRequiredResponse{
		Base: model.NewBase(model.KindIssueRequired, confidence, true,
			fmt.Sprintf("Thanks! I've noted your model %s. What issue are you experiencing?", modelID)),
		ClarificationType: "issue_description",
		ModelID:           modelID,
		ClarificationQuestions: []string{
			"What's not working properly?",
			"What symptoms are you seeing?",
		},
	}
}

// Clarification asks for whatever is missing from the resolved entities.
func Clarification(r model.Resolved, confidence float64) model.Response {
	msg := "I want to help, but I need a bit more information:"
	var questions []string
	switch {
	case r.PartID == "" && r.Symptom == "":
		questions = openQuestions
	case r.Symptom != "" && r.ModelID == "":
		msg = "To recommend the right parts, I need your appliance model number:"
		questions = modelQuestions
	default:
		questions = rephraseQuestions
	}
	return model.ClarificationResponse{
		Base:                   model.NewBase(model.KindClarificationNeeded, confidence, true, msg),
		Reason:                 model.ReasonAmbiguous,
		ClarificationQuestions: append([]string(nil), questions...),
		DetectedInfo: &model.DetectedInfo{
			Intent:     r.Intent,
			HasPart:    r.PartID != "",
			HasModel:   r.ModelID != "",
			HasSymptom: r.Symptom != "",
		},
	}
}

// Blocked answers a turn stopped by a guardrail. Confidence is always zero.
func Blocked(b *model.Block) model.Response {
	reason := model.ReasonOutOfScope
	questions := scopeQuestions
	switch b.Reason {
	case guardrails.BlockLowSignal:
		reason, questions = model.ReasonLowSignal, openQuestions
	case guardrails.BlockNonDomain:
		reason = model.ReasonNonDomain
	}
	return model.ClarificationResponse{
		Base:                   model.NewBase(model.KindClarificationNeeded, 0, true, b.Message),
		Reason:                 reason,
		ClarificationQuestions: append([]string(nil), questions...),
	}
}

// ErrorResponse is the answer for a turn that failed unexpectedly.
func ErrorResponse() model.Response {
	return model.ClarificationResponse{
		Base:                   model.NewBase(model.KindClarificationNeeded, 0, true, errorMessage),
		Reason:                 model.ReasonError,
		ClarificationQuestions: append([]string(nil), errorQuestions...),
	}
}

func notFound(message string, confidence float64, questions ...string) model.Response {
	if questions == nil {
		questions = []string{}
	}
	return model.ClarificationResponse{
		Base:                   model.NewBase(model.KindClarificationNeeded, confidence, true, message),
		Reason:                 model.ReasonNotFound,
		ClarificationQuestions: questions,
	}
}
