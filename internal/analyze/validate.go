package analyze

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/dontsign/internal/model"
)

// ValidationError describes one structural problem in a section response
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validation is the outcome of checking a parsed section response
type Validation struct {
	Result *model.SectionResult
	Errors []ValidationError
}

// OK reports whether the response had the required shape
func (v Validation) OK() bool {
	return len(v.Errors) == 0 && v.Result != nil
}

// Error joins the validation errors into one message
func (v Validation) Error() string {
	msgs := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ParseSectionResponse decodes a completion into a SectionResult. Malformed
// JSON is an API_ERROR; a well-formed document with the wrong shape is
// reported through Validation.
func ParseSectionResponse(text string) (Validation, error) {
	body := stripCodeFence(text)
	if body == "" {
		return Validation{}, model.NewError(model.KindAPI, "empty analysis response")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Validation{}, model.WrapError(model.KindAPI, "analysis response is not valid JSON", err)
	}

	var v Validation
	result := &model.SectionResult{}
	result.PotentialRisks = v.stringArray(raw, "potentialRisks", true)
	result.ImportantClauses = v.stringArray(raw, "importantClauses", true)
	result.Recommendations = v.stringArray(raw, "recommendations", false)
	if len(v.Errors) == 0 {
		v.Result = result
	}
	return v, nil
}

func (v *Validation) stringArray(raw map[string]json.RawMessage, field string, required bool) []string {
	data, ok := raw[field]
	if !ok || string(data) == "null" {
		if required {
			v.Errors = append(v.Errors, ValidationError{Field: field, Message: "is required"})
		}
		return []string{}
	}

	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		v.Errors = append(v.Errors, ValidationError{Field: field, Message: "must be an array"})
		return []string{}
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			v.Errors = append(v.Errors, ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: "must be a string",
			})
			continue
		}
		out = append(out, s)
	}
	return out
}

// stripCodeFence removes a surrounding ``` or ```json fence
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
