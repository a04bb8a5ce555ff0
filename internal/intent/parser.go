// internal/intent/parser.go
package intent

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"gias-workers/internal/common/errors"
	"gias-workers/internal/models"
)

var intentIDPattern = regexp.MustCompile(`^I\d{3}$`)

// envelopeSchema checks the top-level response shape before the per-field
// rules run, so structural garbage reports as a format problem rather than a
// cryptic field error.
const envelopeSchema = `{
	"type": "object",
	"required": ["candidates"],
	"properties": {
		"candidates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["intent_id", "name", "slots"],
				"properties": {
					"intent_id": {"type": "string"},
					"name": {"type": "string"},
					"description": {"type": "string"},
					"slots": {"type": "object"}
				}
			}
		}
	}
}`

// ParseOptions tunes validation for one response.
type ParseOptions struct {
	// RequiredEntities are literal tokens from the user input that an
	// out-of-scope candidate must preserve in some slot value. Empty means
	// the retention check is skipped.
	RequiredEntities []string
}

// Parser validates raw model output into an ordered candidate list.
type Parser struct {
	profile *DomainProfile
	schema  *gojsonschema.Schema
}

// NewParser creates a parser bound to a domain profile.
func NewParser(profile *DomainProfile) (*Parser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	return &Parser{profile: profile, schema: schema}, nil
}

// rawCandidate is the pre-validation wire shape. Slot values arrive untyped
// because out_of_scope is a boolean inside an otherwise string-valued map.
type rawCandidate struct {
	IntentID    string                     `json:"intent_id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Slots       map[string]json.RawMessage `json:"slots"`
}

type rawEnvelope struct {
	Candidates []rawCandidate `json:"candidates"`
}

// ParseResponse validates raw model output. The contract is strict: exactly
// one JSON object, no prose, no code fences, top-level candidates array.
// One malformed candidate invalidates the whole response; the caller
// re-prompts rather than acting on a partially trusted answer.
func (p *Parser) ParseResponse(raw string, opts ParseOptions) (*models.ParseResult, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.NewFormatError("response is empty")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errors.NewFormatError("response does not start with a JSON object")
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))

	var envelope rawEnvelope
	if err := dec.Decode(&envelope); err != nil {
		return nil, errors.NewFormatError(fmt.Sprintf("invalid JSON: %s", err))
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewFormatError("trailing content after the JSON object")
	}

	result, err := p.schema.Validate(gojsonschema.NewStringLoader(trimmed))
	if err != nil {
		return nil, errors.NewFormatError(fmt.Sprintf("schema check failed: %s", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, errors.NewFormatError(strings.Join(details, "; "))
	}

	seen := make(map[string]bool, len(envelope.Candidates))
	candidates := make([]models.Candidate, 0, len(envelope.Candidates))

	for i, rc := range envelope.Candidates {
		candidate, err := p.validateCandidate(i, rc, seen, opts)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *candidate)
	}

	return &models.ParseResult{Candidates: candidates}, nil
}

func (p *Parser) validateCandidate(index int, rc rawCandidate, seen map[string]bool, opts ParseOptions) (*models.Candidate, error) {
	if !intentIDPattern.MatchString(rc.IntentID) {
		return nil, errors.NewValidationError(
			fmt.Sprintf("candidate %d: intent_id %q does not match I followed by three digits", index, rc.IntentID))
	}
	if seen[rc.IntentID] {
		return nil, errors.NewValidationError(
			fmt.Sprintf("candidate %d: duplicate intent_id %q", index, rc.IntentID))
	}
	seen[rc.IntentID] = true

	slots := make(map[string]string, len(rc.Slots))
	outOfScope := false
	outOfScopeReason := ""

	for key, rawVal := range rc.Slots {
		switch key {
		case "out_of_scope":
			var b bool
			if err := json.Unmarshal(rawVal, &b); err != nil {
				return nil, errors.NewValidationError(
					fmt.Sprintf("candidate %s: slot out_of_scope must be a boolean", rc.IntentID))
			}
			outOfScope = b
		case "out_of_scope_reason":
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				return nil, errors.NewValidationError(
					fmt.Sprintf("candidate %s: slot out_of_scope_reason must be a string", rc.IntentID))
			}
			outOfScopeReason = s
		default:
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				return nil, errors.NewValidationError(
					fmt.Sprintf("candidate %s: slot %q is not a flat string value", rc.IntentID, key))
			}
			slots[key] = p.normalizeSlot(key, s)
		}
	}

	if outOfScope {
		if strings.TrimSpace(outOfScopeReason) == "" {
			return nil, errors.NewValidationError(
				fmt.Sprintf("candidate %s: out_of_scope without out_of_scope_reason", rc.IntentID))
		}
		if len(opts.RequiredEntities) > 0 && !preservesAnyEntity(slots, opts.RequiredEntities) {
			return nil, errors.NewValidationError(
				fmt.Sprintf("candidate %s: out_of_scope candidate drops the entity mentioned in the input", rc.IntentID))
		}
	}

	return &models.Candidate{
		IntentID:         rc.IntentID,
		Name:             rc.Name,
		Description:      rc.Description,
		Slots:            slots,
		OutOfScope:       outOfScope,
		OutOfScopeReason: strings.TrimSpace(outOfScopeReason),
	}, nil
}

// normalizeSlot applies enum normalization to closed slots. Open slots keep
// the user's wording, including the empty string for unknown values.
func (p *Parser) normalizeSlot(key, value string) string {
	if value == "" {
		return ""
	}
	if _, closed := p.profile.EnumAlias[key]; closed {
		return p.profile.NormalizeEnum(key, value)
	}
	return value
}

func preservesAnyEntity(slots map[string]string, entities []string) bool {
	for _, entity := range entities {
		if entity == "" {
			continue
		}
		for _, v := range slots {
			if strings.Contains(v, entity) {
				return true
			}
		}
	}
	return false
}
