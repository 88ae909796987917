package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
)

// similarity is the success payload of recognition_result.json.
type similarity struct {
	EmployeeID    json.RawMessage `json:"employee_id"`
	FingerprintID json.RawMessage `json:"fingerprint_id"`
	Confidence    *float64        `json:"confidence"`
}

// parseReport decodes the matcher report.
//
//	{"similarity": {"employee_id": "E1" | null, "fingerprint_id": "F7", "confidence": 0.92}}
//	{"error": "message"}
func parseReport(data []byte) (entity.MatchOutcome, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return entity.MatchOutcome{}, fmt.Errorf("%w: %w", domain.ErrMatcherMalformedReport, err)
	}

	if raw, ok := top["error"]; ok {
		var msg string
		if err := json.Unmarshal(raw, &msg); err != nil {
			msg = string(raw)
		}
		return entity.MatchOutcome{}, &domain.MatcherReportedError{Message: msg}
	}

	raw, ok := top["similarity"]
	if !ok {
		return entity.MatchOutcome{}, fmt.Errorf("%w: missing similarity", domain.ErrMatcherMalformedReport)
	}
	var sim similarity
	if err := json.Unmarshal(raw, &sim); err != nil {
		return entity.MatchOutcome{}, fmt.Errorf("%w: similarity: %w", domain.ErrMatcherMalformedReport, err)
	}
	if sim.Confidence == nil {
		return entity.MatchOutcome{}, fmt.Errorf("%w: missing confidence", domain.ErrMatcherMalformedReport)
	}
	c := *sim.Confidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return entity.MatchOutcome{}, fmt.Errorf("%w: confidence %v out of range", domain.ErrMatcherMalformedReport, c)
	}

	subject, err := decodeID("employee_id", sim.EmployeeID)
	if err != nil {
		return entity.MatchOutcome{}, err
	}
	sample, err := decodeID("fingerprint_id", sim.FingerprintID)
	if err != nil {
		return entity.MatchOutcome{}, err
	}
	return entity.MatchOutcome{CandidateSubjectID: subject, SampleID: sample, Confidence: c}, nil
}

// decodeID accepts a string, a number or null.
func decodeID(field string, raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		id := n.String()
		return &id, nil
	}
	return nil, fmt.Errorf("%w: %s %s", domain.ErrMatcherMalformedReport, field, string(raw))
}
