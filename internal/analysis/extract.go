package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedResponse means no JSON object could be extracted from the
	// oracle output, or the extracted text failed to parse.
	ErrMalformedResponse = errors.New("malformed oracle response")
	// ErrInvalidResult means the extracted JSON parsed but lacks the
	// mandatory overallScore/features fields.
	ErrInvalidResult = errors.New("invalid analysis result")
)

// ExtractJSON slices the substring between the first '{' and the last '}'
// of raw, inclusive. The oracle is a free-text generator and routinely wraps
// its JSON in prose, so the object is located by this outermost-brace
// heuristic rather than a strict parser. Known limitation: an unrelated
// brace in leading prose will widen the slice and break the parse.
func ExtractJSON(raw string) (string, error) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first == -1 || last == -1 || first >= last {
		return "", fmt.Errorf("%w: no JSON object delimiters found", ErrMalformedResponse)
	}
	return raw[first : last+1], nil
}

// ParseResponse turns raw oracle text into a Result or rejects it.
//
// Validation is deliberately minimal: overallScore must be present and
// non-zero (a score of exactly 0 is rejected; callers should be aware of
// this quirk), and features must be present as an array. Everything else is
// optional and left to consumers to treat as possibly absent.
func ParseResponse(raw string) (*Result, error) {
	text, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var partial struct {
		OverallScore float64         `json:"overallScore"`
		Features     json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal([]byte(text), &partial); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if partial.OverallScore == 0 {
		return nil, fmt.Errorf("%w: missing overallScore", ErrInvalidResult)
	}
	if len(partial.Features) == 0 || bytes.TrimSpace(partial.Features)[0] != '[' {
		return nil, fmt.Errorf("%w: features is not an array", ErrInvalidResult)
	}

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return &result, nil
}
