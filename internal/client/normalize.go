package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NormalizeRoadmap unwraps {"roadmap_json": R} to R when R is present and truthy,
// otherwise the body itself is the roadmap. R may also arrive as a JSON-encoded string.
// A body reporting an error without any nodes is rejected.
func NormalizeRoadmap(body []byte) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("roadmap body is not a JSON object: %w", err)
	}

	roadmap := body
	if wrapped, ok := envelope["roadmap_json"]; ok && !isFalsy(wrapped) {
		unwrapped, err := unwrapRoadmap(wrapped)
		if err != nil {
			return nil, err
		}
		roadmap = unwrapped
	} else if _, hasNodes := envelope["nodes"]; !hasNodes {
		if msg := errorField(envelope); msg != "" {
			return nil, fmt.Errorf("roadmap generation failed: %s", msg)
		}
	}

	return roadmap, nil
}

func unwrapRoadmap(wrapped json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(wrapped)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return nil, fmt.Errorf("roadmap_json is not a valid string: %w", err)
		}
		return []byte(encoded), nil
	}
	return trimmed, nil
}

// rejectErrorBody fails bodies shaped like {"error": "..."} that the service
// returns with a success status
func rejectErrorBody(body []byte) ([]byte, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Leave non-object bodies to schema validation
		return body, nil
	}
	if msg := errorField(envelope); msg != "" {
		return nil, fmt.Errorf("service reported an error: %s", msg)
	}
	return body, nil
}

func errorField(envelope map[string]json.RawMessage) string {
	raw, ok := envelope["error"]
	if !ok || isNull(raw) {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	return string(raw)
}

// isFalsy reports null, false, "" and numeric zero
func isFalsy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "null", "false", `""`:
		return true
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n == 0
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
