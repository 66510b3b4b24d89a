package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONBlock finds the outermost JSON object or array in a model
// response. Models often wrap JSON in prose or markdown fences, so the
// raw text cannot be unmarshaled directly.
func ExtractJSONBlock(response string) (string, error) {
	objStart := strings.Index(response, "{")
	arrStart := strings.Index(response, "[")

	start, end := objStart, strings.LastIndex(response, "}")
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, end = arrStart, strings.LastIndex(response, "]")
	}
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object or array found in response")
	}
	return response[start : end+1], nil
}

// UnmarshalResponse extracts the JSON block from a model response and
// unmarshals it into out.
func UnmarshalResponse(response string, out any) error {
	block, err := ExtractJSONBlock(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(block), out); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return nil
}

// structuredPrompt wraps a message in an instruction that constrains the
// model to emit only JSON. schemaHint is a zero value of the target type
// marshaled as an example shape.
func structuredPrompt(message string, out any) string {
	hint, err := json.Marshal(out)
	if err != nil {
		hint = []byte("{}")
	}
	return fmt.Sprintf(
		"Convert the following content into a single JSON value matching this shape exactly:\n%s\n\n"+
			"Content:\n%s\n\n"+
			"Return ONLY the JSON value, with no surrounding text or markdown.",
		hint, message)
}
