package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackMessage is shown when a failure carries no usable text at all.
const FallbackMessage = "An unexpected error occurred"

type DetailKind int

const (
	DetailNone DetailKind = iota
	DetailString
	DetailFieldErrors
	DetailObject
)

// FieldError is one validation failure as reported by the backend.
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ErrorDetail is the "detail" member of an error response body, which the
// backend sends as a string, a list of field errors or an arbitrary object.
type ErrorDetail struct {
	Kind   DetailKind
	Text   string
	Fields []FieldError
	Object json.RawMessage
}

// Message renders the detail: strings as-is, field errors as their messages
// joined with ", ", objects as compact JSON.
func (d ErrorDetail) Message() string {
	switch d.Kind {
	case DetailString:
		return d.Text
	case DetailFieldErrors:
		msgs := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			msgs = append(msgs, f.Msg)
		}
		return strings.Join(msgs, ", ")
	case DetailObject:
		return string(d.Object)
	}
	return ""
}

// ParseDetail extracts the detail member from a response body. Bodies that
// are not JSON objects, or carry no detail, yield DetailNone.
func ParseDetail(body []byte) ErrorDetail {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ErrorDetail{}
	}

	raw := bytes.TrimSpace(envelope.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrorDetail{}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ErrorDetail{}
		}
		return ErrorDetail{Kind: DetailString, Text: s}
	case '[':
		var fields []FieldError
		if err := json.Unmarshal(raw, &fields); err == nil {
			return ErrorDetail{Kind: DetailFieldErrors, Fields: fields}
		}
		return objectDetail(raw)
	case '{':
		return objectDetail(raw)
	default:
		return ErrorDetail{Kind: DetailString, Text: string(raw)}
	}
}

func objectDetail(raw []byte) ErrorDetail {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ErrorDetail{}
	}
	return ErrorDetail{Kind: DetailObject, Object: buf.Bytes()}
}

// Normalize picks the message for a failed call: the server detail first,
// then the transport error text, then a generic status line, then
// FallbackMessage.
func Normalize(status int, detail ErrorDetail, transportErr error) string {
	if m := detail.Message(); m != "" {
		return m
	}
	if transportErr != nil && transportErr.Error() != "" {
		return transportErr.Error()
	}
	if status != 0 {
		return fmt.Sprintf("Request failed with status code %d", status)
	}
	return FallbackMessage
}
