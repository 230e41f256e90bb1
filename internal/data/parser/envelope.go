package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/valyala/fastjson"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// EnvelopeKind names the response shapes the logs API is known to return
type EnvelopeKind string

const (
	EnvelopeArray EnvelopeKind = "array" // [ {...}, ... ]
	EnvelopeData  EnvelopeKind = "data"  // {"data": [ ... ]}
	EnvelopeLogs  EnvelopeKind = "logs"  // {"logs": [ ... ]}
	EnvelopeError EnvelopeKind = "error" // {"error": ...} or {"code": ..., "message": ..., "hint": ...}
)

var (
	// ErrUnexpectedShape is returned for bodies matching no known envelope
	ErrUnexpectedShape = errors.New("unexpected response shape")
	// ErrRemoteReported is returned when the body is an error envelope
	ErrRemoteReported = errors.New("remote reported an error")
)

// Envelope is a classified API response body
type Envelope struct {
	Kind    EnvelopeKind
	Records []model.LogRecord
	Message string // set for EnvelopeError
}

var envelopeParsers fastjson.ParserPool

// ParseEnvelope classifies body once and decodes the records it carries.
// Error envelopes return the envelope together with an error wrapping
// ErrRemoteReported.
func ParseEnvelope(body []byte) (*Envelope, error) {
	p := envelopeParsers.Get()
	defer envelopeParsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrUnexpectedShape, err)
	}

	var (
		kind EnvelopeKind
		list *fastjson.Value
	)

	switch v.Type() {
	case fastjson.TypeArray:
		kind, list = EnvelopeArray, v
	case fastjson.TypeObject:
		switch {
		case isArray(v.Get("data")):
			kind, list = EnvelopeData, v.Get("data")
		case isArray(v.Get("logs")):
			kind, list = EnvelopeLogs, v.Get("logs")
		case v.Exists("error"), v.Exists("message"), v.Exists("code"):
			env := &Envelope{Kind: EnvelopeError, Message: errorMessage(v)}
			return env, fmt.Errorf("%w: %s", ErrRemoteReported, env.Message)
		default:
			return nil, fmt.Errorf("%w: object without data, logs, error or message", ErrUnexpectedShape)
		}
	default:
		return nil, fmt.Errorf("%w: top-level %s", ErrUnexpectedShape, v.Type())
	}

	records := make([]model.LogRecord, 0)
	if err := sonic.Unmarshal(list.MarshalTo(nil), &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s envelope: %v", ErrUnexpectedShape, kind, err)
	}
	return &Envelope{Kind: kind, Records: records}, nil
}

func isArray(v *fastjson.Value) bool {
	return v != nil && v.Type() == fastjson.TypeArray
}

// errorMessage joins the error, message and hint fields, whichever are
// strings. A bare code is reported when nothing else is.
func errorMessage(v *fastjson.Value) string {
	var parts []string
	for _, key := range []string{"error", "message", "hint"} {
		f := v.Get(key)
		if f == nil {
			continue
		}
		switch f.Type() {
		case fastjson.TypeString:
			if s := string(f.GetStringBytes()); s != "" {
				parts = append(parts, s)
			}
		case fastjson.TypeObject:
			if s := string(f.GetStringBytes("message")); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) == 0 {
		if code := v.Get("code"); code != nil && code.Type() != fastjson.TypeNull {
			if code.Type() == fastjson.TypeString {
				return "code " + string(code.GetStringBytes())
			}
			return "code " + code.String()
		}
		return "unknown error"
	}
	return strings.Join(parts, ": ")
}
