package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the {ok, data, message} wrapper the backend puts around payloads.
type Envelope struct {
	OK         *bool           `json:"ok"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	ResultCode string          `json:"resultCode"`
}

// UnwrapEnvelope extracts the payload from a response body.
//
// A body without an "ok" field is the payload itself. With "ok":true the
// payload is "data". With "ok":false an application-class APIError carrying
// the backend message is returned.
func UnwrapEnvelope(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, NewProtocolError("response is not valid JSON", nil)
		}
		return trimmed, nil
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, NewProtocolError("decode response envelope", err)
	}

	if env.OK == nil {
		return trimmed, nil
	}
	if !*env.OK {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		if env.ResultCode != "" {
			msg = fmt.Sprintf("%s (%s)", msg, env.ResultCode)
		}
		return nil, &APIError{
			Class:   ErrorClassApplication,
			Message: msg,
		}
	}

	return env.Data, nil
}

// errorMessage extracts a human message from an error response body.
func errorMessage(body []byte, fallback string) string {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fallback
}
