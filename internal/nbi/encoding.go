// Package nbi implements the simulator's northbound interface: the dome
// control protocol of newline-terminated JSON objects over TCP. Each request
// is `{"command": <name>, "parameters": {...}}` and each reply carries a
// numeric response code plus the expected command duration in seconds.
package nbi

import (
	"encoding/json"
	"fmt"
)

// Code is a protocol response code.
type Code int

const (
	CodeOK                 Code = 0
	CodeUnsupportedCommand Code = 2
	CodeIncorrectParameter Code = 3
)

// request is one decoded command line.
type request struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
}

// reply is the outcome of one handled command. Body keys, if any, are merged
// into the JSON reply object next to response and timeout; status commands
// use this to attach the snapshot keyed by subsystem name.
type reply struct {
	Code    Code
	Timeout float64
	Body    map[string]any
}

func okReply(timeout float64) reply {
	return reply{Code: CodeOK, Timeout: timeout}
}

// encode renders the reply as a single JSON line.
func (r reply) encode() ([]byte, error) {
	obj := map[string]any{
		"response": int(r.Code),
		"timeout":  r.Timeout,
	}
	for k, v := range r.Body {
		obj[k] = v
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return append(raw, '\n'), nil
}

// floatParam extracts a required numeric parameter.
func floatParam(params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("parameter %q is not a number", key)
	}
	return f, nil
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q is not a string", key)
	}
	return s, nil
}
