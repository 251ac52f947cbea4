package model

import (
	"fmt"
	"strings"
)

// OnOff represents the state of ancillary dome equipment (fans, seal).
type OnOff int

const (
	Off OnOff = iota
	On
)

// String returns the wire name used in status payloads.
func (o OnOff) String() string {
	if o == On {
		return "ON"
	}
	return "OFF"
}

// ParseOnOff maps the closed set of protocol action strings to an OnOff value.
func ParseOnOff(action string) (OnOff, error) {
	switch strings.ToUpper(action) {
	case "ON":
		return On, nil
	case "OFF":
		return Off, nil
	default:
		return Off, fmt.Errorf("unknown on/off action %q", action)
	}
}
