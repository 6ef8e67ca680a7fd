// Package events defines the codes of the non-packet records the analyzer
// writes into the capture stream.
//
// The codes are part of the capture format shared with host software and must
// not be renumbered. Code 11 is unassigned.
package events

import (
	"fmt"
	"strings"
)

// USBAnalyzerEvent is the code of an event record.
type USBAnalyzerEvent uint8

// Event codes.
const (
	None          USBAnalyzerEvent = 0
	CaptureStop   USBAnalyzerEvent = 1
	CaptureFull   USBAnalyzerEvent = 2
	CaptureResume USBAnalyzerEvent = 3

	CaptureStartBase USBAnalyzerEvent = 4
	CaptureStartHigh USBAnalyzerEvent = 4
	CaptureStartFull USBAnalyzerEvent = 5
	CaptureStartLow  USBAnalyzerEvent = 6
	CaptureStartAuto USBAnalyzerEvent = 7

	SpeedDetectBase USBAnalyzerEvent = 8
	SpeedDetectHigh USBAnalyzerEvent = 8
	SpeedDetectFull USBAnalyzerEvent = 9
	SpeedDetectLow  USBAnalyzerEvent = 10

	VBUSConnected    USBAnalyzerEvent = 12
	VBUSDisconnected USBAnalyzerEvent = 13
	BusReset         USBAnalyzerEvent = 14
	SuspendStarted   USBAnalyzerEvent = 15
	SuspendEnded     USBAnalyzerEvent = 16
	DeviceChirpSeen  USBAnalyzerEvent = 17
	HostChirpSeen    USBAnalyzerEvent = 18
)

var names = map[USBAnalyzerEvent]string{
	None:             "NONE",
	CaptureStop:      "CAPTURE_STOP",
	CaptureFull:      "CAPTURE_FULL",
	CaptureResume:    "CAPTURE_RESUME",
	CaptureStartHigh: "CAPTURE_START_HIGH",
	CaptureStartFull: "CAPTURE_START_FULL",
	CaptureStartLow:  "CAPTURE_START_LOW",
	CaptureStartAuto: "CAPTURE_START_AUTO",
	SpeedDetectHigh:  "SPEED_DETECT_HIGH",
	SpeedDetectFull:  "SPEED_DETECT_FULL",
	SpeedDetectLow:   "SPEED_DETECT_LOW",
	VBUSConnected:    "VBUS_CONNECTED",
	VBUSDisconnected: "VBUS_DISCONNECTED",
	BusReset:         "BUS_RESET",
	SuspendStarted:   "SUSPEND_STARTED",
	SuspendEnded:     "SUSPEND_ENDED",
	DeviceChirpSeen:  "DEVICE_CHIRP_SEEN",
	HostChirpSeen:    "HOST_CHIRP_SEEN",
}

// aliases maps the base names to their first member.
var aliases = map[string]USBAnalyzerEvent{
	"CAPTURE_START_BASE": CaptureStartBase,
	"SPEED_DETECT_BASE":  SpeedDetectBase,
}

// String returns the canonical name of the code. Codes shared by a base
// alias print as the speed-specific member.
func (e USBAnalyzerEvent) String() string {
	if name, ok := names[e]; ok {
		return name
	}

	return fmt.Sprintf("USBAnalyzerEvent(%d)", uint8(e))
}

// Valid reports whether e is an assigned code.
func (e USBAnalyzerEvent) Valid() bool {
	_, ok := names[e]
	return ok
}

// Parse looks up a code by name. Names are case-insensitive and the base
// aliases are accepted.
func Parse(name string) (USBAnalyzerEvent, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))

	if e, ok := aliases[upper]; ok {
		return e, nil
	}

	for e, n := range names {
		if n == upper {
			return e, nil
		}
	}

	return None, fmt.Errorf("unknown analyzer event %q", name)
}

// All returns the assigned codes in ascending order.
func All() []USBAnalyzerEvent {
	all := make([]USBAnalyzerEvent, 0, len(names))
	for e := None; e <= HostChirpSeen; e++ {
		if e.Valid() {
			all = append(all, e)
		}
	}

	return all
}

// Speed is a USB bus speed as encoded in the capture start and speed
// detection codes.
type Speed uint8

// Speeds, in the order of their code offsets.
const (
	SpeedHigh Speed = iota
	SpeedFull
	SpeedLow
	SpeedAuto
)

func (s Speed) String() string {
	switch s {
	case SpeedHigh:
		return "high"
	case SpeedFull:
		return "full"
	case SpeedLow:
		return "low"
	case SpeedAuto:
		return "auto"
	default:
		return fmt.Sprintf("Speed(%d)", uint8(s))
	}
}

// CaptureStart returns the code that marks a capture started at speed s.
func CaptureStart(s Speed) (USBAnalyzerEvent, error) {
	if s > SpeedAuto {
		return None, fmt.Errorf("no capture start code for %s", s)
	}

	return CaptureStartBase + USBAnalyzerEvent(s), nil
}

// SpeedDetect returns the code that reports a detected bus speed. Auto is
// not a detectable speed.
func SpeedDetect(s Speed) (USBAnalyzerEvent, error) {
	if s > SpeedLow {
		return None, fmt.Errorf("no speed detect code for %s", s)
	}

	return SpeedDetectBase + USBAnalyzerEvent(s), nil
}

// Speed returns the speed carried by a capture start or speed detect code.
func (e USBAnalyzerEvent) Speed() (Speed, bool) {
	switch {
	case e >= CaptureStartBase && e <= CaptureStartAuto:
		return Speed(e - CaptureStartBase), true
	case e >= SpeedDetectBase && e <= SpeedDetectLow:
		return Speed(e - SpeedDetectBase), true
	default:
		return 0, false
	}
}
