package models

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a video.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusUploading, StatusProcessing, StatusReady, StatusFailed}

var transitions = map[Status][]Status{
	StatusUploading:  {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusReady, StatusFailed},
	StatusFailed:     {StatusProcessing},
	StatusReady:      nil,
}

// ParseStatus normalises and validates a status label.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a video in status s may move to next.
// Re-asserting the current status is always allowed.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Predecessors returns the statuses from which next is reachable, including next itself.
func Predecessors(next Status) []Status {
	var from []Status
	for _, s := range Statuses {
		if s.CanTransition(next) {
			from = append(from, s)
		}
	}
	return from
}
