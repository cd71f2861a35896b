package models

import "time"

// ChangeReason names the mutation that produced a ChangeEvent.
type ChangeReason string

const (
	ChangeReasonAdd       ChangeReason = "add"
	ChangeReasonClear     ChangeReason = "clear"
	ChangeReasonCDNFilter ChangeReason = "cdn_filter"
	ChangeReasonRestore   ChangeReason = "restore"
)

// ChangeEvent is published after the collected set changes. URLs is the full
// sorted set at publish time; Added lists URLs inserted since the previous
// delivered event.
type ChangeEvent struct {
	URLs      []string
	Count     int
	Added     []string
	Reason    ChangeReason
	Timestamp time.Time
}
