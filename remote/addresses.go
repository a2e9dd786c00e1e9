// Package remote exposes the manager transport over OSC, the lingua
// franca of show-control surfaces.
package remote

import "fmt"

// OSC address space. Transport addresses take no arguments unless
// noted; cue addresses take the cue number as the first argument
// (string or int32).
const (
	// Transport
	AddrGo       = "/cueforge/go"
	AddrStop     = "/cueforge/stop" // optional float32 fade time
	AddrPause    = "/cueforge/pause"
	AddrPanic    = "/cueforge/panic"
	AddrNext     = "/cueforge/next"
	AddrPrevious = "/cueforge/previous"

	// Playhead
	AddrStandBy = "/cueforge/standby" // cue number

	// Per-cue operations
	AddrCueStart = "/cueforge/cue/start" // cue number
	AddrCueStop  = "/cueforge/cue/stop"  // cue number, optional float32 fade

	// Workspace
	AddrSave = "/cueforge/save" // optional path string
)

// Status reply addresses, sent to the configured feedback target.
// ReplyStandBy carries the standby cue id; ReplyPlayback is an empty
// ping meaning the active set changed.
const (
	ReplyStandBy  = "/cueforge/reply/standby"
	ReplyPlayback = "/cueforge/reply/playback"
)

// CueStatusAddress is the per-cue status broadcast address.
func CueStatusAddress(number string) string {
	return fmt.Sprintf("/cueforge/cue/%s/status", number)
}
