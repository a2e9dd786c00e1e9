package remote

import (
	"fmt"
	"net"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"
)

// Feedback pushes state replies to a controller over OSC. Sends are
// best effort: failures are logged and dropped, never surfaced to the
// transport.
type Feedback struct {
	client *osc.Client
}

// NewFeedback targets a controller at addr ("host:port").
func NewFeedback(addr string) (*Feedback, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("osc feedback: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("osc feedback: bad port %q", portStr)
	}
	return &Feedback{client: osc.NewClient(host, port)}, nil
}

func (f *Feedback) send(msg *osc.Message) {
	if err := f.client.Send(msg); err != nil {
		log.Debugf("OSC feedback %s: %v", msg.Address, err)
	}
}

// StandBy announces the playhead cue id, empty when unset.
func (f *Feedback) StandBy(id string) {
	msg := osc.NewMessage(ReplyStandBy)
	msg.Append(id)
	f.send(msg)
}

// Playback pings that the set of active cues changed. Controllers
// re-query whatever they display.
func (f *Feedback) Playback() {
	f.send(osc.NewMessage(ReplyPlayback))
}

// CueStatus announces one cue's status string on its per-cue address.
func (f *Feedback) CueStatus(number, status string) {
	msg := osc.NewMessage(CueStatusAddress(number))
	msg.Append(status)
	f.send(msg)
}
