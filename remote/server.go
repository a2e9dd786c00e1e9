package remote

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/show"
	"github.com/hypebeast/go-osc/osc"
)

// Server maps incoming OSC messages onto the manager transport. One
// server per show; messages are dispatched on the OSC read loop and
// enter the manager through its own mutex.
type Server struct {
	manager  *show.Manager
	addr     string
	feedback *Feedback

	mu      sync.Mutex
	server  *osc.Server
	running bool
}

func NewServer(addr string, manager *show.Manager) *Server {
	return &Server{
		manager: manager,
		addr:    addr,
	}
}

// SetFeedback attaches a reply target for per-cue status messages.
func (s *Server) SetFeedback(f *Feedback) {
	s.feedback = f
}

func (s *Server) sendCueStatus(number, status string) {
	if s.feedback != nil {
		s.feedback.CueStatus(number, status)
	}
}

// Start binds the UDP socket and serves until Stop. Returns once the
// listener goroutine is launched.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("osc server already running")
	}

	d := osc.NewStandardDispatcher()
	if err := s.register(d); err != nil {
		return fmt.Errorf("osc dispatcher: %w", err)
	}

	s.server = &osc.Server{
		Addr:       s.addr,
		Dispatcher: d,
	}
	s.running = true

	go func() {
		log.Infof("OSC listening on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil &&
			!strings.Contains(err.Error(), "use of closed network connection") {
			log.Errorf("OSC server: %v", err)
		}
	}()
	return nil
}

// Stop closes the socket.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	return s.server.CloseConnection()
}

func (s *Server) register(d *osc.StandardDispatcher) error {
	handlers := map[string]func(*osc.Message){
		AddrGo:       s.handleGo,
		AddrStop:     s.handleStop,
		AddrPause:    s.handlePause,
		AddrPanic:    s.handlePanic,
		AddrNext:     s.handleNext,
		AddrPrevious: s.handlePrevious,
		AddrStandBy:  s.handleStandBy,
		AddrCueStart: s.handleCueStart,
		AddrCueStop:  s.handleCueStop,
		AddrSave:     s.handleSave,
	}
	for addr, fn := range handlers {
		if err := d.AddMsgHandler(addr, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleGo(msg *osc.Message) {
	log.Debugf("OSC %s", msg.Address)
	s.manager.Go()
}

func (s *Server) handleStop(msg *osc.Message) {
	fade := floatArg(msg, 0, 0)
	log.Debugf("OSC %s fade=%.2f", msg.Address, fade)
	s.manager.StopAll(fade)
}

func (s *Server) handlePause(msg *osc.Message) {
	log.Debugf("OSC %s", msg.Address)
	s.manager.TogglePause()
}

func (s *Server) handlePanic(msg *osc.Message) {
	log.Warnf("OSC %s", msg.Address)
	s.manager.Panic()
}

func (s *Server) handleNext(msg *osc.Message) {
	s.manager.NextCue()
}

func (s *Server) handlePrevious(msg *osc.Message) {
	s.manager.PreviousCue()
}

func (s *Server) handleStandBy(msg *osc.Message) {
	number, ok := stringArg(msg, 0)
	if !ok {
		log.Warnf("OSC %s: missing cue number", msg.Address)
		return
	}
	c := s.manager.CueByNumber(number)
	if c == nil {
		log.Warnf("OSC %s: no cue numbered %s", msg.Address, number)
		return
	}
	s.manager.SetStandBy(c.ID())
}

func (s *Server) handleCueStart(msg *osc.Message) {
	number, ok := stringArg(msg, 0)
	if !ok {
		log.Warnf("OSC %s: missing cue number", msg.Address)
		return
	}
	c := s.manager.CueByNumber(number)
	if c == nil {
		log.Warnf("OSC %s: no cue numbered %s", msg.Address, number)
		return
	}
	if s.manager.SetStandBy(c.ID()) {
		s.manager.Go()
	}
	s.sendCueStatus(number, c.Status().String())
}

func (s *Server) handleCueStop(msg *osc.Message) {
	number, ok := stringArg(msg, 0)
	if !ok {
		return
	}
	c := s.manager.CueByNumber(number)
	if c == nil {
		return
	}
	s.manager.StopCue(c.ID(), floatArg(msg, 1, 0))
	s.sendCueStatus(number, c.Status().String())
}

func (s *Server) handleSave(msg *osc.Message) {
	path, _ := stringArg(msg, 0)
	if err := s.manager.SaveWorkspace(path); err != nil {
		log.Errorf("OSC save: %v", err)
	}
}

// stringArg coerces an argument to a string; controllers send cue
// numbers as strings or int32s depending on the surface.
func stringArg(msg *osc.Message, index int) (string, bool) {
	if index >= len(msg.Arguments) {
		return "", false
	}
	switch v := msg.Arguments[index].(type) {
	case string:
		return v, true
	case int32:
		return fmt.Sprintf("%d", v), true
	case int64:
		return fmt.Sprintf("%d", v), true
	case float32:
		return fmt.Sprintf("%g", v), true
	default:
		return "", false
	}
}

func floatArg(msg *osc.Message, index int, fallback float64) float64 {
	if index >= len(msg.Arguments) {
		return fallback
	}
	switch v := msg.Arguments[index].(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
