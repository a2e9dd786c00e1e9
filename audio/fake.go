package audio

import "sync"

// FakePlayer records the state of one player created on the Fake engine.
type FakePlayer struct {
	Path     string
	Playing  bool
	Paused   bool
	Volume   float64
	Position float64
	Stopped  bool
	finished func()
}

// Fake is a scriptable in-memory Engine for tests. Playback never ends on
// its own; tests drive completion with Finish.
type Fake struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*FakePlayer

	// CreateErr and PlayErr, when set, fail the corresponding calls.
	CreateErr error
	PlayErr   error

	// Durations maps file paths to reported durations. Paths not present
	// report DefaultDuration.
	Durations       map[string]float64
	DefaultDuration float64
}

// NewFake creates a fake engine with a 3-second default duration.
func NewFake() *Fake {
	return &Fake{
		nextID:          1,
		players:         make(map[int]*FakePlayer),
		Durations:       make(map[string]float64),
		DefaultDuration: 3.0,
	}
}

func (f *Fake) CreatePlayer(path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return -1, f.CreateErr
	}
	id := f.nextID
	f.nextID++
	f.players[id] = &FakePlayer{Path: path, Volume: 1}
	return id, nil
}

func (f *Fake) Play(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayErr != nil {
		return f.PlayErr
	}
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Playing = true
	p.Stopped = false
	return nil
}

func (f *Fake) Stop(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Playing = false
	p.Paused = false
	p.Stopped = true
	return nil
}

func (f *Fake) Pause(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Playing {
		p.Paused = true
	}
	return nil
}

func (f *Fake) Resume(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Paused = false
	return nil
}

func (f *Fake) SetVolume(id int, volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Volume = volume
	return nil
}

func (f *Fake) SetPosition(id int, seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.Position = seconds
	return nil
}

func (f *Fake) Duration(id int) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return 0, ErrUnknownPlayer
	}
	if d, ok := f.Durations[p.Path]; ok {
		return d, nil
	}
	return f.DefaultDuration, nil
}

func (f *Fake) OnFinished(id int, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.finished = fn
	return nil
}

func (f *Fake) RemovePlayer(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.players, id)
}

// Finish simulates natural end of playback for a playing player.
func (f *Fake) Finish(id int) {
	f.mu.Lock()
	p, ok := f.players[id]
	if !ok || !p.Playing || p.Stopped {
		f.mu.Unlock()
		return
	}
	p.Playing = false
	fn := p.finished
	f.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Player returns the player state for inspection, or nil.
func (f *Fake) Player(id int) *FakePlayer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.players[id]
}

// PlayerCount returns the number of live players.
func (f *Fake) PlayerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.players)
}
