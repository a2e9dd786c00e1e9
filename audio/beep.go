package audio

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/spf13/afero"
)

type beepPlayer struct {
	path     string
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	finished func()
	playing  bool
	stopped  bool
}

// BeepEngine is the production Engine backed by faiface/beep. One speaker
// mixer is shared by all players; per-file sample rates are resampled to
// the engine rate.
type BeepEngine struct {
	mu          sync.Mutex
	fs          afero.Fs
	sampleRate  beep.SampleRate
	initialized bool
	players     map[int]*beepPlayer
	nextID      int
}

// NewBeepEngine creates an engine reading media through fs. A nil fs means
// the OS filesystem.
func NewBeepEngine(fs afero.Fs) *BeepEngine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &BeepEngine{
		fs:      fs,
		players: make(map[int]*beepPlayer),
		nextID:  1,
	}
}

// Init opens the speaker at the given sample rate with a ~100ms buffer.
func (e *BeepEngine) Init(sampleRate int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return fmt.Errorf("audio: speaker init: %w", err)
	}
	e.sampleRate = sr
	e.initialized = true
	log.Debugf("audio engine initialized at %d Hz", sampleRate)
	return nil
}

// Initialized reports whether the speaker has been opened.
func (e *BeepEngine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *BeepEngine) CreatePlayer(path string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return -1, ErrNotInitialized
	}

	f, err := e.fs.Open(path)
	if err != nil {
		return -1, fmt.Errorf("audio: open %s: %w", path, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return -1, fmt.Errorf("audio: unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return -1, fmt.Errorf("audio: decode %s: %w", path, err)
	}

	id := e.nextID
	e.nextID++
	e.players[id] = &beepPlayer{
		path:     path,
		streamer: streamer,
		format:   format,
	}
	log.Debugf("audio player %d created for %s", id, path)
	return id, nil
}

func (e *BeepEngine) Play(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.playing {
		return nil
	}

	var src beep.Streamer = p.streamer
	if p.format.SampleRate != e.sampleRate {
		src = beep.Resample(4, p.format.SampleRate, e.sampleRate, p.streamer)
	}
	p.ctrl = &beep.Ctrl{Streamer: src}
	if p.volume == nil {
		p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	} else {
		p.volume.Streamer = p.ctrl
	}
	p.playing = true
	p.stopped = false

	done := beep.Callback(func() {
		e.playbackDone(id)
	})
	speaker.Play(beep.Seq(p.volume, done))
	return nil
}

func (e *BeepEngine) playbackDone(id int) {
	e.mu.Lock()
	p, ok := e.players[id]
	if !ok || p.stopped || !p.playing {
		e.mu.Unlock()
		return
	}
	p.playing = false
	fn := p.finished
	e.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (e *BeepEngine) Stop(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if !p.playing {
		return nil
	}
	// Marking stopped first keeps the seq callback from reporting a
	// finish for a cancelled playback.
	p.stopped = true
	p.playing = false
	speaker.Lock()
	if p.ctrl != nil {
		p.ctrl.Streamer = nil
	}
	speaker.Unlock()
	return nil
}

func (e *BeepEngine) Pause(id int) error {
	return e.setPaused(id, true)
}

func (e *BeepEngine) Resume(id int) error {
	return e.setPaused(id, false)
}

func (e *BeepEngine) setPaused(id int, paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.ctrl == nil {
		return nil
	}
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

// SetVolume maps linear volume in [0, 1] onto the mixer's exponential gain.
func (e *BeepEngine) SetVolume(id int, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	if p.volume == nil {
		p.volume = &effects.Volume{Streamer: p.streamer, Base: 2}
	}
	speaker.Lock()
	p.volume.Silent = volume == 0
	if volume > 0 {
		p.volume.Volume = math.Log2(volume)
	}
	speaker.Unlock()
	return nil
}

func (e *BeepEngine) SetPosition(id int, seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	n := p.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if max := p.streamer.Len(); n > max {
		n = max
	}
	speaker.Lock()
	err := p.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("audio: seek player %d: %w", id, err)
	}
	return nil
}

func (e *BeepEngine) Duration(id int) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return 0, ErrUnknownPlayer
	}
	return p.format.SampleRate.D(p.streamer.Len()).Seconds(), nil
}

func (e *BeepEngine) OnFinished(id int, fn func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	p.finished = fn
	return nil
}

func (e *BeepEngine) RemovePlayer(id int) {
	e.mu.Lock()
	p, ok := e.players[id]
	if ok {
		delete(e.players, id)
	}
	e.mu.Unlock()
	if !ok {
		return
	}

	p.stopped = true
	speaker.Lock()
	if p.ctrl != nil {
		p.ctrl.Streamer = nil
	}
	speaker.Unlock()
	if err := p.streamer.Close(); err != nil {
		log.Warnf("audio: close player %d: %v", id, err)
	}
}
