package cue

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cueforge/cueforge/health"
	"github.com/spf13/afero"
)

// AudioCue plays a media file through the bound audio engine. The engine
// player lives only for the span of one execution.
type AudioCue struct {
	Base

	filePath      string
	volume        float64
	pan           float64
	rate          float64
	startTime     float64
	endTime       float64
	matrixRouting map[string]float64
	outputPatch   string

	playerID int
}

func NewAudioCue() *AudioCue {
	c := &AudioCue{
		Base:     newBase(TypeAudio),
		volume:   0.8,
		rate:     1.0,
		playerID: -1,
	}
	c.name = "Audio"
	c.color = "#64ff96"
	return c
}

func (c *AudioCue) FilePath() string { return c.filePath }

// SetFilePath points the cue at a media file. An empty cue name picks up
// the file's base name.
func (c *AudioCue) SetFilePath(path string) {
	if c.filePath == path {
		return
	}
	c.filePath = path
	c.touch()
	if c.name == "" || c.name == "Audio" {
		base := filepath.Base(path)
		c.name = strings.TrimSuffix(base, filepath.Ext(base))
	}
}

func (c *AudioCue) Volume() float64 { return c.volume }

// SetVolume clamps to [0, 1] and updates a live player.
func (c *AudioCue) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	if c.volume == volume {
		return
	}
	c.volume = volume
	c.touch()
	if eng := c.env.audio(); eng != nil && c.playerID >= 0 {
		if err := eng.SetVolume(c.playerID, volume); err != nil {
			log.Warnf("audio cue %s: set volume: %v", c.number, err)
		}
	}
}

func (c *AudioCue) Pan() float64 { return c.pan }

// SetPan clamps to [-1, 1].
func (c *AudioCue) SetPan(pan float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	if c.pan != pan {
		c.pan = pan
		c.touch()
	}
}

func (c *AudioCue) Rate() float64 { return c.rate }

// SetRate clamps to [0.5, 2].
func (c *AudioCue) SetRate(rate float64) {
	if rate < 0.5 {
		rate = 0.5
	} else if rate > 2 {
		rate = 2
	}
	if c.rate != rate {
		c.rate = rate
		c.validateTrimPoints()
		c.touch()
	}
}

func (c *AudioCue) StartTime() float64 { return c.startTime }

func (c *AudioCue) SetStartTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if c.startTime != seconds {
		c.startTime = seconds
		c.validateTrimPoints()
		c.touch()
	}
}

func (c *AudioCue) EndTime() float64 { return c.endTime }

func (c *AudioCue) SetEndTime(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if c.endTime != seconds {
		c.endTime = seconds
		c.validateTrimPoints()
		c.touch()
	}
}

func (c *AudioCue) validateTrimPoints() {
	if c.startTime >= c.endTime && c.endTime > 0 {
		c.startTime = c.endTime - 0.1
		if c.startTime < 0 {
			c.startTime = 0
		}
	}
}

// EffectiveDuration is the trimmed play length adjusted for rate.
func (c *AudioCue) EffectiveDuration() float64 {
	if c.endTime > c.startTime {
		return (c.endTime - c.startTime) / c.rate
	}
	return c.duration / c.rate
}

// SetRoutingLevel sets one matrix crosspoint in dB. Levels at or below
// -96 dB clear the crosspoint.
func (c *AudioCue) SetRoutingLevel(input, output int, levelDb float64) {
	key := routingKey(input, output)
	if levelDb <= -96.0 {
		delete(c.matrixRouting, key)
	} else {
		if c.matrixRouting == nil {
			c.matrixRouting = make(map[string]float64)
		}
		c.matrixRouting[key] = levelDb
	}
	c.touch()
}

// RoutingLevel returns the crosspoint level, or -96 dB when unrouted.
func (c *AudioCue) RoutingLevel(input, output int) float64 {
	if level, ok := c.matrixRouting[routingKey(input, output)]; ok {
		return level
	}
	return -96.0
}

func routingKey(input, output int) string {
	return fmt.Sprintf("%d_%d", input, output)
}

func (c *AudioCue) OutputPatch() string { return c.outputPatch }

func (c *AudioCue) SetOutputPatch(patch string) {
	if c.outputPatch != patch {
		c.outputPatch = patch
		c.touch()
	}
}

func (c *AudioCue) fileExists() bool {
	if c.filePath == "" {
		return false
	}
	ok, err := afero.Exists(c.env.files(), c.filePath)
	return err == nil && ok
}

func (c *AudioCue) CanExecute() bool {
	return c.Base.CanExecute() && c.fileExists()
}

func (c *AudioCue) Validate() bool {
	c.setBroken(!c.fileExists())
	if !c.broken && c.status == StatusBroken {
		c.status = StatusLoaded
	}
	return !c.broken
}

func (c *AudioCue) ValidationError() string {
	if c.filePath == "" {
		return "No audio file assigned"
	}
	if !c.fileExists() {
		return "Audio file not found: " + c.filePath
	}
	return ""
}

func (c *AudioCue) Execute() bool {
	if !c.CanExecute() {
		log.Warnf("audio cue %s: cannot execute", c.number)
		return false
	}
	engine := c.env.audio()
	if engine == nil {
		c.env.report(health.Error, "No audio engine connected", "AudioCue "+c.number)
		return false
	}

	if c.playerID >= 0 {
		engine.RemovePlayer(c.playerID)
		c.playerID = -1
	}

	id, err := engine.CreatePlayer(c.filePath)
	if err != nil {
		c.env.report(health.Error,
			fmt.Sprintf("Failed to load %s: %v", c.filePath, err), "AudioCue "+c.number)
		return false
	}
	c.playerID = id

	if d, err := engine.Duration(id); err == nil && d > 0 {
		c.SetDuration(d)
	}

	if err := engine.SetVolume(id, c.volume); err != nil {
		log.Warnf("audio cue %s: set volume: %v", c.number, err)
	}
	if c.startTime > 0 {
		if err := engine.SetPosition(id, c.startTime); err != nil {
			log.Warnf("audio cue %s: set position: %v", c.number, err)
		}
	}

	seq := c.nextRun()
	if err := engine.OnFinished(id, func() {
		c.env.post(func() { c.playbackFinished(seq) })
	}); err != nil {
		log.Warnf("audio cue %s: finished hook: %v", c.number, err)
	}

	if err := engine.Play(id); err != nil {
		c.env.report(health.Error,
			fmt.Sprintf("Failed to start playback: %v", err), "AudioCue "+c.number)
		engine.RemovePlayer(id)
		c.playerID = -1
		return false
	}

	c.SetStatus(StatusRunning)
	log.Debugf("audio cue %s playing %s", c.number, c.filePath)
	return true
}

func (c *AudioCue) playbackFinished(seq uint64) {
	if !c.runValid(seq) || c.status != StatusRunning {
		return
	}
	if eng := c.env.audio(); eng != nil && c.playerID >= 0 {
		eng.RemovePlayer(c.playerID)
	}
	c.playerID = -1
	c.SetStatus(StatusFinished)
	c.signalFinished()
}

func (c *AudioCue) Stop(fadeTime float64) {
	c.invalidateRun()
	if eng := c.env.audio(); eng != nil && c.playerID >= 0 {
		if fadeTime > 0 {
			log.Debugf("audio cue %s: stop requested with %.2fs fade", c.number, fadeTime)
		}
		if err := eng.Stop(c.playerID); err != nil {
			log.Warnf("audio cue %s: stop: %v", c.number, err)
		}
		eng.RemovePlayer(c.playerID)
		c.playerID = -1
	}
	if c.status != StatusLoaded && c.status != StatusBroken {
		c.SetStatus(StatusLoaded)
	}
}

func (c *AudioCue) Pause() {
	if c.status != StatusRunning {
		return
	}
	if eng := c.env.audio(); eng != nil && c.playerID >= 0 {
		if err := eng.Pause(c.playerID); err != nil {
			log.Warnf("audio cue %s: pause: %v", c.number, err)
		}
	}
	c.SetStatus(StatusPaused)
}

func (c *AudioCue) Resume() {
	if c.status != StatusPaused {
		return
	}
	if eng := c.env.audio(); eng != nil && c.playerID >= 0 {
		if err := eng.Resume(c.playerID); err != nil {
			log.Warnf("audio cue %s: resume: %v", c.number, err)
		}
	}
	c.SetStatus(StatusRunning)
}

func (c *AudioCue) Clone() Cue {
	clone := &AudioCue{
		Base:        c.cloneBase(),
		filePath:    c.filePath,
		volume:      c.volume,
		pan:         c.pan,
		rate:        c.rate,
		startTime:   c.startTime,
		endTime:     c.endTime,
		outputPatch: c.outputPatch,
		playerID:    -1,
	}
	if len(c.matrixRouting) > 0 {
		clone.matrixRouting = make(map[string]float64, len(c.matrixRouting))
		for k, v := range c.matrixRouting {
			clone.matrixRouting[k] = v
		}
	}
	return clone
}

func (c *AudioCue) Document() Document {
	doc := c.baseDocument()
	doc.FilePath = c.filePath
	doc.Volume = floatPtr(c.volume)
	doc.Pan = c.pan
	doc.Rate = c.rate
	doc.StartTime = c.startTime
	doc.EndTime = c.endTime
	doc.AudioOutputPatch = c.outputPatch
	if len(c.matrixRouting) > 0 {
		routing := make(map[string]float64, len(c.matrixRouting))
		for k, v := range c.matrixRouting {
			routing[k] = v
		}
		doc.MatrixRouting = routing
	}
	return doc
}
