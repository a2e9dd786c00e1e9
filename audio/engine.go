// Package audio provides the media playback backend for audio cues. The
// engine contract is deliberately narrow: players are created per file,
// addressed by id, and report completion through a callback.
package audio

import "errors"

var (
	// ErrUnknownPlayer is returned for operations on an id that does not
	// name a live player.
	ErrUnknownPlayer = errors.New("audio: unknown player id")

	// ErrNotInitialized is returned when the engine has not been started.
	ErrNotInitialized = errors.New("audio: engine not initialized")
)

// Engine is the playback contract consumed by audio cues.
//
// CreatePlayer loads a media file and returns a player id; every other
// call addresses that id. Completion of normal playback is delivered via
// the OnFinished callback; a Stop or RemovePlayer suppresses it.
type Engine interface {
	CreatePlayer(path string) (int, error)
	Play(id int) error
	Stop(id int) error
	Pause(id int) error
	Resume(id int) error
	SetVolume(id int, volume float64) error
	SetPosition(id int, seconds float64) error
	Duration(id int) (float64, error)
	OnFinished(id int, fn func()) error
	RemovePlayer(id int)
}
