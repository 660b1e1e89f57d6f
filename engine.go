// Package omnimedia defines the boundary between the media orchestration
// layer and the engines that actually play media.
package omnimedia

import (
	"context"
	"net/url"
	"time"

	"github.com/ericyan/omnimedia/event"
)

// Engine is a media engine, for example a desktop player reached over
// D-Bus. Every method may be called from the orchestration layer only once
// the engine has emitted a can-play event; the ctx carries the request
// that caused the call (see event.FromContext) and events emitted as a
// consequence should use it as their trigger.
type Engine interface {
	MediaLoader
	PlaybackController
	VolumeController

	// Attach starts delivering engine events to emit. Emit may be called
	// from any goroutine.
	Attach(emit func(*event.Event)) error
	// Detach stops event delivery and releases the engine.
	Detach() error
}

// MediaMetadata describes a media artefact.
type MediaMetadata interface {
	Title() string
	Subtitle() string
	ImageURL() *url.URL
}

// MediaLoader loads the media for playback.
type MediaLoader interface {
	Load(ctx context.Context, media *url.URL, metadata MediaMetadata) error
}

// PlaybackController provides methods for controlling media playback.
type PlaybackController interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SetCurrentTime(ctx context.Context, pos time.Duration) error
	SetPlaybackRate(ctx context.Context, rate float64) error
	SetFullscreen(ctx context.Context, fullscreen bool) error
}

// VolumeController provides methods for adjusting volume settings.
type VolumeController interface {
	SetVolume(ctx context.Context, level float64) error
	SetMuted(ctx context.Context, muted bool) error
}
