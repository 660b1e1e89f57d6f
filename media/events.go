package media

import (
	"net/url"

	"github.com/ericyan/omnimedia"
	"github.com/ericyan/omnimedia/queue"
)

// Discovery event types.
const (
	// ProviderConnectEvent is dispatched by providers looking for their
	// controller.
	ProviderConnectEvent = "media-provider-connect"
	// ControllerConnectEvent is dispatched by consumers looking for their
	// controller.
	ControllerConnectEvent = "media-controller-connect"
)

// Media events, emitted by engines and re-dispatched by providers.
const (
	CanPlayEvent          = "can-play"
	PlayEvent             = "play"
	PauseEvent            = "pause"
	PlayingEvent          = "playing"
	WaitingEvent          = "waiting"
	EndedEvent            = "ended"
	SeekingEvent          = "seeking"
	SeekedEvent           = "seeked"
	TimeUpdateEvent       = "time-update"
	DurationChangeEvent   = "duration-change"
	ProgressEvent         = "progress"
	VolumeChangeEvent     = "volume-change"
	RateChangeEvent       = "rate-change"
	FullscreenChangeEvent = "fullscreen-change"
	SourceChangeEvent     = "source-change"
	ErrorEvent            = "error"
	PlayFailEvent         = "play-fail"
	AutoplayEvent         = "autoplay"
	AutoplayFailEvent     = "autoplay-fail"
)

// Request events, dispatched by consumers.
const (
	PlayRequest            = "play-request"
	PauseRequest           = "pause-request"
	SeekRequest            = "seek-request"
	VolumeChangeRequest    = "volume-change-request"
	MuteRequest            = "mute-request"
	UnmuteRequest          = "unmute-request"
	RateChangeRequest      = "rate-change-request"
	EnterFullscreenRequest = "enter-fullscreen-request"
	ExitFullscreenRequest  = "exit-fullscreen-request"
	LoadRequest            = "load-request"
)

// Request keys. Requests changing the same piece of state share a key, so
// only the latest of them survives while they are buffered.
const (
	KeyPaused       queue.Key = "paused"
	KeyCurrentTime  queue.Key = "currentTime"
	KeyVolume       queue.Key = "volume"
	KeyMuted        queue.Key = "muted"
	KeyPlaybackRate queue.Key = "playbackRate"
	KeyFullscreen   queue.Key = "fullscreen"
	KeySource       queue.Key = "src"
)

var requestKeys = map[string]queue.Key{
	PlayRequest:            KeyPaused,
	PauseRequest:           KeyPaused,
	SeekRequest:            KeyCurrentTime,
	VolumeChangeRequest:    KeyVolume,
	MuteRequest:            KeyMuted,
	UnmuteRequest:          KeyMuted,
	RateChangeRequest:      KeyPlaybackRate,
	EnterFullscreenRequest: KeyFullscreen,
	ExitFullscreenRequest:  KeyFullscreen,
	LoadRequest:            KeySource,
}

// RequestKey returns the queue key of a request event type.
func RequestKey(requestType string) (queue.Key, bool) {
	key, ok := requestKeys[requestType]
	return key, ok
}

// RequestTypes returns every request event type.
func RequestTypes() []string {
	return []string{
		PlayRequest, PauseRequest, SeekRequest, VolumeChangeRequest,
		MuteRequest, UnmuteRequest, RateChangeRequest,
		EnterFullscreenRequest, ExitFullscreenRequest, LoadRequest,
	}
}

// VolumeChange is the detail of volume-change events.
type VolumeChange struct {
	Volume float64
	Muted  bool
}

// Source is the detail of source-change events and load requests.
type Source struct {
	URL      *url.URL
	Metadata omnimedia.MediaMetadata
}

// Failure is the detail of play-fail and autoplay-fail events.
type Failure struct {
	Key queue.Key
	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return "media: " + string(f.Key) + ": " + f.Err.Error()
}

// Unwrap returns the engine error.
func (f *Failure) Unwrap() error {
	return f.Err
}
