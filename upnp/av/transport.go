package av

import (
	"net/url"
	"strconv"
	"time"

	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/upnp"
	"github.com/ericyan/omnimedia/upnp/internal/soap"
	"github.com/ericyan/omnimedia/upnp/internal/types"
)

// Action-specific errors defined in AVTransport:1 service spec.
var (
	ErrTransitionNotAvailable = &soap.Error{Code: 701, Description: "Transition not available"}
	ErrNoContents             = &soap.Error{Code: 702, Description: "No contents"}
	ErrPlaySpeedNotSupported  = &soap.Error{Code: 717, Description: "Play speed not supported"}
	ErrSeekModeNotSupported   = &soap.Error{Code: 710, Description: "Seek mode not supported"}
	ErrIllegalSeekTarget      = &soap.Error{Code: 711, Description: "Illegal seek target"}
	ErrInvalidInstanceID      = &soap.Error{Code: 718, Description: "Invalid InstanceID"}
)

// Transport states.
const (
	Stopped        = "STOPPED"
	Playing        = "PLAYING"
	Transitioning  = "TRANSITIONING"
	PausedPlayback = "PAUSED_PLAYBACK"
	NoMediaPresent = "NO_MEDIA_PRESENT"
)

// TransportState maps a media snapshot to an AVTransport state.
func TransportState(s media.Snapshot) string {
	switch {
	case s.Source == nil:
		return NoMediaPresent
	case s.Waiting || s.Seeking:
		return Transitioning
	case !s.Paused:
		return Playing
	case s.Ended || s.CurrentTime == 0:
		return Stopped
	default:
		return PausedPlayback
	}
}

var transportStateVariables = []upnp.StateVariable{
	{Name: "TransportState", DataType: "string", AllowedValues: []string{Stopped, Playing, Transitioning, PausedPlayback, NoMediaPresent}},
	{Name: "TransportStatus", DataType: "string", AllowedValues: []string{"OK", "ERROR_OCCURRED"}},
	{Name: "PlaybackStorageMedium", DataType: "string", AllowedValues: []string{"NETWORK", "NONE"}},
	{Name: "RecordStorageMedium", DataType: "string", AllowedValues: []string{"NOT_IMPLEMENTED"}},
	{Name: "PossiblePlaybackStorageMedia", DataType: "string"},
	{Name: "PossibleRecordStorageMedia", DataType: "string"},
	{Name: "CurrentPlayMode", DataType: "string", AllowedValues: []string{"NORMAL"}},
	{Name: "TransportPlaySpeed", DataType: "string", AllowedValues: []string{"1"}},
	{Name: "RecordMediumWriteStatus", DataType: "string", AllowedValues: []string{"NOT_IMPLEMENTED"}},
	{Name: "CurrentRecordQualityMode", DataType: "string", AllowedValues: []string{"NOT_IMPLEMENTED"}},
	{Name: "PossibleRecordQualityModes", DataType: "string"},
	{Name: "NumberOfTracks", DataType: "ui4"},
	{Name: "CurrentTrack", DataType: "ui4"},
	{Name: "CurrentTrackDuration", DataType: "string"},
	{Name: "CurrentMediaDuration", DataType: "string"},
	{Name: "CurrentTrackMetaData", DataType: "string"},
	{Name: "CurrentTrackURI", DataType: "string"},
	{Name: "AVTransportURI", DataType: "string"},
	{Name: "AVTransportURIMetaData", DataType: "string"},
	{Name: "NextAVTransportURI", DataType: "string"},
	{Name: "NextAVTransportURIMetaData", DataType: "string"},
	{Name: "RelativeTimePosition", DataType: "string"},
	{Name: "AbsoluteTimePosition", DataType: "string"},
	{Name: "RelativeCounterPosition", DataType: "i4"},
	{Name: "AbsoluteCounterPosition", DataType: "i4"},
	{Name: "CurrentTransportActions", DataType: "string"},
	{Name: "LastChange", DataType: "string", SendEvents: true},
	{Name: "A_ARG_TYPE_SeekMode", DataType: "string", AllowedValues: []string{"ABS_TIME", "REL_TIME"}},
	{Name: "A_ARG_TYPE_SeekTarget", DataType: "string"},
	{Name: "A_ARG_TYPE_InstanceID", DataType: "ui4"},
}

// AVTransport returns an AVTransport UPnP service for the consumer.
//
// Spec: http://upnp.org/specs/av/UPnP-av-AVTransport-v1-Service.pdf
func AVTransport(c *media.Consumer) *upnp.Service {
	svc := upnp.NewService("AVTransport", 1)
	svc.RegisterStateVariables(transportStateVariables...)

	instance := upnp.In("InstanceID", "A_ARG_TYPE_InstanceID")
	register := func(name string, h upnp.Handler, args ...upnp.Argument) {
		svc.RegisterAction(&upnp.Action{
			Name:    name,
			Args:    append([]upnp.Argument{instance}, args...),
			Handler: checkInstance(ErrInvalidInstanceID, h),
		})
	}

	register("SetAVTransportURI", func(req *soap.Request, resp *soap.Response) {
		u, err := url.Parse(req.Args["CurrentURI"])
		if err != nil || !u.IsAbs() {
			resp.Error = soap.ErrArgValueInvalid
			return
		}

		metadata := make(types.Metadata)
		if err := metadata.UnmarshalText([]byte(req.Args["CurrentURIMetaData"])); err != nil {
			log.WithError(err).Debug("av: ignoring malformed DIDL-Lite metadata")
		}

		request(c, req, resp, media.LoadRequest, event.WithDetail(media.Source{URL: u, Metadata: metadata}))
	},
		upnp.In("CurrentURI", "AVTransportURI"),
		upnp.In("CurrentURIMetaData", "AVTransportURIMetaData"),
	)

	register("GetMediaInfo", func(req *soap.Request, resp *soap.Response) {
		s := c.View().Snapshot()

		resp.Args["NrTracks"] = "0"
		resp.Args["MediaDuration"] = types.FormatDuration(0)
		resp.Args["CurrentURI"] = ""
		if s.Source != nil {
			resp.Args["NrTracks"] = "1"
			resp.Args["MediaDuration"] = types.FormatDuration(s.Duration)
			resp.Args["CurrentURI"] = s.Source.String()
		}

		resp.Args["CurrentURIMetaData"] = "NOT_IMPLEMENTED"
		resp.Args["NextURI"] = "NOT_IMPLEMENTED"
		resp.Args["NextURIMetaData"] = "NOT_IMPLEMENTED"
		resp.Args["PlayMedium"] = "NETWORK"
		resp.Args["RecordMedium"] = "NOT_IMPLEMENTED"
		resp.Args["WriteStatus"] = "NOT_IMPLEMENTED"
	},
		upnp.Out("NrTracks", "NumberOfTracks"),
		upnp.Out("MediaDuration", "CurrentMediaDuration"),
		upnp.Out("CurrentURI", "AVTransportURI"),
		upnp.Out("CurrentURIMetaData", "AVTransportURIMetaData"),
		upnp.Out("NextURI", "NextAVTransportURI"),
		upnp.Out("NextURIMetaData", "NextAVTransportURIMetaData"),
		upnp.Out("PlayMedium", "PlaybackStorageMedium"),
		upnp.Out("RecordMedium", "RecordStorageMedium"),
		upnp.Out("WriteStatus", "RecordMediumWriteStatus"),
	)

	register("GetTransportInfo", func(req *soap.Request, resp *soap.Response) {
		s := c.View().Snapshot()

		status := "OK"
		if s.Error != nil {
			status = "ERROR_OCCURRED"
		}

		resp.Args["CurrentTransportState"] = TransportState(s)
		resp.Args["CurrentTransportStatus"] = status
		resp.Args["CurrentSpeed"] = types.ParseFloat32(float32(s.PlaybackRate)).String()
	},
		upnp.Out("CurrentTransportState", "TransportState"),
		upnp.Out("CurrentTransportStatus", "TransportStatus"),
		upnp.Out("CurrentSpeed", "TransportPlaySpeed"),
	)

	register("GetPositionInfo", func(req *soap.Request, resp *soap.Response) {
		s := c.View().Snapshot()

		resp.Args["Track"] = "0"
		resp.Args["TrackURI"] = ""
		resp.Args["TrackDuration"] = types.FormatDuration(0)
		pos := s.CurrentTime
		if s.Source != nil {
			resp.Args["Track"] = "1"
			resp.Args["TrackURI"] = s.Source.String()
			resp.Args["TrackDuration"] = types.FormatDuration(s.Duration)
		} else {
			pos = 0
		}

		resp.Args["TrackMetaData"] = "NOT_IMPLEMENTED"
		resp.Args["RelTime"] = types.FormatDuration(pos)
		resp.Args["AbsTime"] = types.FormatDuration(pos)
		resp.Args["RelCount"] = strconv.Itoa(int(pos.Seconds()))
		resp.Args["AbsCount"] = strconv.Itoa(int(pos.Seconds()))
	},
		upnp.Out("Track", "CurrentTrack"),
		upnp.Out("TrackDuration", "CurrentTrackDuration"),
		upnp.Out("TrackMetaData", "CurrentTrackMetaData"),
		upnp.Out("TrackURI", "CurrentTrackURI"),
		upnp.Out("RelTime", "RelativeTimePosition"),
		upnp.Out("AbsTime", "AbsoluteTimePosition"),
		upnp.Out("RelCount", "RelativeCounterPosition"),
		upnp.Out("AbsCount", "AbsoluteCounterPosition"),
	)

	register("GetDeviceCapabilities", func(req *soap.Request, resp *soap.Response) {
		resp.Args["PlayMedia"] = "NETWORK"
		resp.Args["RecMedia"] = "NOT_IMPLEMENTED"
		resp.Args["RecQualityModes"] = "NOT_IMPLEMENTED"
	},
		upnp.Out("PlayMedia", "PossiblePlaybackStorageMedia"),
		upnp.Out("RecMedia", "PossibleRecordStorageMedia"),
		upnp.Out("RecQualityModes", "PossibleRecordQualityModes"),
	)

	register("GetTransportSettings", func(req *soap.Request, resp *soap.Response) {
		resp.Args["PlayMode"] = "NORMAL"
		resp.Args["RecQualityMode"] = "NOT_IMPLEMENTED"
	},
		upnp.Out("PlayMode", "CurrentPlayMode"),
		upnp.Out("RecQualityMode", "CurrentRecordQualityMode"),
	)

	register("GetCurrentTransportActions", func(req *soap.Request, resp *soap.Response) {
		actions := "Play,Stop,Pause,Seek"
		if c.View().Source.Get() == nil {
			actions = ""
		}

		resp.Args["Actions"] = actions
	},
		upnp.Out("Actions", "CurrentTransportActions"),
	)

	register("Play", func(req *soap.Request, resp *soap.Response) {
		if c.View().Source.Get() == nil {
			resp.Error = ErrNoContents
			return
		}

		speed, err := types.ParseRat(req.Args["Speed"])
		if err != nil || speed.Float64() <= 0 {
			resp.Error = ErrPlaySpeedNotSupported
			return
		}
		if rate := speed.Float64(); rate != c.View().PlaybackRate.Get() {
			if !request(c, req, resp, media.RateChangeRequest, event.WithDetail(rate)) {
				return
			}
		}

		request(c, req, resp, media.PlayRequest)
	},
		upnp.In("Speed", "TransportPlaySpeed"),
	)

	register("Pause", func(req *soap.Request, resp *soap.Response) {
		if TransportState(c.View().Snapshot()) == NoMediaPresent {
			resp.Error = ErrTransitionNotAvailable
			return
		}

		request(c, req, resp, media.PauseRequest)
	})

	register("Stop", func(req *soap.Request, resp *soap.Response) {
		if !request(c, req, resp, media.PauseRequest) {
			return
		}

		request(c, req, resp, media.SeekRequest, event.WithDetail(time.Duration(0)))
	})

	register("Seek", func(req *soap.Request, resp *soap.Response) {
		switch req.Args["Unit"] {
		case "ABS_TIME", "REL_TIME":
			pos, err := types.ParseDuration(req.Args["Target"])
			if err != nil {
				resp.Error = ErrIllegalSeekTarget
				return
			}
			if d := c.View().Duration.Get(); d > 0 && pos > d {
				resp.Error = ErrIllegalSeekTarget
				return
			}

			request(c, req, resp, media.SeekRequest, event.WithDetail(pos))
		default:
			resp.Error = ErrSeekModeNotSupported
		}
	},
		upnp.In("Unit", "A_ARG_TYPE_SeekMode"),
		upnp.In("Target", "A_ARG_TYPE_SeekTarget"),
	)

	return svc
}
