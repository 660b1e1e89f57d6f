package av

import (
	"math"
	"strconv"

	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/upnp"
	"github.com/ericyan/omnimedia/upnp/internal/soap"
)

// ErrInvalidInstanceIDRC is the RenderingControl:1 invalid instance error.
var ErrInvalidInstanceIDRC = &soap.Error{Code: 702, Description: "Invalid InstanceID"}

var controlStateVariables = []upnp.StateVariable{
	{Name: "LastChange", DataType: "string", SendEvents: true},
	{Name: "Mute", DataType: "boolean"},
	{Name: "Volume", DataType: "ui2"},
	{Name: "A_ARG_TYPE_Channel", DataType: "string", AllowedValues: []string{"Master"}},
	{Name: "A_ARG_TYPE_InstanceID", DataType: "ui4"},
}

// RenderingControl returns a RenderingControl UPnP service for the
// consumer. Volumes are in the range 0 to 100.
//
// Spec: http://upnp.org/specs/av/UPnP-av-RenderingControl-v1-Service.pdf
func RenderingControl(c *media.Consumer) *upnp.Service {
	svc := upnp.NewService("RenderingControl", 1)
	svc.RegisterStateVariables(controlStateVariables...)

	args := []upnp.Argument{
		upnp.In("InstanceID", "A_ARG_TYPE_InstanceID"),
		upnp.In("Channel", "A_ARG_TYPE_Channel"),
	}
	register := func(name string, h upnp.Handler, arg upnp.Argument) {
		svc.RegisterAction(&upnp.Action{
			Name: name,
			Args: append(append([]upnp.Argument(nil), args...), arg),
			Handler: checkInstance(ErrInvalidInstanceIDRC, func(req *soap.Request, resp *soap.Response) {
				if req.Args["Channel"] != "Master" {
					resp.Error = soap.ErrInvalidArgs
					return
				}

				h(req, resp)
			}),
		})
	}

	register("GetVolume", func(req *soap.Request, resp *soap.Response) {
		vol := int(math.Round(c.View().Volume.Get() * 100))
		resp.Args["CurrentVolume"] = strconv.Itoa(vol)
	}, upnp.Out("CurrentVolume", "Volume"))

	register("SetVolume", func(req *soap.Request, resp *soap.Response) {
		vol, err := strconv.Atoi(req.Args["DesiredVolume"])
		if err != nil {
			resp.Error = soap.ErrArgValueInvalid
			return
		}
		if vol < 0 || vol > 100 {
			resp.Error = soap.ErrArgValueOutOfRange
			return
		}

		request(c, req, resp, media.VolumeChangeRequest, event.WithDetail(float64(vol)/100.0))
	}, upnp.In("DesiredVolume", "Volume"))

	register("GetMute", func(req *soap.Request, resp *soap.Response) {
		mute := "0"
		if c.View().Muted.Get() {
			mute = "1"
		}

		resp.Args["CurrentMute"] = mute
	}, upnp.Out("CurrentMute", "Mute"))

	register("SetMute", func(req *soap.Request, resp *soap.Response) {
		mute, err := strconv.ParseBool(req.Args["DesiredMute"])
		if err != nil {
			resp.Error = soap.ErrArgValueInvalid
			return
		}

		requestType := media.UnmuteRequest
		if mute {
			requestType = media.MuteRequest
		}

		request(c, req, resp, requestType)
	}, upnp.In("DesiredMute", "Mute"))

	return svc
}
