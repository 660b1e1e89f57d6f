// Package av implements the UPnP AV MediaRenderer device on top of a media
// consumer. Control actions become media requests; state is read back from
// the consumer's view of the player.
package av

import (
	"github.com/ericyan/omnimedia/element"
	"github.com/ericyan/omnimedia/event"
	"github.com/ericyan/omnimedia/media"
	"github.com/ericyan/omnimedia/upnp"
	"github.com/ericyan/omnimedia/upnp/internal/soap"
)

// ActionEvent is the type of the root event of requests made on behalf of
// a control point. It is never trusted: a control point is not a user.
const ActionEvent = "upnp-action"

// Renderer is a MediaRenderer bound to the player its host is attached to.
type Renderer struct {
	*media.Consumer

	device *upnp.Device
}

// NewMediaRenderer returns a MediaRenderer UPnP device controlling the
// player host is, or will be, attached to.
//
// Spec: http://upnp.org/specs/av/UPnP-av-MediaRenderer-v1-Device.pdf
func NewMediaRenderer(name string, host *element.Host) *Renderer {
	c := media.NewConsumer(host)

	dev := upnp.NewDevice(name, "MediaRenderer", 1)
	dev.RegisterService(AVTransport(c))
	dev.RegisterService(RenderingControl(c))
	dev.RegisterService(ConnectionManager())

	return &Renderer{Consumer: c, device: dev}
}

// Device returns the UPnP device.
func (r *Renderer) Device() *upnp.Device {
	return r.device
}

// checkInstance rejects requests for instances other than 0.
func checkInstance(errInvalid *soap.Error, h upnp.Handler) upnp.Handler {
	return func(req *soap.Request, resp *soap.Response) {
		if req.Args["InstanceID"] != "0" {
			resp.Error = errInvalid
			return
		}

		h(req, resp)
	}
}

// request issues a media request on behalf of the control request req and
// reports whether it was accepted.
func request(c *media.Consumer, req *soap.Request, resp *soap.Response, requestType string, opts ...event.Option) bool {
	trigger := event.New(ActionEvent, event.WithDetail(req.Action.Name))

	if _, err := c.Request(requestType, append(opts, event.WithTrigger(trigger))...); err != nil {
		resp.Error = soap.ErrActionFailed
		return false
	}

	return true
}
