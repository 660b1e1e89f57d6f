package av

import (
	"strings"

	"github.com/ericyan/omnimedia/upnp"
	"github.com/ericyan/omnimedia/upnp/internal/soap"
)

// ErrInvalidConnectionReference is returned for connection ids other than
// the default connection.
var ErrInvalidConnectionReference = &soap.Error{Code: 706, Description: "Invalid connection reference"}

// SinkProtocols lists the protocols the renderer accepts.
var SinkProtocols = []string{
	"http-get:*:video/mp4:*",
	"http-get:*:video/webm:*",
	"http-get:*:video/x-matroska:*",
	"http-get:*:audio/mpeg:*",
	"http-get:*:audio/mp4:*",
	"http-get:*:audio/flac:*",
	"http-get:*:application/vnd.apple.mpegurl:*",
}

var connectionStateVariables = []upnp.StateVariable{
	{Name: "SourceProtocolInfo", DataType: "string", SendEvents: true},
	{Name: "SinkProtocolInfo", DataType: "string", SendEvents: true},
	{Name: "CurrentConnectionIDs", DataType: "string", SendEvents: true},
	{Name: "A_ARG_TYPE_ConnectionStatus", DataType: "string", AllowedValues: []string{"OK", "ContentFormatMismatch", "InsufficientBandwidth", "UnreliableChannel", "Unknown"}},
	{Name: "A_ARG_TYPE_ConnectionManager", DataType: "string"},
	{Name: "A_ARG_TYPE_Direction", DataType: "string", AllowedValues: []string{"Input", "Output"}},
	{Name: "A_ARG_TYPE_ProtocolInfo", DataType: "string"},
	{Name: "A_ARG_TYPE_ConnectionID", DataType: "i4"},
	{Name: "A_ARG_TYPE_AVTransportID", DataType: "i4"},
	{Name: "A_ARG_TYPE_RcsID", DataType: "i4"},
}

// ConnectionManager returns a ConnectionManager UPnP service with the
// single default connection.
//
// Spec: http://upnp.org/specs/av/UPnP-av-ConnectionManager-v1-Service.pdf
func ConnectionManager() *upnp.Service {
	svc := upnp.NewService("ConnectionManager", 1)
	svc.RegisterStateVariables(connectionStateVariables...)

	svc.RegisterAction(&upnp.Action{
		Name: "GetProtocolInfo",
		Args: []upnp.Argument{
			upnp.Out("Source", "SourceProtocolInfo"),
			upnp.Out("Sink", "SinkProtocolInfo"),
		},
		Handler: func(req *soap.Request, resp *soap.Response) {
			resp.Args["Source"] = ""
			resp.Args["Sink"] = strings.Join(SinkProtocols, ",")
		},
	})

	svc.RegisterAction(&upnp.Action{
		Name: "GetCurrentConnectionIDs",
		Args: []upnp.Argument{
			upnp.Out("ConnectionIDs", "CurrentConnectionIDs"),
		},
		Handler: func(req *soap.Request, resp *soap.Response) {
			resp.Args["ConnectionIDs"] = "0"
		},
	})

	svc.RegisterAction(&upnp.Action{
		Name: "GetCurrentConnectionInfo",
		Args: []upnp.Argument{
			upnp.In("ConnectionID", "A_ARG_TYPE_ConnectionID"),
			upnp.Out("RcsID", "A_ARG_TYPE_RcsID"),
			upnp.Out("AVTransportID", "A_ARG_TYPE_AVTransportID"),
			upnp.Out("ProtocolInfo", "A_ARG_TYPE_ProtocolInfo"),
			upnp.Out("PeerConnectionManager", "A_ARG_TYPE_ConnectionManager"),
			upnp.Out("PeerConnectionID", "A_ARG_TYPE_ConnectionID"),
			upnp.Out("Direction", "A_ARG_TYPE_Direction"),
			upnp.Out("Status", "A_ARG_TYPE_ConnectionStatus"),
		},
		Handler: func(req *soap.Request, resp *soap.Response) {
			if req.Args["ConnectionID"] != "0" {
				resp.Error = ErrInvalidConnectionReference
				return
			}

			resp.Args["RcsID"] = "0"
			resp.Args["AVTransportID"] = "0"
			resp.Args["ProtocolInfo"] = ""
			resp.Args["PeerConnectionManager"] = ""
			resp.Args["PeerConnectionID"] = "-1"
			resp.Args["Direction"] = "Input"
			resp.Args["Status"] = "OK"
		},
	})

	return svc
}
