// Package upnp serves UPnP devices: description and SCPD documents, SOAP
// control and SSDP discovery.
package upnp

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/upnp/internal/soap"
)

type Device struct {
	Name    string
	Type    string
	Version uint

	uuid     uuid.UUID
	services map[string]*Service
}

// NewDevice returns a device whose UDN is derived from its name and type,
// so that it survives restarts.
func NewDevice(name, deviceType string, ver uint) *Device {
	return &Device{
		Name:     name,
		Type:     deviceType,
		Version:  ver,
		uuid:     uuid.NewMD5(uuid.NameSpaceURL, []byte(name+deviceType)),
		services: make(map[string]*Service),
	}
}

func (dev *Device) RegisterService(svc *Service) {
	if svc != nil {
		dev.services[svc.Type] = svc
	}
}

// UUID returns the device identity.
func (dev *Device) UUID() uuid.UUID {
	return dev.uuid
}

func (dev *Device) UDN() string {
	return "uuid:" + dev.uuid.String()
}

func (dev *Device) URN() string {
	return "urn:schemas-upnp-org:device:" + dev.Type + ":" + strconv.Itoa(int(dev.Version))
}

func (dev *Device) Services() map[string]*Service {
	return dev.services
}

func (dev *Device) ServiceURNs() []string {
	urns := make([]string, 0, len(dev.services))
	for _, svc := range dev.services {
		urns = append(urns, svc.URN())
	}
	sort.Strings(urns)

	return urns
}

func (dev *Device) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{"method": r.Method, "path": r.URL.Path, "remote": r.RemoteAddr})
	logger.Debug("upnp: request")

	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		if err := dev.WriteDescription(w); err != nil {
			logger.WithError(err).Warn("upnp: writing description")
		}
		return
	}

	st, ok := strings.CutPrefix(r.URL.Path, "/services/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if strings.HasSuffix(st, "/events") {
		// Eventing is not supported; controllers fall back to polling.
		http.Error(w, "subscription not supported", http.StatusNotImplemented)
		return
	}

	svc, ok := dev.services[st]
	if !ok {
		logger.Debug("upnp: no such service")
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		if err := svc.WriteSCPD(w); err != nil {
			logger.WithError(err).Warn("upnp: writing SCPD")
		}
	case http.MethodPost:
		req, err := soap.ParseHTTPRequest(r)
		if err != nil {
			logger.WithError(err).Debug("upnp: bad control request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := svc.HandleRequest(req)
		if resp.Error != nil {
			logger.WithField("action", req.Action.Name).WithError(resp.Error).Debug("upnp: action failed")
		}
		if err := resp.Write(w); err != nil {
			logger.WithError(err).Warn("upnp: writing response")
		}
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

const deviceTemplate = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion>
    <major>1</major>
    <minor>0</minor>
  </specVersion>
  <device>
    <deviceType>{{.URN}}</deviceType>
    <UDN>{{.UDN}}</UDN>
    <friendlyName>{{.Name | escape}}</friendlyName>
    <manufacturer>Eric Yan</manufacturer>
    <manufacturerURL>https://ericyan.me/</manufacturerURL>
    <modelName>Omnimedia</modelName>
    <modelDescription>DLNA media renderer written in Go</modelDescription>
    <modelNumber>0.1</modelNumber>
    <modelURL>http://github.com/ericyan/omnimedia</modelURL>
    <dlna:X_DLNADOC xmlns:dlna="urn:schemas-dlna-org:device-1-0">DMR-1.50</dlna:X_DLNADOC>
    <serviceList>
    {{- range $path, $svc := .Services }}
      <service>
        <serviceType>{{$svc.URN}}</serviceType>
        <serviceId>urn:upnp-org:serviceId:{{$svc.Type}}</serviceId>
        <controlURL>/services/{{$path}}</controlURL>
        <eventSubURL>/services/{{$path}}/events</eventSubURL>
        <SCPDURL>/services/{{$path}}</SCPDURL>
      </service>
    {{- end}}
    </serviceList>
  </device>
</root>
`

var funcs = template.FuncMap{"escape": template.HTMLEscapeString}

var deviceTpl = template.Must(template.New("device").Funcs(funcs).Parse(deviceTemplate))

// WriteDescription writes the device description document to w.
func (dev *Device) WriteDescription(w io.Writer) error {
	return deviceTpl.Execute(w, dev)
}
