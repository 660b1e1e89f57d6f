// Package soap implements the subset of SOAP 1.1 used by UPnP control.
package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// Action identifies an action of a service.
type Action struct {
	Namespace string
	Name      string
}

// An Error represents an UPnP DCP specific error.
type Error struct {
	Code        int
	Description string
}

// Error implements the error interface
func (err *Error) Error() string {
	return strconv.Itoa(err.Code) + " " + err.Description
}

// UPnP defined error codes
var (
	ErrInvalidAction        = &Error{401, "Invalid Action"}
	ErrInvalidArgs          = &Error{402, "Invalid Args"}
	ErrActionFailed         = &Error{501, "Action Failed"}
	ErrArgValueInvalid      = &Error{600, "Argument Value Invalid"}
	ErrArgValueOutOfRange   = &Error{601, "Argument Value Out of Range"}
	ErrActionNotImplemented = &Error{602, "Optional Action Not Implemented"}
	ErrOutOfMemory          = &Error{603, "Out of Memory"}
	ErrInterventionRequired = &Error{604, "Human Intervention Required"}
	ErrArgTooLong           = &Error{605, "String Argument Too Long"}
)

// ErrMalformedAction is returned for SOAPAction headers that are not of
// the form "namespace#name".
var ErrMalformedAction = errors.New("soap: malformed SOAPAction header")

// Request is a parsed control request.
type Request struct {
	Action *Action
	Args   map[string]string
}

// ParseHTTPRequest parses the action and in-arguments of r.
func ParseHTTPRequest(r *http.Request) (*Request, error) {
	action, err := parseAction(r.Header.Get("SOAPAction"))
	if err != nil {
		return nil, err
	}

	args, err := parseArgs(r.Body, action)
	if err != nil {
		return nil, err
	}

	return &Request{action, args}, nil
}

func parseAction(s string) (*Action, error) {
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}

	ns, name, ok := strings.Cut(s, "#")
	if !ok || ns == "" || name == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedAction, s)
	}

	return &Action{ns, name}, nil
}

// parseArgs collects the child elements of the action element.
func parseArgs(r io.Reader, action *Action) (map[string]string, error) {
	actionName := xml.Name{Space: action.Namespace, Local: action.Name}
	args := make(map[string]string)

	d := xml.NewDecoder(r)
	depth := 0
	var v strings.Builder
	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("soap: action %s not found in body", action.Name)
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch {
			case depth == 0 && t.Name == actionName:
				depth = 1
			case depth > 0:
				depth++
				v.Reset()
			}
		case xml.CharData:
			if depth == 2 {
				v.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 1:
				return args, nil
			case 2:
				args[t.Name.Local] = v.String()
			}
			if depth > 0 {
				depth--
			}
		}
	}
}

// Response is the result of an action.
type Response struct {
	Action *Action
	Args   map[string]string
	Error  *Error
}

// NewResponse returns an empty response to req.
func NewResponse(req *Request) *Response {
	return &Response{Action: req.Action, Args: make(map[string]string)}
}

type arg struct {
	Name, Value string
}

// SortedArgs returns the out-arguments ordered by name.
func (resp *Response) SortedArgs() []arg {
	args := make([]arg, 0, len(resp.Args))
	for k, v := range resp.Args {
		args = append(args, arg{k, v})
	}
	sort.Slice(args, func(i, j int) bool { return args[i].Name < args[j].Name })

	return args
}

// StatusCode returns the HTTP status of the response.
func (resp *Response) StatusCode() int {
	if resp.Error != nil {
		return http.StatusInternalServerError
	}

	return http.StatusOK
}

const responseTemplate = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
  {{- with .Error }}
    <s:Fault>
      <faultcode>s:Client</faultcode>
      <faultstring>UPnPError</faultstring>
      <detail>
        <UPnPError xmlns="urn:schemas-upnp-org:control-1-0">
          <errorCode>{{.Code}}</errorCode>
          <errorDescription>{{escape .Description}}</errorDescription>
        </UPnPError>
      </detail>
    </s:Fault>
  {{- else }}
    <u:{{.Action.Name}}Response xmlns:u="{{.Action.Namespace}}">
    {{- range .SortedArgs }}
      <{{.Name}}>{{escape .Value}}</{{.Name}}>
    {{- end}}
    </u:{{.Action.Name}}Response>
  {{- end }}
  </s:Body>
</s:Envelope>
`

var responseTpl = template.Must(template.New("response").Funcs(template.FuncMap{
	"escape": escape,
}).Parse(responseTemplate))

func escape(s string) (string, error) {
	b := new(strings.Builder)
	if err := xml.EscapeText(b, []byte(s)); err != nil {
		return "", err
	}

	return b.String(), nil
}

// Render writes the SOAP envelope of the response to w.
func (resp *Response) Render(w io.Writer) error {
	return responseTpl.Execute(w, resp)
}

// Write sends the response over HTTP.
func (resp *Response) Write(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("EXT", "")
	w.WriteHeader(resp.StatusCode())

	return resp.Render(w)
}

const requestTemplate = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:{{.Action.Name}} xmlns:u="{{.Action.Namespace}}">
    {{- range .SortedArgs }}
      <{{.Name}}>{{escape .Value}}</{{.Name}}>
    {{- end}}
    </u:{{.Action.Name}}>
  </s:Body>
</s:Envelope>
`

var requestTpl = template.Must(template.New("request").Funcs(template.FuncMap{
	"escape": escape,
}).Parse(requestTemplate))

// SortedArgs returns the in-arguments ordered by name.
func (req *Request) SortedArgs() []arg {
	return (&Response{Args: req.Args}).SortedArgs()
}

// NewHTTPRequest returns the HTTP request invoking req at the control URL.
func (req *Request) NewHTTPRequest(controlURL string) (*http.Request, error) {
	body := new(bytes.Buffer)
	if err := requestTpl.Execute(body, req); err != nil {
		return nil, err
	}

	r, err := http.NewRequest(http.MethodPost, controlURL, body)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	r.Header.Set("SOAPAction", strconv.Quote(req.Action.Namespace+"#"+req.Action.Name))

	return r, nil
}

type faultEnvelope struct {
	Body struct {
		Fault *struct {
			Code        int    `xml:"detail>UPnPError>errorCode"`
			Description string `xml:"detail>UPnPError>errorDescription"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// ParseHTTPResponse parses the response to req. A UPnP error is returned in
// the Error field of the response.
func ParseHTTPResponse(r *http.Response, req *Request) (*Response, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	resp := &Response{Action: req.Action}
	if r.StatusCode != http.StatusOK {
		var env faultEnvelope
		if err := xml.Unmarshal(data, &env); err != nil {
			return nil, err
		}
		if env.Body.Fault == nil {
			return nil, fmt.Errorf("soap: unexpected status %s", r.Status)
		}

		resp.Error = &Error{env.Body.Fault.Code, env.Body.Fault.Description}
		return resp, nil
	}

	resp.Args, err = parseArgs(bytes.NewReader(data), &Action{req.Action.Namespace, req.Action.Name + "Response"})
	if err != nil {
		return nil, err
	}

	return resp, nil
}
