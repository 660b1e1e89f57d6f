package upnp

import (
	"io"
	"strconv"
	"text/template"

	"github.com/ericyan/omnimedia/upnp/internal/soap"
)

// Argument directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Argument describes an action argument and the state variable that
// defines its type.
type Argument struct {
	Name          string
	Direction     string
	StateVariable string
}

// In returns an in-argument typed by the state variable sv.
func In(name, sv string) Argument {
	return Argument{Name: name, Direction: DirectionIn, StateVariable: sv}
}

// Out returns an out-argument typed by the state variable sv.
func Out(name, sv string) Argument {
	return Argument{Name: name, Direction: DirectionOut, StateVariable: sv}
}

// Handler serves an action. Out-arguments are set in resp.Args; a failure
// is reported by setting resp.Error.
type Handler func(req *soap.Request, resp *soap.Response)

// Action describes an action of a service.
type Action struct {
	Name    string
	Args    []Argument
	Handler Handler
}

// StateVariable describes a state variable of a service.
type StateVariable struct {
	Name          string
	DataType      string
	SendEvents    bool
	AllowedValues []string
}

type Service struct {
	Type    string
	Version uint

	actions map[string]*Action
	order   []string
	vars    []StateVariable
}

func NewService(serviceType string, ver uint) *Service {
	return &Service{
		Type:    serviceType,
		Version: ver,
		actions: make(map[string]*Action),
	}
}

func (svc *Service) URN() string {
	return "urn:schemas-upnp-org:service:" + svc.Type + ":" + strconv.Itoa(int(svc.Version))
}

// RegisterAction adds an action, replacing any with the same name.
func (svc *Service) RegisterAction(a *Action) {
	if _, ok := svc.actions[a.Name]; !ok {
		svc.order = append(svc.order, a.Name)
	}
	svc.actions[a.Name] = a
}

// RegisterStateVariables adds state variables to the service description.
func (svc *Service) RegisterStateVariables(vars ...StateVariable) {
	svc.vars = append(svc.vars, vars...)
}

// Actions returns the actions in registration order.
func (svc *Service) Actions() []*Action {
	actions := make([]*Action, 0, len(svc.order))
	for _, name := range svc.order {
		actions = append(actions, svc.actions[name])
	}

	return actions
}

// StateVariables returns the state variables in registration order.
func (svc *Service) StateVariables() []StateVariable {
	return svc.vars
}

// HandleRequest dispatches req to its action. Missing in-arguments are
// rejected before the handler runs.
func (svc *Service) HandleRequest(req *soap.Request) *soap.Response {
	resp := soap.NewResponse(req)

	action, ok := svc.actions[req.Action.Name]
	if !ok || action.Handler == nil {
		resp.Error = soap.ErrInvalidAction
		return resp
	}

	for _, arg := range action.Args {
		if arg.Direction != DirectionIn {
			continue
		}
		if _, ok := req.Args[arg.Name]; !ok {
			resp.Error = soap.ErrInvalidArgs
			return resp
		}
	}

	action.Handler(req, resp)
	return resp
}

const scpdTemplate = `<?xml version="1.0" encoding="utf-8"?>
<scpd xmlns="urn:schemas-upnp-org:service-1-0">
  <specVersion>
    <major>1</major>
    <minor>0</minor>
  </specVersion>
  <actionList>
  {{- range .Actions }}
    <action>
      <name>{{.Name}}</name>
      <argumentList>
      {{- range .Args }}
        <argument>
          <name>{{.Name}}</name>
          <direction>{{.Direction}}</direction>
          <relatedStateVariable>{{.StateVariable}}</relatedStateVariable>
        </argument>
      {{- end }}
      </argumentList>
    </action>
  {{- end }}
  </actionList>
  <serviceStateTable>
  {{- range .StateVariables }}
    <stateVariable sendEvents="{{if .SendEvents}}yes{{else}}no{{end}}">
      <name>{{.Name}}</name>
      <dataType>{{.DataType}}</dataType>
      {{- with .AllowedValues }}
      <allowedValueList>
      {{- range . }}
        <allowedValue>{{escape .}}</allowedValue>
      {{- end }}
      </allowedValueList>
      {{- end }}
    </stateVariable>
  {{- end }}
  </serviceStateTable>
</scpd>
`

var scpdTpl = template.Must(template.New("scpd").Funcs(funcs).Parse(scpdTemplate))

// WriteSCPD writes the service description document to w.
func (svc *Service) WriteSCPD(w io.Writer) error {
	return scpdTpl.Execute(w, svc)
}
