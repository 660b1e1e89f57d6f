package discovery

import (
	"testing"

	"github.com/ericyan/omnimedia/element"
)

const connectEvent = "media-controller-connect"

type orchestrator struct {
	host    *element.Host
	claimed *Registry[*Request]
	log     []string
}

func newOrchestrator(name string) *orchestrator {
	o := &orchestrator{host: element.New(name)}
	o.claimed = Provide(o.host, connectEvent, func(req *Request) bool {
		name := req.Element.Name()
		o.log = append(o.log, "claim:"+name)
		req.OnDisconnect(func() { o.log = append(o.log, "teardown:"+name+":1") })
		req.OnDisconnect(func() { o.log = append(o.log, "teardown:"+name+":2") })
		return true
	})

	return o
}

func TestClaimAndTeardown(t *testing.T) {
	doc := element.NewDocument("document")
	ctrl := newOrchestrator("controller")
	button := element.New("button")
	c := Discover(button, connectEvent, nil)

	ctrl.host.AppendChild(button)
	doc.AppendChild(ctrl.host)

	if !c.IsClaimed() || c.Owner().MustGet() != ctrl.host {
		t.Fatal("button should be claimed by the controller")
	}
	if ctrl.claimed.Len() != 1 {
		t.Errorf("claimed: got %d; want 1", ctrl.claimed.Len())
	}

	button.Remove()

	if c.IsClaimed() || c.Owner().IsPresent() {
		t.Error("disconnected button should be unclaimed")
	}
	if ctrl.claimed.Len() != 0 {
		t.Errorf("claimed after disconnect: got %d; want 0", ctrl.claimed.Len())
	}

	want := []string{"claim:button", "teardown:button:1", "teardown:button:2"}
	assertLog(t, ctrl.log, want)
}

func TestNearestAncestorWins(t *testing.T) {
	doc := element.NewDocument("document")
	outer := newOrchestrator("outer")
	inner := newOrchestrator("inner")
	slider := element.New("slider")
	c := Discover(slider, connectEvent, nil)

	doc.AppendChild(outer.host)
	outer.host.AppendChild(inner.host)
	inner.host.AppendChild(slider)

	if got := c.Owner().OrEmpty(); got != inner.host {
		t.Errorf("owner: got %v; want %v", got, inner.host)
	}
	if len(outer.log) != 0 {
		t.Errorf("outer orchestrator should not see the request: %v", outer.log)
	}
}

func TestLateProviderRescans(t *testing.T) {
	doc := element.NewDocument("document")
	player := element.New("player")
	button := element.New("button")
	c := Discover(button, connectEvent, nil)

	var claims, releases int
	c.OnClaim(func(*Request) { claims++ })
	c.OnRelease(func() { releases++ })

	doc.AppendChild(player)
	player.AppendChild(button)

	if c.IsClaimed() {
		t.Fatal("button has no orchestrator yet")
	}

	// The player becomes an orchestrator after the button connected.
	var log []string
	Provide(player, connectEvent, func(req *Request) bool {
		log = append(log, "claim:"+req.Element.Name())
		req.OnDisconnect(func() { log = append(log, "teardown:"+req.Element.Name()) })
		return true
	})

	if !c.IsClaimed() || claims != 1 {
		t.Fatalf("button should be claimed once, got %d claims", claims)
	}

	// Tearing down the orchestrator releases the consumer.
	doc.RemoveChild(player)
	if c.IsClaimed() || releases != 1 {
		t.Errorf("got claimed=%t releases=%d; want false and 1", c.IsClaimed(), releases)
	}
	assertLog(t, log, []string{"claim:button", "teardown:button"})
}

func TestMoveRediscovers(t *testing.T) {
	doc := element.NewDocument("document")
	outer := newOrchestrator("outer")
	inner := newOrchestrator("inner")
	button := element.New("button")
	c := Discover(button, connectEvent, nil)

	doc.AppendChild(outer.host)
	outer.host.AppendChild(inner.host)
	inner.host.AppendChild(button)

	inner.host.RemoveChild(button)
	outer.host.AppendChild(button)
	if got := c.Owner().OrEmpty(); got != outer.host {
		t.Errorf("owner after move: got %v; want %v", got, outer.host)
	}

	assertLog(t, inner.log, []string{"claim:button", "teardown:button:1", "teardown:button:2"})
	assertLog(t, outer.log, []string{"claim:button"})
}

func TestRepeatedCycles(t *testing.T) {
	doc := element.NewDocument("document")
	ctrl := newOrchestrator("controller")
	doc.AppendChild(ctrl.host)

	button := element.New("button")
	c := Discover(button, connectEvent, nil)
	for i := 0; i < 5; i++ {
		ctrl.host.AppendChild(button)
		button.Remove()
	}

	if c.IsClaimed() || ctrl.claimed.Len() != 0 {
		t.Error("no claim should survive a disconnect")
	}
	if len(ctrl.log) != 15 {
		t.Errorf("got %d log entries; want 15", len(ctrl.log))
	}
}

func TestDeclinedClaimBubblesOn(t *testing.T) {
	doc := element.NewDocument("document")
	outer := newOrchestrator("outer")
	picky := element.New("picky")
	Provide(picky, connectEvent, func(*Request) bool { return false })
	button := element.New("button")
	c := Discover(button, connectEvent, nil)

	doc.AppendChild(outer.host)
	outer.host.AppendChild(picky)
	picky.AppendChild(button)

	if got := c.Owner().OrEmpty(); got != outer.host {
		t.Errorf("owner: got %v; want %v", got, outer.host)
	}
}

func TestRegistry(t *testing.T) {
	var r Registry[string]
	unA := r.Register("a")
	r.Register("b")
	unC := r.Register("c")

	unA()
	unA()
	unC()

	if vs := r.Values(); len(vs) != 1 || vs[0] != "b" {
		t.Errorf("Values(): got %v; want [b]", vs)
	}

	n := 0
	r.Each(func(string) { n++ })
	if n != 1 || r.Len() != 1 {
		t.Errorf("got %d visits and Len() %d; want 1 and 1", n, r.Len())
	}
}

func assertLog(t *testing.T, got, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %s; want %s", i, got[i], want[i])
		}
	}
}

func TestValueAndReply(t *testing.T) {
	doc := element.NewDocument("document")
	ctrl := element.New("controller")
	Provide(ctrl, connectEvent, func(req *Request) bool {
		if req.Value != "provider" {
			return false
		}
		req.SetReply("context")
		return true
	})

	var reply interface{}
	provider := element.New("provider")
	c := Discover(provider, connectEvent, "provider")
	c.OnClaim(func(req *Request) { reply = req.Reply() })

	ctrl.AppendChild(provider)
	doc.AppendChild(ctrl)

	if reply != "context" {
		t.Errorf("Reply(): got %v; want context", reply)
	}

	other := element.New("other")
	o := Discover(other, connectEvent, "stranger")
	ctrl.AppendChild(other)
	if o.IsClaimed() {
		t.Error("declined consumer should stay unclaimed")
	}
}
