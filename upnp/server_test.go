package upnp

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestNewServer(t *testing.T) {
	dev := newEchoDevice()

	srv, err := NewServer(dev, "192.168.1.10:2278", WithMDNS())
	if err != nil {
		t.Fatal(err)
	}
	if !srv.mdns {
		t.Error("WithMDNS() should enable mDNS")
	}
	if loc := srv.Location().String(); loc != "http://192.168.1.10:2278/" {
		t.Errorf("Location(): got %s", loc)
	}
}

func TestParseEntry(t *testing.T) {
	dev := newEchoDevice()
	srv, err := NewServer(dev, "192.168.1.10:2278")
	if err != nil {
		t.Fatal(err)
	}

	entry := zeroconf.NewServiceEntry("renderer-1", ServiceType, "local.")
	entry.Port = 2278
	entry.AddrIPv4 = []net.IP{net.IPv4(192, 168, 1, 10)}
	entry.Text = append(txtRecords(dev, srv.Location()), "garbage")

	info := parseEntry(entry)
	if info.Name != dev.Name {
		t.Errorf("Name: got %q; want %q", info.Name, dev.Name)
	}
	if info.UUID != dev.UUID() {
		t.Errorf("UUID: got %s; want %s", info.UUID, dev.UUID())
	}
	if info.Location == nil || info.Location.String() != srv.Location().String() {
		t.Errorf("Location: got %v", info.Location)
	}
	if !info.IPv4.Equal(net.IPv4(192, 168, 1, 10)) || info.Port != 2278 {
		t.Errorf("address: got %s:%d", info.IPv4, info.Port)
	}
}
