package upnp

import (
	"context"
	"net"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type renderers are announced under.
const ServiceType = "_omnimedia._tcp"

// RendererInfo describes a renderer found via mDNS.
type RendererInfo struct {
	Name     string
	UUID     uuid.UUID
	Location *url.URL
	IPv4     net.IP
	Port     int
}

func txtRecords(dev *Device, loc *url.URL) []string {
	return []string{
		"id=" + dev.UUID().String(),
		"fn=" + dev.Name,
		"dt=" + dev.URN(),
		"loc=" + loc.String(),
	}
}

func parseEntry(entry *zeroconf.ServiceEntry) *RendererInfo {
	info := &RendererInfo{
		Name: entry.Instance,
		Port: entry.Port,
	}
	if len(entry.AddrIPv4) > 0 {
		info.IPv4 = entry.AddrIPv4[0]
	}

	for _, value := range entry.Text {
		key, val, ok := strings.Cut(value, "=")
		if !ok {
			continue
		}

		switch key {
		case "id":
			info.UUID, _ = uuid.Parse(val)
		case "fn":
			info.Name = val
		case "loc":
			info.Location, _ = url.Parse(val)
		}
	}

	return info
}

// Browse returns a channel with the renderers found via mDNS. The channel
// is closed when ctx is done.
func Browse(ctx context.Context) (<-chan *RendererInfo, error) {
	resolv, err := zeroconf.NewResolver()
	if err != nil {
		return nil, err
	}

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolv.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return nil, err
	}

	infos := make(chan *RendererInfo)
	go func() {
		defer close(infos)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if entry == nil {
					continue
				}

				select {
				case infos <- parseEntry(entry):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return infos, nil
}
