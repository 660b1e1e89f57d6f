package store

import "github.com/ericyan/omnimedia/element"

// Bind ties a subscription to the lifecycle of host: fn is subscribed to r
// every time host connects and unsubscribed when it disconnects, so a
// detached host never receives updates.
func Bind[T any](host *element.Host, r Readable[T], fn func(T)) {
	host.OnConnect(func(h *element.Host) {
		h.OnDisconnect(r.Subscribe(fn))
	})
}
