package upnp

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
	"golang.org/x/sync/errgroup"

	"github.com/ericyan/omnimedia/internal/log"
	"github.com/ericyan/omnimedia/upnp/internal/ssdp"
)

// Option configures a Server.
type Option func(*Server)

// WithMDNS makes the server announce the device over mDNS as well.
func WithMDNS() Option {
	return func(srv *Server) {
		srv.mdns = true
	}
}

type Server struct {
	dev  *Device
	loc  *url.URL
	ss   *ssdp.Server
	hs   *http.Server
	mdns bool

	mu sync.Mutex
	zc *zeroconf.Server
}

// NewServer returns a server for dev listening on addr, a host:port pair.
func NewServer(dev *Device, addr string, opts ...Option) (*Server, error) {
	loc := &url.URL{Scheme: "http", Host: addr, Path: "/"}
	ss, err := ssdp.NewServer(dev, loc)
	if err != nil {
		return nil, err
	}

	hs := &http.Server{
		Addr:    addr,
		Handler: dev,
	}

	srv := &Server{dev: dev, loc: loc, ss: ss, hs: hs}
	for _, opt := range opts {
		opt(srv)
	}

	return srv, nil
}

// Location returns the URL of the device description.
func (srv *Server) Location() *url.URL {
	return srv.loc
}

func (srv *Server) ListenAndServe() error {
	if srv.mdns {
		if err := srv.announce(); err != nil {
			return err
		}
	}

	var g errgroup.Group

	g.Go(srv.ss.ListenAndServe)
	g.Go(func() error {
		if err := srv.hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	log.WithFields(log.Fields{"device": srv.dev.Name, "location": srv.loc}).Info("upnp: serving")

	return g.Wait()
}

func (srv *Server) announce() error {
	_, p, err := net.SplitHostPort(srv.hs.Addr)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return err
	}

	zc, err := zeroconf.Register(srv.dev.Name, ServiceType, "local.", port, txtRecords(srv.dev, srv.loc), nil)
	if err != nil {
		return err
	}

	srv.mu.Lock()
	srv.zc = zc
	srv.mu.Unlock()

	return nil
}

func (srv *Server) Close() error {
	srv.mu.Lock()
	zc := srv.zc
	srv.zc = nil
	srv.mu.Unlock()

	if zc != nil {
		zc.Shutdown()
	}

	var g errgroup.Group

	g.Go(srv.hs.Close)
	g.Go(srv.ss.Close)

	return g.Wait()
}
