// Package ssdp announces a UPnP device on the local network and answers
// M-SEARCH requests for it.
package ssdp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/ericyan/omnimedia/internal/log"
)

const (
	MulticastIPv4Addr     = "239.255.255.250:1900"
	MTU                   = 8192
	AliveInterval         = 15 * time.Minute
	CacheControlDirective = "max-age=1800"
	ServerName            = runtime.GOOS + "/" + runtime.GOARCH + " UPnP/2.0 omnimedia/0.1"
)

// Errors returned when handling discovery requests.
var (
	ErrUnsupportedMethod = errors.New("ssdp: unsupported method")
	ErrBadMAN            = errors.New("ssdp: unexpected MAN")
	ErrNoMatch           = errors.New("ssdp: no matching search target")
)

type Device interface {
	// Returns the Unique Device Name, which will be the prefix of the USN
	// header field in all discovery messages.
	UDN() string
	// Returns the URN of the device.
	URN() string
	// Returns the URNs of all services provided by the device.
	ServiceURNs() []string
}

type Server struct {
	dev    Device
	loc    *url.URL
	addr   *net.UDPAddr
	bootID string

	mu   sync.Mutex
	conn *net.UDPConn
	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer returns a SSDP server for the given device that announces
// the URL to its UPnP description.
func NewServer(dev Device, loc *url.URL) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", MulticastIPv4Addr)
	if err != nil {
		return nil, err
	}

	return &Server{
		dev:    dev,
		loc:    loc,
		addr:   addr,
		bootID: strconv.FormatInt(time.Now().Unix(), 10),
	}, nil
}

// ListenAndServe joins the multicast group and serves until Close.
func (srv *Server) ListenAndServe() error {
	conn, err := net.ListenMulticastUDP("udp", nil, srv.addr)
	if err != nil {
		return err
	}
	conn.SetReadBuffer(MTU)

	done := make(chan struct{})
	srv.mu.Lock()
	srv.conn, srv.done = conn, done
	srv.mu.Unlock()

	log.WithField("addr", conn.LocalAddr()).Info("ssdp: listening")

	srv.notify("ssdp:alive")
	srv.wg.Add(1)
	go srv.keepAlive(done)

	buf := make([]byte, MTU)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			return err
		}

		req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(buf[:n])))
		if err != nil {
			log.WithError(err).Debug("ssdp: malformed request")
			continue
		}

		if err := srv.handleRequest(req, raddr); err != nil {
			log.WithError(err).WithField("from", raddr).Debug("ssdp: request ignored")
		}
	}
}

func (srv *Server) keepAlive(done <-chan struct{}) {
	defer srv.wg.Done()

	t := time.NewTicker(AliveInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			srv.notify("ssdp:alive")
		case <-done:
			return
		}
	}
}

// Close says goodbye and stops the server.
func (srv *Server) Close() error {
	srv.mu.Lock()
	conn, done := srv.conn, srv.done
	srv.conn, srv.done = nil, nil
	srv.mu.Unlock()

	if conn == nil {
		return nil
	}

	close(done)
	srv.wg.Wait()
	srv.send(conn, srv.notifications("ssdp:byebye"), srv.addr)

	return conn.Close()
}

// capabilities maps the notification types of the device to their USNs.
func (srv *Server) capabilities() map[string]string {
	udn := srv.dev.UDN()
	caps := map[string]string{udn: udn}
	for _, urn := range append([]string{"upnp:rootdevice", srv.dev.URN()}, srv.dev.ServiceURNs()...) {
		caps[urn] = udn + "::" + urn
	}

	return caps
}

func (srv *Server) commonHeader() http.Header {
	h := make(http.Header)
	h.Set("CACHE-CONTROL", CacheControlDirective)
	h.Set("LOCATION", srv.loc.String())
	h.Set("SERVER", ServerName)
	h.Set("BOOTID.UPNP.ORG", srv.bootID)
	h.Set("CONFIGID.UPNP.ORG", "1")

	return h
}

// notifications returns the NOTIFY messages announcing every capability.
func (srv *Server) notifications(nts string) [][]byte {
	var msgs [][]byte
	for t, usn := range srv.capabilities() {
		req := &http.Request{
			Method:     "NOTIFY",
			URL:        &url.URL{Opaque: "*"},
			ProtoMajor: 1,
			ProtoMinor: 1,
			Host:       MulticastIPv4Addr,
			Header:     srv.commonHeader(),
		}
		req.Header.Set("NTS", nts)
		req.Header.Set("NT", t)
		req.Header.Set("USN", usn)

		buf := new(bytes.Buffer)
		req.Write(buf)
		msgs = append(msgs, buf.Bytes())
	}

	return msgs
}

// responses returns the replies to an M-SEARCH request.
func (srv *Server) responses(req *http.Request) ([][]byte, error) {
	if req.Method != "M-SEARCH" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}
	if man := req.Header.Get("MAN"); man != `"ssdp:discover"` {
		return nil, fmt.Errorf("%w: %s", ErrBadMAN, man)
	}

	st := req.Header.Get("ST")

	var msgs [][]byte
	for t, usn := range srv.capabilities() {
		if st != t && st != "ssdp:all" {
			continue
		}

		resp := &http.Response{
			StatusCode:    http.StatusOK,
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        srv.commonHeader(),
			ContentLength: -1,
			Uncompressed:  true,
		}
		resp.Header.Set("EXT", "")
		resp.Header.Set("ST", t)
		resp.Header.Set("USN", usn)

		buf := new(bytes.Buffer)
		resp.Write(buf)
		msgs = append(msgs, buf.Bytes())
	}

	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, st)
	}

	return msgs, nil
}

func (srv *Server) notify(nts string) {
	srv.mu.Lock()
	conn := srv.conn
	srv.mu.Unlock()

	if conn != nil {
		srv.send(conn, srv.notifications(nts), srv.addr)
	}
}

func (srv *Server) send(conn *net.UDPConn, msgs [][]byte, to *net.UDPAddr) {
	for _, msg := range msgs {
		if _, err := conn.WriteTo(msg, to); err != nil {
			log.WithError(err).WithField("to", to).Warn("ssdp: send failed")
			return
		}
	}
}

func (srv *Server) handleRequest(req *http.Request, raddr *net.UDPAddr) error {
	msgs, err := srv.responses(req)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"from": raddr, "st": req.Header.Get("ST")}).Debug("ssdp: search")

	srv.mu.Lock()
	conn := srv.conn
	srv.mu.Unlock()

	if conn != nil {
		srv.send(conn, msgs, raddr)
	}

	return nil
}
