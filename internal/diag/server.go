package diag

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	quic "github.com/quic-go/quic-go"
	http3 "github.com/quic-go/quic-go/http3"
)

// Server serves a Source's Snapshot at "/snapshot" over both plain HTTP
// and HTTP/3. A consumer that only wants HTTP/3's connection-migration
// and 0-RTT benefits can dial it directly; anything else can curl the
// plain HTTP listener.
type Server struct {
	src Source

	http  *http.Server
	http3 *http3.Server
	pc    net.PacketConn

	h3Done chan struct{}
	errC   chan error
}

// Options configures the QUIC transport used for the HTTP/3 listener.
// The zero value is a reasonable default.
type Options struct {
	MaxIdleTimeout  time.Duration
	KeepAlivePeriod time.Duration
}

func (o Options) quicConfig() *quic.Config {
	qc := &quic.Config{}

	if o.MaxIdleTimeout > 0 {
		qc.MaxIdleTimeout = o.MaxIdleTimeout
	}

	if o.KeepAlivePeriod > 0 {
		qc.KeepAlivePeriod = o.KeepAlivePeriod
	}

	return qc
}

// NewServer builds a Server that will listen on httpAddr for plain HTTP
// and h3Addr (UDP) for HTTP/3, serving TLS with tlsCfg. Pass a nil *tls.Config
// to get the module's HTTP/3-minimum defaults (TLS 1.3, "h3" ALPN).
func NewServer(src Source, httpAddr, h3Addr string, tlsCfg *tls.Config, opts Options) *Server {
	tlsCfg = withH3Defaults(tlsCfg)

	mux := http.NewServeMux()
	s := &Server{src: src, errC: make(chan error, 2)}
	mux.HandleFunc("/snapshot", s.handleSnapshot)

	s.http = &http.Server{Addr: httpAddr, Handler: mux}
	s.http3 = &http3.Server{Addr: h3Addr, TLSConfig: tlsCfg, Handler: mux, QUICConfig: opts.quicConfig()}

	return s
}

func withH3Defaults(tlsCfg *tls.Config) *tls.Config {
	if tlsCfg == nil {
		return &tls.Config{MinVersion: tls.VersionTLS13, NextProtos: []string{"h3"}}
	}

	if tlsCfg.MinVersion >= tls.VersionTLS13 {
		return tlsCfg
	}

	c := tlsCfg.Clone()
	c.MinVersion = tls.VersionTLS13

	if len(c.NextProtos) == 0 {
		c.NextProtos = []string{"h3"}
	}

	return c
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := Build(s.src).Marshal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Start launches both listeners in background goroutines and returns
// once each has bound its address.
func (s *Server) Start() error {
	httpLn, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.http.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			select {
			case s.errC <- err:
			default:
			}
		}
	}()

	pc, err := net.ListenPacket("udp", s.http3.Addr)
	if err != nil {
		_ = httpLn.Close()

		return err
	}

	s.pc = pc
	s.h3Done = make(chan struct{})

	go func() {
		defer close(s.h3Done)

		if err := s.http3.Serve(s.pc); err != nil {
			select {
			case s.errC <- err:
			default:
			}
		}
	}()

	return nil
}

// Stop shuts both listeners down, waiting up to 5 seconds for the HTTP/3
// serve loop to unwind.
func (s *Server) Stop(ctx context.Context) error {
	shutdownErr := s.http.Shutdown(ctx)

	if s.pc != nil {
		_ = s.pc.Close()

		select {
		case <-s.h3Done:
		case <-time.After(5 * time.Second):
		}
	}

	return shutdownErr
}

// Errors returns a channel receiving the first error from either
// listener's serve loop, if any.
func (s *Server) Errors() <-chan error {
	return s.errC
}
