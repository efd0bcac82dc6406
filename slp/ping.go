package slp

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/pterm/pterm"
)

const (
	DefaultPort     = 25565
	DefaultProtocol = 767
)

type Resolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Pinger queries servers with the Server List Ping protocol. Every failure
// comes back as an offline status, never as an error.
type Pinger struct {
	Resolver Resolver
	Dial     DialFunc
	Timeout  time.Duration
	Protocol int32
	Logger   *pterm.Logger
}

func NewPinger(timeout time.Duration, logger *pterm.Logger) *Pinger {
	dialer := &net.Dialer{}
	return &Pinger{
		Resolver: net.DefaultResolver,
		Dial:     dialer.DialContext,
		Timeout:  timeout,
		Protocol: DefaultProtocol,
		Logger:   logger,
	}
}

// Resolve follows a _minecraft._tcp SRV record when one exists. Without one
// the host is used as given, on port or the default port when port is 0.
func (p *Pinger) Resolve(ctx context.Context, host string, port int) (string, int) {
	if port <= 0 {
		port = DefaultPort
	}
	if p.Resolver == nil {
		return host, port
	}

	_, records, err := p.Resolver.LookupSRV(ctx, "minecraft", "tcp", host)
	if err != nil || len(records) == 0 {
		return host, port
	}
	return strings.TrimSuffix(records[0].Target, "."), int(records[0].Port)
}

func (p *Pinger) Ping(ctx context.Context, host string, port int) util.ServerStatus {
	if port <= 0 {
		port = DefaultPort
	}
	offline := func(err error) util.ServerStatus {
		if p.Logger != nil {
			p.Logger.Debug("server offline", p.Logger.Args("host", host, "port", port, "error", err))
		}
		return util.ServerStatus{Online: false, Host: host, Port: port, Error: describe(err)}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	target, targetPort := p.Resolve(ctx, host, port)

	conn, err := p.Dial(ctx, "tcp", net.JoinHostPort(target, strconv.Itoa(targetPort)))
	if err != nil {
		return offline(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	go func() {
		<-ctx.Done()
		conn.SetDeadline(time.Now())
	}()

	request := HandshakePacket(p.Protocol, target, uint16(targetPort))
	request = append(request, StatusRequestPacket()...)
	if _, err := conn.Write(request); err != nil {
		return offline(err)
	}

	var frames FrameReader
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			packet, ok, err1 := frames.Feed(chunk[:n])
			if err1 != nil {
				return offline(err1)
			}
			if ok {
				doc, err2 := StatusJson(packet)
				if err2 != nil {
					return offline(err2)
				}
				status, err3 := ParseStatus(doc)
				if err3 != nil {
					return offline(err3)
				}
				status.Host = host
				status.Port = port
				status.Ping = time.Since(start)
				return status
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return offline(err)
		}
	}
}

func describe(err error) string {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return "Connection timeout"
	}
	return err.Error()
}
