package mcpquic

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/regveille/idgen"
	"github.com/hazyhaar/regveille/kit"
)

// Listener accepts MCP-over-QUIC connections and runs each as an MCP
// session against a shared server. One bidirectional stream per
// connection; the SDK owns the JSON-RPC loop once the preamble checks
// out.
type Listener struct {
	listener  *quic.Listener
	mcpServer *mcp.Server
	logger    *slog.Logger
	newID     idgen.Generator
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithIDGenerator sets a custom session ID generator.
func WithIDGenerator(gen idgen.Generator) ListenerOption {
	return func(l *Listener) { l.newID = gen }
}

// NewListener binds a QUIC listener on addr.
func NewListener(addr string, tlsCfg *tls.Config, mcpSrv *mcp.Server, logger *slog.Logger, opts ...ListenerOption) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ql, err := quic.ListenAddr(addr, tlsCfg, ProductionQUICConfig())
	if err != nil {
		return nil, err
	}
	l := &Listener{
		listener:  ql,
		mcpServer: mcpSrv,
		logger:    logger,
		newID:     idgen.NanoID(8),
	}
	for _, o := range opts {
		o(l)
	}
	logger.Info("quic listener ready", "addr", ql.Addr().String())
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() string { return l.listener.Addr().String() }

// Serve accepts connections until ctx is cancelled or the listener closes.
func (l *Listener) Serve(ctx context.Context) error {
	for {
		conn, err := l.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		alpn := conn.ConnectionState().TLS.NegotiatedProtocol
		if alpn != ALPNProtocolMCP {
			conn.CloseWithError(ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
			continue
		}

		go l.serveConn(ctx, conn)
	}
}

func (l *Listener) Close() error {
	return l.listener.Close()
}

// serveConn runs one connection as one MCP session.
func (l *Listener) serveConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		l.logger.Error("quic accept stream failed", "remote", remote, "error", err)
		conn.CloseWithError(ConnErrorProtocolViolation, "stream accept failed")
		return
	}

	if err := ValidateMagicBytes(stream); err != nil {
		l.logger.Warn("quic preamble rejected", "remote", remote, "error", err)
		stream.CancelWrite(StreamErrorProtocolConfusion)
		stream.CancelRead(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "invalid magic bytes")
		return
	}

	sessionID := "quic_" + l.newID()
	l.logger.Info("quic session starting", "session", sessionID, "remote", remote)

	// Session identity flows to the audit middleware through the context.
	ctx = kit.WithTransport(ctx, "quic")
	ctx = kit.WithSessionID(ctx, sessionID)
	ctx = kit.WithRemoteAddr(ctx, remote)

	ss, err := l.mcpServer.Connect(ctx, &serverTransport{stream: stream, sessionID: sessionID}, nil)
	if err != nil {
		l.logger.Error("mcp connect failed", "session", sessionID, "error", err)
		stream.Close()
		return
	}

	if err := ss.Wait(); err != nil {
		l.logger.Debug("quic session ended with error", "session", sessionID, "error", err)
	}
	l.logger.Info("quic session ended", "session", sessionID, "remote", remote)
}

// serverTransport implements mcp.Transport over an accepted QUIC stream.
type serverTransport struct {
	stream    *quic.Stream
	sessionID string
}

func (t *serverTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	iot := &mcp.IOTransport{
		Reader: io.NopCloser(t.stream),
		Writer: streamWriteCloser{t.stream},
	}
	conn, err := iot.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &sessionConn{Connection: conn, id: t.sessionID}, nil
}

// sessionConn overrides the SDK connection's empty session ID.
type sessionConn struct {
	mcp.Connection
	id string
}

func (c *sessionConn) SessionID() string { return c.id }

// streamWriteCloser adapts a *quic.Stream to io.WriteCloser.
type streamWriteCloser struct{ stream *quic.Stream }

func (w streamWriteCloser) Write(p []byte) (int, error) { return w.stream.Write(p) }
func (w streamWriteCloser) Close() error                { return w.stream.Close() }
