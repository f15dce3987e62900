package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/deskaudio/pulse/proto"
)

// ErrNoServer is returned when none of the candidate servers could be
// reached.
var ErrNoServer = errors.New("pulseaudio: no server reachable")

// State is the state of a Client's connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateNaming
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateNaming:
		return "naming"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// A Dialer opens transport connections. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config is everything Connect needs. NewClient fills it in from the
// environment.
type Config struct {
	// Candidates are tried in order until one completes the handshake.
	Candidates []Candidate
	// Cookie is the 256 byte authentication cookie. An empty cookie is
	// sent as 256 zero bytes.
	Cookie []byte
	// Properties are sent to the server as the client's property list.
	Properties proto.PropList

	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
	Dialer  Dialer

	// OnStateChange is called on every state transition.
	OnStateChange func(State)
	// MaxFrameSize limits incoming frames. Zero means no limit.
	MaxFrameSize uint32
	// Hostname is compared against Candidate.LocalName. It defaults to
	// os.Hostname.
	Hostname string
}

// Client is a connection to a PulseAudio server.
type Client struct {
	cfg    Config
	log    *slog.Logger
	tracer trace.Tracer

	mu        sync.Mutex
	c         *proto.Client
	state     State
	index     proto.Index
	candidate Candidate

	events *eventQueue
}

// Connect tries each candidate in order and returns a client that is
// ready for requests.
//
// A candidate that cannot be dialed, or whose connection is closed before
// the handshake completes, is skipped. An error reply during the handshake
// is returned without trying further candidates. When all candidates fail
// the error wraps ErrNoServer.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if len(cfg.Cookie) == 0 {
		// anonymous: accepted by servers with auth-anonymous
		cfg.Cookie = make([]byte, proto.CookieLength)
	}
	c := &Client{
		cfg:   cfg,
		log:   cfg.Logger,
		index: proto.NoIndex,
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.tracer = cfg.Tracer
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/deskaudio/pulse")
	}
	c.events = newEventQueue(c.deliver)

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	hostname := cfg.Hostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	lastErr := ErrNoServer
	for _, cand := range cfg.Candidates {
		if cand.LocalName != "" && cand.LocalName != hostname {
			c.log.Debug("pulseaudio: skipping server for another host", "server", cand.String())
			continue
		}
		c.setState(StateConnecting)
		conn, err := dialer.DialContext(ctx, cand.Network, cand.Address)
		if err != nil {
			if ctx.Err() != nil {
				c.setState(StateClosed)
				return nil, ctx.Err()
			}
			c.log.Debug("pulseaudio: cannot connect", "server", cand.String(), "error", err)
			lastErr = err
			continue
		}
		err = c.handshake(ctx, conn, cand)
		if err == nil {
			c.events.start()
			return c, nil
		}
		if ctx.Err() != nil {
			c.setState(StateClosed)
			return nil, ctx.Err()
		}
		if !closedBeforeReady(err) {
			c.setState(StateClosed)
			return nil, fmt.Errorf("pulseaudio: handshake with %s: %w", cand, err)
		}
		c.log.Debug("pulseaudio: connection closed during handshake", "server", cand.String(), "error", err)
		lastErr = err
	}
	c.setState(StateClosed)
	if lastErr == ErrNoServer {
		return nil, ErrNoServer
	}
	return nil, fmt.Errorf("%w: %w", ErrNoServer, lastErr)
}

// closedBeforeReady reports whether a handshake failed because the
// transport went away, as opposed to the server rejecting the client.
func closedBeforeReady(err error) bool {
	return errors.Is(err, proto.ErrConnectionTerminated) && !errors.Is(err, proto.ErrProtocolError)
}

func (c *Client) handshake(ctx context.Context, conn net.Conn, cand Candidate) error {
	pc := &proto.Client{
		Logger:       c.log,
		MaxFrameSize: c.cfg.MaxFrameSize,
		OnEvent:      c.onEvent,
	}
	pc.OnConnectionClosed = func(err error) { c.connectionClosed(pc, err) }

	c.mu.Lock()
	c.c = pc
	c.candidate = cand
	c.mu.Unlock()
	pc.Open(conn)

	fail := func(err error) error {
		pc.Close()
		pc.Wait()
		return err
	}

	c.setState(StateAuthenticating)
	var auth proto.AuthReply
	err := pc.Request(ctx, &proto.Auth{Version: proto.ProtocolVersion, Cookie: c.cfg.Cookie}, &auth)
	if err != nil {
		return fail(err)
	}
	if auth.Version.Version() < proto.MinimumVersion.Version() {
		return fail(fmt.Errorf("pulseaudio: server speaks version %d: %w", auth.Version.Version(), proto.ErrIncompatibleProtocolVersion))
	}
	pc.SetVersion(auth.Version)

	c.setState(StateNaming)
	props := c.cfg.Properties
	if props == nil {
		props = proto.PropList{}
	}
	var name proto.SetClientNameReply
	err = pc.Request(ctx, &proto.SetClientName{Props: props, Name: props.String("application.name")}, &name)
	if err != nil {
		return fail(err)
	}

	// typed requests are numbered from 0
	if err := pc.ResetTags(); err != nil {
		return fail(err)
	}

	c.mu.Lock()
	if err := pc.Err(); err != nil {
		c.mu.Unlock()
		return fail(fmt.Errorf("%w: %w", proto.ErrConnectionTerminated, err))
	}
	c.index = name.ClientIndex
	c.state = StateReady
	c.mu.Unlock()
	c.stateChanged(StateReady)

	c.log.Info("pulseaudio: connected",
		"server", cand.String(),
		"version", pc.Version().Version(),
		"client_index", name.ClientIndex)
	return nil
}

// connectionClosed runs once per connection, on the read loop or in Close.
func (c *Client) connectionClosed(pc *proto.Client, err error) {
	c.mu.Lock()
	if c.c != pc || c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.index = proto.NoIndex
	c.state = StateClosed
	c.mu.Unlock()
	c.stateChanged(StateClosed)
	c.events.close()
	if !errors.Is(err, proto.ErrClosed) {
		c.log.Warn("pulseaudio: connection lost", "error", err)
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.stateChanged(s)
}

func (c *Client) stateChanged(s State) {
	c.cfg.Metrics.setState(s)
	c.log.Debug("pulseaudio: state", "state", s.String())
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(s)
	}
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Index returns the index the server assigned to this client, or
// proto.NoIndex when not connected.
func (c *Client) Index() proto.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// ProtocolVersion returns the negotiated protocol version, or -1 when not
// connected.
func (c *Client) ProtocolVersion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return -1
	}
	return c.c.Version().Version()
}

// Server returns the candidate the client is connected to.
func (c *Client) Server() Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidate
}

// Close closes the connection and waits for its goroutines to exit.
// Requests still pending fail with proto.ErrConnectionTerminated.
func (c *Client) Close() error {
	c.mu.Lock()
	pc := c.c
	c.mu.Unlock()
	if pc == nil {
		return nil
	}
	pc.Close()
	c.setState(StateClosed)
	c.events.close()
	pc.Wait()
	return nil
}

// Done is closed when the connection has ended.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.Done()
}

// Err returns why the connection ended: proto.ErrClosed after Close, io.EOF
// if the server hung up. It is nil while connected.
func (c *Client) Err() error {
	c.mu.Lock()
	pc := c.c
	c.mu.Unlock()
	return pc.Err()
}

// A ClientOption configures NewClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	server     string
	cookie     []byte
	cookiePath string
	props      proto.PropList
	cfg        Config
}

// ClientApplicationName sets the application.name property.
func ClientApplicationName(name string) ClientOption {
	return func(o *clientOptions) { o.props.Set("application.name", name) }
}

// ClientProperty sets a client property.
func ClientProperty(key, value string) ClientOption {
	return func(o *clientOptions) { o.props.Set(key, value) }
}

// ClientServerString sets the servers to connect to, overriding the
// environment.
//
// see https://www.freedesktop.org/wiki/Software/PulseAudio/Documentation/User/ServerStrings/
func ClientServerString(s string) ClientOption {
	return func(o *clientOptions) { o.server = s }
}

// ClientCookie sets the authentication cookie.
func ClientCookie(cookie []byte) ClientOption {
	return func(o *clientOptions) { o.cookie = cookie }
}

// ClientCookieFile reads the authentication cookie from path.
func ClientCookieFile(path string) ClientOption {
	return func(o *clientOptions) { o.cookiePath = path }
}

func ClientLogger(log *slog.Logger) ClientOption {
	return func(o *clientOptions) { o.cfg.Logger = log }
}

func ClientMetrics(m *Metrics) ClientOption {
	return func(o *clientOptions) { o.cfg.Metrics = m }
}

func ClientTracer(t trace.Tracer) ClientOption {
	return func(o *clientOptions) { o.cfg.Tracer = t }
}

func ClientDialer(d Dialer) ClientOption {
	return func(o *clientOptions) { o.cfg.Dialer = d }
}

func ClientStateHandler(f func(State)) ClientOption {
	return func(o *clientOptions) { o.cfg.OnStateChange = f }
}

func ClientMaxFrameSize(n uint32) ClientOption {
	return func(o *clientOptions) { o.cfg.MaxFrameSize = n }
}

// NewClient resolves the server and cookie from the environment and
// connects.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	o := clientOptions{props: defaultProperties()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	env := hostEnvironment()
	r, err := env.resolve(o.server, o.cookiePath, log)
	if err != nil {
		return nil, err
	}
	cfg := o.cfg
	cfg.Candidates = r.candidates
	cfg.Cookie = r.cookie
	if o.cookie != nil {
		cfg.Cookie = o.cookie
	}
	cfg.Properties = o.props
	return Connect(ctx, cfg)
}

func defaultProperties() proto.PropList {
	props := proto.PropList{}
	if len(os.Args) > 0 {
		props.Set("application.name", filepath.Base(os.Args[0]))
		props.Set("application.process.binary", filepath.Base(os.Args[0]))
	}
	props.Set("application.process.id", strconv.Itoa(os.Getpid()))
	if u, err := user.Current(); err == nil {
		props.Set("application.process.user", u.Username)
	}
	if host, err := os.Hostname(); err == nil {
		props.Set("application.process.host", host)
	}
	if d := os.Getenv("DISPLAY"); d != "" {
		props.Set("window.x11.display", d)
	}
	return props
}
