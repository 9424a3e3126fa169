package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/feedforge/marketsim/cmd/simulator/internal/market"
	"github.com/feedforge/marketsim/pkg/models"
)

// acceptPoll is the accept deadline so the loop observes shutdown promptly.
const acceptPoll = 1 * time.Second

// Sink receives each broadcast cycle's batch after socket fan-out. Errors
// are logged per cycle and never stop the broadcast loop.
type Sink interface {
	Publish(ctx context.Context, batch []models.Tick) error
}

type Config struct {
	Addr           string
	UpdateInterval time.Duration
}

// Server owns the listening socket, the accept loop, and the broadcast loop.
// The two loops run concurrently and share only the client registry and the
// running flag.
type Server struct {
	cfg         Config
	logger      *zap.Logger
	instruments *market.Registry
	clients     *ClientRegistry
	sinks       []Sink

	listener *net.TCPListener
	running  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg Config, logger *zap.Logger, instruments *market.Registry, sinks []Sink) *Server {
	return &Server{
		cfg:         cfg,
		logger:      logger,
		instruments: instruments,
		clients:     NewClientRegistry(),
		sinks:       sinks,
	}
}

// Start binds the listening socket and launches the accept and broadcast
// loops. Bind failures are returned to the caller and are the only errors
// that escape; everything after a successful bind is contained internally.
func (s *Server) Start() error {
	addr, err := net.ResolveTCPAddr("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.running.Store(true)

	s.logger.Info("Market data simulator started",
		zap.String("addr", listener.Addr().String()),
		zap.Strings("instruments", s.instruments.Symbols()),
		zap.Duration("update_interval", s.cfg.UpdateInterval))

	s.wg.Add(2)
	go s.acceptLoop()
	go s.broadcastLoop()
	return nil
}

// Addr returns the bound listen address. Useful when starting on port 0.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// ClientCount returns the number of currently registered clients.
func (s *Server) ClientCount() int { return s.clients.Len() }

// Stop flips the running flag, closes every client, closes the listener, and
// waits for both loops to exit. Idempotent and safe from a signal path.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Shutting down market data simulator")
		s.running.Store(false)
		s.clients.CloseAll()
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		s.logger.Info("Market data simulator stopped")
	})
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		s.listener.SetDeadline(time.Now().Add(acceptPoll))
		conn, err := s.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if s.running.Load() {
				s.logger.Error("Error accepting client", zap.Error(err))
			}
			continue
		}
		s.attach(newTCPConn(conn))
	}
}

// attach registers a freshly accepted connection and sends the welcome
// message. A failed welcome means the client is already gone (for example a
// health-check probe) and the handle is evicted on the spot.
func (s *Server) attach(c Conn) {
	s.clients.Add(c)
	s.logger.Info("Client connected",
		zap.String("remote", c.ID()),
		zap.Int("total_clients", s.clients.Len()))

	welcome := models.WelcomeMessage{
		Type:             models.TypeWelcome,
		Message:          "Connected to Market Data Simulator",
		Instruments:      s.instruments.Symbols(),
		UpdateIntervalMS: float64(s.cfg.UpdateInterval.Milliseconds()),
	}
	if result, err := Send(c, welcome); result != Sent {
		s.clients.RemoveAll([]Conn{c})
		s.logger.Debug("Client dropped before welcome",
			zap.String("remote", c.ID()), zap.Error(err))
	}
}

// broadcastLoop runs one generation cycle per update interval. The sleep is
// fixed regardless of cycle duration; drift under load is accepted.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		s.broadcastOnce()
		time.Sleep(s.cfg.UpdateInterval)
	}
}

// broadcastOnce generates one batch and fans it out to every live client.
// Failures evict the offending client only; the next cycle always proceeds.
func (s *Server) broadcastOnce() {
	batch := s.instruments.GenerateBatch()
	msg := models.BatchMessage{
		Type:      models.TypeMarketData,
		Timestamp: market.FormatTimestamp(s.instruments.Now()),
		Data:      batch,
	}

	var dead []Conn
	for _, c := range s.clients.Snapshot() {
		result, err := Send(c, msg)
		switch result {
		case Disconnected:
			dead = append(dead, c)
		case UnexpectedError:
			s.logger.Warn("Failed to send to client",
				zap.String("remote", c.ID()), zap.Error(err))
			dead = append(dead, c)
		}
	}
	if removed := s.clients.RemoveAll(dead); removed > 0 {
		s.logger.Info("Clients disconnected",
			zap.Int("dropped", removed),
			zap.Int("total_clients", s.clients.Len()))
	}

	for _, sink := range s.sinks {
		if err := sink.Publish(context.Background(), batch); err != nil {
			s.logger.Error("Sink publish error", zap.Error(err))
		}
	}
}
