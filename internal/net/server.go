package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"riptide/internal/engine"
	"riptide/internal/utils"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultIdleTimeout = 30 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession tracks one connected TCP session.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a parsed message to the client that sent it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Server is the command transport: it reads binary command frames off TCP
// sessions, dispatches them to the matching engine and writes a result
// report back to the sender. It owns no matching state of its own.
type Server struct {
	address            string
	port               int
	engine             *engine.Engine
	pool               utils.WorkerPool
	cancel             context.CancelFunc
	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex
	clientMessages     chan ClientMessage
}

func New(address string, port int, eng *engine.Engine) *Server {
	return &Server{
		address:        address,
		port:           port,
		engine:         eng,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		clientSessions: make(map[string]ClientSession),
		clientMessages: make(chan ClientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	s.cancel()
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	// Closing the listener is what unblocks Accept on shutdown.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	s.pool.Setup(t, s.handleConnection)

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().
				Str("address", conn.RemoteAddr().String()).
				Msg("new client added")
			s.addClientSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

// sessionHandler consumes parsed client messages, runs them through the
// engine and reports the outcome back to the sender. Commands are handled
// one at a time in arrival order.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			report := s.handleMessage(message.message)
			if err := s.report(message.clientAddress, report); err != nil {
				log.Error().
					Err(err).
					Str("address", message.clientAddress).
					Msg("unable to deliver report")
			}
		}
	}
}

func (s *Server) handleMessage(msg Message) Report {
	switch m := msg.(type) {
	case *NewOrderMessage:
		cmd, err := m.Command()
		if err != nil {
			return errorReport(err)
		}
		result, err := s.engine.PlaceOrder(cmd)
		if err != nil {
			return errorReport(err)
		}
		return Report{
			TypeOf:       PlacementReport,
			OrderID:      result.OrderID,
			Filled:       result.Filled.String(),
			AveragePrice: result.AveragePrice().String(),
			Remaining:    result.Remaining.String(),
			Rested:       result.Rested,
		}

	case *CancelOrderMessage:
		result, err := s.engine.CancelOrder(m.Command())
		if err != nil {
			return errorReport(err)
		}
		return Report{
			TypeOf:    CancelReport,
			OrderID:   result.OrderID,
			Remaining: result.Remaining.String(),
		}

	default:
		return errorReport(ErrInvalidMessageType)
	}
}

func errorReport(err error) Report {
	return Report{TypeOf: ErrorReport, Err: err.Error()}
}

// report writes a serialized report frame back to the client session.
func (s *Server) report(clientAddress string, report Report) error {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		return ErrClientDoesNotExist
	}

	if _, err := client.conn.Write(report.Serialize()); err != nil {
		delete(s.clientSessions, clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// handleConnection is a short-lived worker task: it reads the next frame
// off the connection, parses it and hands it to sessionHandler, then
// re-queues the connection for its next frame. A dead connection cleans up
// its session. Any error returned from here is fatal to the pool.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultIdleTimeout)); err != nil {
		log.Error().
			Str("address", conn.RemoteAddr().String()).
			Err(err).
			Msg("failed setting deadline for connection")
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			// The client likely went away. Clean up the session.
			log.Info().
				Err(err).
				Str("address", conn.RemoteAddr().String()).
				Msg("closing client connection")
			s.deleteClientSession(conn.RemoteAddr().String())
			if err := conn.Close(); err != nil {
				log.Error().Str("address", conn.RemoteAddr().String()).Err(err).Send()
			}
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().
				Err(err).
				Str("address", conn.RemoteAddr().String()).
				Msg("error parsing message")
		} else {
			s.clientMessages <- ClientMessage{
				message:       message,
				clientAddress: conn.RemoteAddr().String(),
			}
		}

		// Push the connection back to handle the next message.
		s.pool.AddTask(conn)
	}
	return nil
}

// addClientSession is an atomic map add.
func (s *Server) addClientSession(conn net.Conn) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	s.clientSessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

// deleteClientSession is an atomic map remove.
func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	delete(s.clientSessions, address)
}
