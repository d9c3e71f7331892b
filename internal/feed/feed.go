// Package feed streams each book's event log to websocket subscribers.
// Subscribers follow the log through a positional cursor, so a slow reader
// trails the writer but always sees events in append order.
package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"riptide/internal/common"
	"riptide/internal/engine"
)

const defaultPollInterval = 250 * time.Millisecond

// wireEvent is the JSON shape of one event on the feed. Decimals travel as
// exact strings.
type wireEvent struct {
	Seq       uint64    `json:"seq"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Pair      string    `json:"pair"`
	OrderID   string    `json:"order_id"`
	Side      string    `json:"side"`
	Price     string    `json:"price,omitempty"`
	Quantity  string    `json:"quantity"`
	MakerID   string    `json:"maker_id,omitempty"`
	TakerID   string    `json:"taker_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

func toWire(e engine.Event) wireEvent {
	return wireEvent{
		Seq:       e.Seq,
		Kind:      e.Kind.String(),
		Timestamp: e.Timestamp,
		Pair:      e.Pair.String(),
		OrderID:   e.OrderID,
		Side:      e.Side.String(),
		Price:     e.Price.String(),
		Quantity:  e.Quantity.String(),
		MakerID:   e.MakerID,
		TakerID:   e.TakerID,
		Reason:    e.Reason,
	}
}

type Server struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
	poll     time.Duration
}

func New(eng *engine.Engine) *Server {
	return &Server{
		engine:   eng,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		poll:     defaultPollInterval,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Run serves the feed until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("feed shutdown")
		}
	}()

	log.Info().Str("address", addr).Msg("feed running")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleEvents upgrades the connection and streams the requested book's
// event log from the beginning, then follows new appends.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	pair := common.NewTradingPair(
		common.Asset(r.URL.Query().Get("base")),
		common.Asset(r.URL.Query().Get("quote")),
	)
	book, ok := s.engine.Book(pair)
	if !ok {
		http.Error(w, engine.ErrUnknownTradingPair.Error(), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	eventLog := book.Events()
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var cursor uint64
	for {
		for _, event := range eventLog.ReadFrom(cursor) {
			if err := conn.WriteJSON(toWire(event)); err != nil {
				log.Info().
					Err(err).
					Str("pair", pair.String()).
					Msg("feed subscriber dropped")
				return
			}
			cursor = event.Seq
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
