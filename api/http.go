// Package api exposes a read-only view of a running node over HTTP:
// JSON status endpoints plus a websocket feed of newly-decided
// transactions, grounded on the teacher's api/ws.go sink/client
// pattern. The teacher's per-client debouncer
// (github.com/perlin-network/wavelet/debouncer) lives outside the
// retrieval pack, so broadcast fan-out here is a direct buffered-channel
// send instead (see DESIGN.md); everything else — fasthttp, the
// fasthttprouter mux, fastjson encoding, the fasthttp/websocket upgrade
// handshake — follows ws.go's shape.
package api

import (
	"strconv"
	"sync"
	"time"

	"github.com/buaazp/fasthttprouter"
	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	hashgraph "github.com/champii/hashgraph"
	"github.com/champii/hashgraph/common"
	"github.com/champii/hashgraph/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.FastHTTPUpgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(ctx *fasthttp.RequestCtx) bool { return true },
}

// Ledger is the subset of *hashgraph.Ledger the API reads from.
type Ledger interface {
	Known() map[common.PeerID]uint64
	CurrentPeers() *hashgraph.PeerSet
}

// Server serves the status endpoints and the decided-transaction feed
// for one node.
type Server struct {
	ledger Ledger

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

// NewServer creates a Server fronting ledger. Call Broadcast with every
// event the ledger's Output channel yields to fan it out to subscribers.
func NewServer(ledger Ledger) *Server {
	return &Server{
		ledger:  ledger,
		clients: make(map[*client]struct{}),
	}
}

// Router builds the fasthttprouter mux for this server's routes:
// /known, /peers, and the /feed websocket upgrade.
func (s *Server) Router() *fasthttprouter.Router {
	r := fasthttprouter.New()
	r.GET("/known", s.handleKnown)
	r.GET("/peers", s.handlePeers)
	r.GET("/feed", s.handleFeed)

	return r
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Node().Info().Str("addr", addr).Msg("starting status api")

	return fasthttp.ListenAndServe(addr, s.Router().Handler)
}

func (s *Server) handleKnown(ctx *fasthttp.RequestCtx) {
	known := s.ledger.Known()

	var buf []byte
	buf = append(buf, '{')

	first := true

	for creator, last := range known {
		if !first {
			buf = append(buf, ',')
		}
		first = false

		buf = append(buf, '"')
		buf = strconv.AppendUint(buf, uint64(creator), 10)
		buf = append(buf, '"', ':')
		buf = strconv.AppendUint(buf, last, 10)
	}

	buf = append(buf, '}')

	ctx.SetContentType("application/json")
	ctx.SetBody(buf)
}

func (s *Server) handlePeers(ctx *fasthttp.RequestCtx) {
	peers := s.ledger.CurrentPeers().Peers()

	buf := append([]byte(nil), '['...)

	for i, p := range peers {
		if i > 0 {
			buf = append(buf, ',')
		}

		buf = append(buf, '{', '"', 'i', 'd', '"', ':')
		buf = strconv.AppendUint(buf, uint64(p.ID), 10)
		buf = append(buf, ',', '"', 'a', 'd', 'd', 'r', 'e', 's', 's', '"', ':', '"')
		buf = append(buf, []byte(p.Address)...)
		buf = append(buf, '"', '}')
	}

	buf = append(buf, ']')

	ctx.SetContentType("application/json")
	ctx.SetBody(buf)
}

func (s *Server) handleFeed(ctx *fasthttp.RequestCtx) {
	err := upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		c := &client{
			server: s,
			conn:   conn,
			sendC:  make(chan []byte, 256),
		}

		s.clientsMu.Lock()
		s.clients[c] = struct{}{}
		s.clientsMu.Unlock()

		go c.readWorker()

		c.writeWorker()
	})
	if err != nil {
		log.Node().Warn().Err(err).Msg("websocket upgrade failed")
	}
}

// Broadcast encodes a decided event as JSON and fans it out to every
// connected feed client, dropping slow clients rather than blocking.
func (s *Server) Broadcast(e *hashgraph.Event) {
	var arena fastjson.Arena

	obj := arena.NewObject()
	obj.Set("id", arena.NewNumberInt(int(e.ID)))
	obj.Set("creator", arena.NewNumberString(strconv.FormatUint(uint64(e.Creator), 10)))
	obj.Set("received_round", arena.NewNumberInt(int(e.ReceivedRound)))
	obj.Set("consensus_timestamp", arena.NewNumberString(strconv.FormatUint(e.ConsensusTimestamp, 10)))
	obj.Set("transactions", arena.NewNumberInt(len(e.Transactions)))

	msg := obj.MarshalTo(nil)

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for c := range s.clients {
		select {
		case c.sendC <- msg:
		default:
			close(c.sendC)
			delete(s.clients, c)
		}
	}
}

type client struct {
	server *Server
	conn   *websocket.Conn
	sendC  chan []byte
}

func (c *client) readWorker() {
	defer func() {
		c.server.clientsMu.Lock()
		delete(c.server.clients, c)
		c.server.clientsMu.Unlock()

		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writeWorker() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendC:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
