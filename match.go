// Matchbox Matching Game
//
// The owner pastes a word list, one "term - definition" pair per line. Each
// round draws a pool of pairs, shows terms on the left and definitions on the
// right, and the players pick one card from each column to match them.
//
// Features:
// - WebSockets per game ID: /match/:gameid and /match/:gameid/ws
// - First connection to a game becomes the owner
// - Owner's cookie namespaces the saved word list and settings
// - Only the owner may edit the word list, change settings, save or load the sample
// - Any player may select cards, reset, start a new round or ask for a share link
// - Optional countdown, ticked by the game's own goroutine while it runs
// - Word lists travel in the URL fragment, so links carry the whole game
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current word list, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/matchbox/games/matching"
	"github.com/Seednode/matchbox/share"
	"github.com/Seednode/matchbox/storage"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	matchPath = "/match"

	tickInterval   = time.Second
	storageTimeout = 5 * time.Second
	qrSize         = 320

	noticeOwnerOnly  = "Only the game owner can do that"
	noticeSaveFailed = "Could not save the word list"
	noticeNoShare    = "Could not build a share link"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string                  `json:"type"`               // "hello", "fragment", "select", "reset", "new_round", "apply", "text", "settings", "save", "update_url", "sample", "share"
	Fragment string                  `json:"fragment,omitempty"` // hello / fragment
	Side     string                  `json:"side,omitempty"`     // select
	CardID   string                  `json:"card_id,omitempty"`  // select
	Text     *string                 `json:"text,omitempty"`     // text
	Settings *matching.SettingsPatch `json:"settings,omitempty"` // settings
}

// StateMessage carries everything needed to draw the board.
type StateMessage struct {
	Type    string        `json:"type"` // "state"
	State   matching.View `json:"state"`
	IsOwner bool          `json:"is_owner"`
}

// FragmentMessage asks the owner's browser to rewrite its URL fragment.
type FragmentMessage struct {
	Type     string `json:"type"` // "fragment"
	Fragment string `json:"fragment"`
}

// ShareLinkMessage is sent only to the client that asked for it.
type ShareLinkMessage struct {
	Type string `json:"type"` // "share_link"
	URL  string `json:"url"`
}

// SimpleMessage is for generic notifications.
type SimpleMessage struct {
	Type    string `json:"type"` // "notice"
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	base     string // page URL without fragment, for share links
}

type action struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	ctx     context.Context
	backend storage.Backend
	opts    []matching.Option
	log     *zap.Logger

	clients map[*Client]bool
	session *matching.Session
	loaded  bool
	ownerID string

	register chan *Client
	unreg    chan *Client
	actions  chan action
	requests chan chan matching.View

	tickInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newHub(ctx context.Context, gameID string, backend storage.Backend, opts []matching.Option, log *zap.Logger, tick time.Duration) *Hub {
	now := time.Now()
	return &Hub{
		id:           gameID,
		ctx:          ctx,
		backend:      backend,
		opts:         opts,
		log:          log.With(zap.String("game", gameID)),
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unreg:        make(chan *Client),
		actions:      make(chan action),
		requests:     make(chan chan matching.View),
		tickInterval: tick,
		done:         make(chan struct{}),
		createdAt:    now,
		lastActive:   now,
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

func (h *Hub) run(cfg *Config) {
	var (
		ticker *time.Ticker
		ticks  <-chan time.Time
	)

	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		h.disconnectAll()
	}()

	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.touch()

			// First connection becomes owner
			if h.ownerID == "" {
				h.ownerID = c.playerID
				h.session = matching.NewSession(h.backend.Namespace(h.ownerID), h.opts...)
				logf(cfg, "GAMES: Game %s owned by %s", h.id, h.ownerID)
			}

			h.clients[c] = true

		case c := <-h.unreg:
			h.touch()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case a := <-h.actions:
			h.touch()
			h.handleAction(cfg, a)

		case reply := <-h.requests:
			var view matching.View
			if h.session != nil {
				view = h.session.View()
			}
			reply <- view

		case <-ticks:
			if h.session.Tick() {
				h.broadcastState()
			}
		}

		// The ticker only runs while there is a countdown to advance.
		running := h.session != nil && h.session.TimerRunning()
		switch {
		case running && ticker == nil:
			ticker = time.NewTicker(h.tickInterval)
			ticks = ticker.C
		case !running && ticker != nil:
			ticker.Stop()
			ticker, ticks = nil, nil
		}
	}
}

func (h *Hub) isOwner(c *Client) bool {
	return c.playerID == h.ownerID
}

// ownerOnly is the set of actions that change what the owner has stored.
var ownerOnly = map[string]bool{
	"fragment":   true,
	"text":       true,
	"settings":   true,
	"save":       true,
	"update_url": true,
	"sample":     true,
}

func (h *Hub) handleAction(cfg *Config, a action) {
	c, msg := a.client, a.msg

	if ownerOnly[msg.Type] && !h.isOwner(c) {
		h.sendTo(c, SimpleMessage{Type: "notice", Message: noticeOwnerOnly})

		return
	}

	switch msg.Type {
	case "hello":
		h.handleHello(c, msg.Fragment)

		return

	case "fragment":
		h.session.FragmentChanged(msg.Fragment)

	case "select":
		h.session.Select(matching.Side(msg.Side), msg.CardID)

	case "reset":
		h.session.ResetRound()

	case "new_round", "apply":
		h.session.Reshuffle()

	case "text":
		if msg.Text == nil {
			return
		}
		h.session.SetText(*msg.Text)

	case "settings":
		if msg.Settings == nil {
			return
		}

		ctx, cancel := context.WithTimeout(h.ctx, storageTimeout)
		err := h.session.UpdateSettings(ctx, *msg.Settings)
		cancel()
		if err != nil {
			h.log.Warn("store settings", zap.Error(err))
		}

	case "save":
		ctx, cancel := context.WithTimeout(h.ctx, storageTimeout)
		err := h.session.Save(ctx)
		cancel()
		if err != nil {
			h.log.Warn("store word list", zap.Error(err))
			h.sendTo(c, SimpleMessage{Type: "notice", Message: noticeSaveFailed})
		}

	case "update_url":
		h.sendTo(c, FragmentMessage{Type: "fragment", Fragment: h.session.UpdateFragment()})

	case "sample":
		h.session.LoadSample()
		h.sendTo(c, FragmentMessage{Type: "fragment", Fragment: ""})

	case "share":
		link, err := h.session.ShareLink(c.base)
		if err != nil {
			h.log.Warn("share link", zap.String("base", c.base), zap.Error(err))
			h.sendTo(c, SimpleMessage{Type: "notice", Message: noticeNoShare})

			return
		}
		h.sendTo(c, ShareLinkMessage{Type: "share_link", URL: link})

	default:
		// ignore unknown types
		return
	}

	logf(cfg, "GAMES: %s %s by %s", h.id, msg.Type, c.playerID)

	h.broadcastState()
}

// handleHello loads the owner's game on first contact. Later hellos only
// follow the fragment or answer with the current state.
func (h *Hub) handleHello(c *Client, fragment string) {
	if h.isOwner(c) {
		switch {
		case !h.loaded:
			ctx, cancel := context.WithTimeout(h.ctx, storageTimeout)
			h.session.Load(ctx, fragment)
			cancel()
			h.loaded = true
		case fragment != "":
			h.session.FragmentChanged(fragment)
		}

		h.broadcastState()

		return
	}

	h.sendTo(c, h.stateFor(c, h.session.View()))
}

func (h *Hub) stateFor(c *Client, view matching.View) StateMessage {
	return StateMessage{
		Type:    "state",
		State:   view,
		IsOwner: h.isOwner(c),
	}
}

func (h *Hub) broadcastState() {
	view := h.session.View()

	for client := range h.clients {
		h.sendTo(client, h.stateFor(client, view))
	}
}

// sendTo drops clients whose buffers are full.
func (h *Hub) sendTo(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// view asks the hub loop for a snapshot of the game.
func (h *Hub) view(ctx context.Context) (matching.View, bool) {
	reply := make(chan matching.View, 1)

	select {
	case h.requests <- reply:
	case <-h.done:
		return matching.View{}, false
	case <-ctx.Done():
		return matching.View{}, false
	}

	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		return matching.View{}, false
	}
}

func (h *Hub) stop() {
	h.closeOnce.Do(func() { close(h.done) })
}

// disconnectAll drops every client; only called from the hub loop.
func (h *Hub) disconnectAll() {
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "matchbox_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each
// /match/:gameid is its own isolated session.
type GameManager struct {
	ctx          context.Context
	cfg          *Config
	backend      storage.Backend
	opts         []matching.Option
	idleTimeout  time.Duration
	tickInterval time.Duration

	mu   sync.Mutex
	hubs map[string]*Hub
}

func newGameManager(ctx context.Context, cfg *Config, backend storage.Backend, opts []matching.Option, idleTimeout, tick time.Duration) *GameManager {
	gm := &GameManager{
		ctx:          ctx,
		cfg:          cfg,
		backend:      backend,
		opts:         opts,
		idleTimeout:  idleTimeout,
		tickInterval: tick,
		hubs:         make(map[string]*Hub),
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.ctx, gameID, gm.backend, gm.opts, gm.cfg.log(), gm.tickInterval)
	gm.hubs[gameID] = hub
	go hub.run(gm.cfg)
	return hub
}

// lookup returns a running hub without creating one.
func (gm *GameManager) lookup(gameID string) (*Hub, bool) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	hub, ok := gm.hubs[gameID]

	return hub, ok
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		if _, exists := gm.lookup(id); !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			if hub.idleSince().Before(cutoff) {
				delete(gm.hubs, id)
				hub.stop()
				logf(gm.cfg, "GAMES: Reaped idle game %s", id)
			}
		}
		gm.mu.Unlock()
	}
}

// closeAll stops every running game.
func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.stop()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		// The page sets the cookie; Upgrade cannot, so fall back to a
		// throwaway id for cookieless clients.
		playerID := uuid.NewString()
		if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
			playerID = c.Value
		}

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.log().Debug("upgrade", zap.String("game", gameID), zap.Error(err))
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
			base:     requestBase(r, "/ws"),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.actions <- action{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveState answers with the game's current View as JSON.
func serveState(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, ok := gm.lookup(ps.ByName("gameid"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		view, ok := hub.view(r.Context())
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(view); err != nil {
			errs <- err
		}
	}
}

// QR handler: generates a PNG QR code for a link carrying the game's word list.
func qrHandler(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub, ok := gm.lookup(gameID)
		if !ok {
			http.NotFound(w, r)
			return
		}

		view, ok := hub.view(r.Context())
		if !ok {
			http.NotFound(w, r)
			return
		}

		link, err := share.Link(requestBase(r, "/qr"), strings.TrimSpace(view.Text))
		if err != nil {
			http.Error(w, "invalid share link", http.StatusBadRequest)
			return
		}

		png, err := share.QR(link, qrSize)
		if err != nil {
			cfg.log().Debug("qr", zap.String("game", gameID), zap.Error(err))
			http.Error(w, "word list too long for a QR code", http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("match/index.html")
		if err != nil {
			errs <- err
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		cacheHeaders(w)
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		if _, err := w.Write(data); err != nil {
			errs <- err
		}
	}
}

// redirectNewGame handles GET /match by generating a new random game ID
// (with server-side collision detection) and redirecting to /match/:gameid.
func redirectNewGame(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", matchPath, gameID)

		http.Redirect(w, r, cfg.prefix+matchPath+"/"+gameID, http.StatusSeeOther)
	}
}

func registerMatchGame(ctx context.Context, cfg *Config, backend storage.Backend, mux *httprouter.Router, errs chan<- error) *GameManager {
	opts := []matching.Option{
		matching.WithLogger(cfg.log()),
		matching.WithSample(cfg.sample),
	}

	gm := newGameManager(ctx, cfg, backend, opts, cfg.sessionTimeout, tickInterval)

	base := cfg.prefix + matchPath

	mux.GET(base, redirectNewGame(cfg, gm))
	mux.GET(base+"/:gameid", getIndexHandler(cfg, errs))
	mux.GET(base+"/:gameid/ws", serveWSForManager(cfg, gm))
	mux.GET(base+"/:gameid/state", serveState(cfg, gm, errs))
	mux.GET(base+"/:gameid/qr", qrHandler(cfg, gm))

	logf(cfg, "SERVE: Registered matching game under %s/", base)

	return gm
}
