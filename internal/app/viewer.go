// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/orientation"
	"github.com/relabs-tech/gyro2d/internal/touch"
)

const (
	viewerWriteTimeout = 2 * time.Second
	viewerClientBuffer = 2
)

// Viewer serves the live frames to browsers over WebSocket and feeds their
// pointer events back into the loop as touch events. The browser page is
// the host view: it shows frames and reports touches, nothing else.
type Viewer struct {
	addr        string
	minInterval time.Duration
	touches     chan<- touch.Event
	log         *zap.Logger
	upgrader    websocket.Upgrader
	encoder     png.Encoder

	done      chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	clients   map[string]*viewerClient
	lastState orientation.State
	haveState bool
	lastSent  time.Time
}

type viewerClient struct {
	conn   *websocket.Conn
	frames chan []byte
}

// NewViewer returns a viewer listening on addr once Serve is called.
// Frames are pushed to browsers at most once per minInterval.
func NewViewer(addr string, minInterval time.Duration, touches chan<- touch.Event, log *zap.Logger) *Viewer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Viewer{
		addr:        addr,
		minInterval: minInterval,
		touches:     touches,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local viewer, any origin
			},
		},
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
		done:    make(chan struct{}),
		clients: make(map[string]*viewerClient),
	}
}

// Handler returns the HTTP routes of the viewer.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", v.handleIndex)
	mux.HandleFunc("/ws", v.handleWS)
	mux.HandleFunc("/api/orientation", v.handleOrientation)
	return mux
}

// Serve listens until ctx is done.
func (v *Viewer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              v.addr,
		Handler:           v.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	v.log.Info("viewer: listening", zap.String("addr", v.addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

// Present records the orientation for the JSON endpoint and pushes the
// frame to connected browsers. Slow browsers skip frames.
func (v *Viewer) Present(_ context.Context, f Frame) error {
	v.mu.Lock()
	v.lastState = f.Scene.Orientation
	v.haveState = true
	due := len(v.clients) > 0 && f.At.Sub(v.lastSent) >= v.minInterval
	if due {
		v.lastSent = f.At
	}
	v.mu.Unlock()
	if !due {
		return nil
	}

	var buf bytes.Buffer
	if err := v.encoder.Encode(&buf, f.Image); err != nil {
		return fmt.Errorf("viewer: encode frame %d: %w", f.Seq, err)
	}
	payload := buf.Bytes()

	v.mu.RLock()
	defer v.mu.RUnlock()
	for id, c := range v.clients {
		select {
		case c.frames <- payload:
		default:
			v.log.Debug("viewer: client behind, frame dropped", zap.String("client", id), zap.Uint64("frame", f.Seq))
		}
	}
	return nil
}

// Close disconnects every browser and unblocks handlers waiting to hand a
// touch to the loop.
func (v *Viewer) Close() error {
	v.closeOnce.Do(func() { close(v.done) })

	v.mu.Lock()
	defer v.mu.Unlock()
	for id, c := range v.clients {
		close(c.frames)
		_ = c.conn.Close()
		delete(v.clients, id)
	}
	return nil
}

func (v *Viewer) clientCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.clients)
}

func (v *Viewer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := v.upgrader.Upgrade(w, r, nil)
	if err != nil {
		v.log.Warn("viewer: websocket upgrade error", zap.Error(err))
		return
	}

	id := uuid.NewString()
	c := &viewerClient{conn: conn, frames: make(chan []byte, viewerClientBuffer)}
	v.mu.Lock()
	select {
	case <-v.done:
		v.mu.Unlock()
		_ = conn.Close()
		return
	default:
	}
	v.clients[id] = c
	v.mu.Unlock()
	v.log.Info("viewer: client connected", zap.String("client", id), zap.String("remote", r.RemoteAddr))

	go c.writeFrames(v.log.With(zap.String("client", id)))

	defer func() {
		v.mu.Lock()
		if _, ok := v.clients[id]; ok {
			close(c.frames)
			delete(v.clients, id)
		}
		v.mu.Unlock()
		_ = conn.Close()
		v.log.Info("viewer: client disconnected", zap.String("client", id))
	}()

	for {
		var ev touch.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.log.Warn("viewer: websocket read error", zap.String("client", id), zap.Error(err))
			}
			return
		}
		if !validAction(ev.Action) {
			v.log.Debug("viewer: unknown touch action", zap.String("action", string(ev.Action)))
			continue
		}
		select {
		case v.touches <- ev:
		case <-v.done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (c *viewerClient) writeFrames(log *zap.Logger) {
	for payload := range c.frames {
		_ = c.conn.SetWriteDeadline(time.Now().Add(viewerWriteTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			log.Debug("viewer: write error", zap.Error(err))
			_ = c.conn.Close()
			// Keep draining until the reader unregisters us.
			for range c.frames {
			}
			return
		}
	}
}

func validAction(a touch.Action) bool {
	switch a {
	case touch.ActionDown, touch.ActionMove, touch.ActionUp, touch.ActionCancel:
		return true
	}
	return false
}

func (v *Viewer) handleOrientation(w http.ResponseWriter, r *http.Request) {
	v.mu.RLock()
	state, have := v.lastState, v.haveState
	v.mu.RUnlock()

	if !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		v.log.Warn("viewer: json encode error", zap.Error(err))
	}
}

func (v *Viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(viewerPage))
}

// viewerPage shows frames and reports pointers in frame coordinates.
const viewerPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>gyro2d</title>
<style>
html, body { margin: 0; height: 100%; background: #000; }
img { display: block; margin: 0 auto; max-width: 100%; max-height: 100%; touch-action: none; }
</style>
</head>
<body>
<img id="frame" alt="">
<script>
const img = document.getElementById("frame");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.binaryType = "blob";
let url = null;
ws.onmessage = (m) => {
  const next = URL.createObjectURL(m.data);
  img.src = next;
  if (url) URL.revokeObjectURL(url);
  url = next;
};
const active = new Map();
function pointers() {
  const r = img.getBoundingClientRect();
  const sx = img.naturalWidth / r.width, sy = img.naturalHeight / r.height;
  return [...active.values()].map(p => ({x: (p.x - r.left) * sx, y: (p.y - r.top) * sy}));
}
function send(action) {
  if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify({action, pointers: pointers()}));
}
img.addEventListener("pointerdown", e => { active.set(e.pointerId, {x: e.clientX, y: e.clientY}); send(active.size === 1 ? "down" : "move"); });
img.addEventListener("pointermove", e => { if (!active.has(e.pointerId)) return; active.set(e.pointerId, {x: e.clientX, y: e.clientY}); send("move"); });
img.addEventListener("pointerup", e => { active.delete(e.pointerId); send(active.size === 0 ? "up" : "move"); });
img.addEventListener("pointercancel", e => { active.delete(e.pointerId); send("cancel"); });
</script>
</body>
</html>
`
