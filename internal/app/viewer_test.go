package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/gyro2d/internal/orientation"
	"github.com/relabs-tech/gyro2d/internal/render"
	"github.com/relabs-tech/gyro2d/internal/touch"
)

func startViewer(t *testing.T, touches chan touch.Event) (*Viewer, *websocket.Conn) {
	t.Helper()
	v := NewViewer(":0", 0, touches, zap.NewNop())
	srv := httptest.NewServer(v.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = v.Close() })

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return v.clientCount() == 1 }, time.Second, 5*time.Millisecond)
	return v, conn
}

func TestViewer_ForwardsTouchEvents(t *testing.T) {
	touches := make(chan touch.Event, 4)
	_, conn := startViewer(t, touches)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"wiggle","pointers":[]}`)))
	require.NoError(t, conn.WriteJSON(touch.Event{
		Action:   touch.ActionMove,
		Pointers: []touch.Point{{X: 10, Y: 20}, {X: 30, Y: 40}},
	}))

	select {
	case ev := <-touches:
		assert.Equal(t, touch.ActionMove, ev.Action)
		assert.Equal(t, []touch.Point{{X: 10, Y: 20}, {X: 30, Y: 40}}, ev.Pointers)
	case <-time.After(time.Second):
		t.Fatal("touch event not forwarded")
	}
	assert.Empty(t, touches, "unknown action must be dropped")
}

func TestViewer_PushesPNGFrames(t *testing.T) {
	v, conn := startViewer(t, make(chan touch.Event, 1))

	scene := render.Scene{Orientation: orientation.State{RotationZ: 1}}
	img := render.NewRenderer(32, 48).Render(scene)
	require.NoError(t, v.Present(context.Background(), Frame{Seq: 1, At: t0, Image: img, Scene: scene}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)

	decoded, err := png.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestViewer_DisconnectUnregisters(t *testing.T) {
	v, conn := startViewer(t, make(chan touch.Event, 1))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return v.clientCount() == 0 }, time.Second, 5*time.Millisecond)

	// Presenting with nobody connected is a no-op.
	img := render.NewRenderer(8, 8).Render(render.Scene{})
	assert.NoError(t, v.Present(context.Background(), Frame{Seq: 2, At: t0, Image: img}))
}

func TestViewer_CloseReleasesBlockedTouch(t *testing.T) {
	// Nobody reads touches, so the handler blocks handing one over.
	v := NewViewer(":0", 0, make(chan touch.Event), zap.NewNop())
	returned := make(chan struct{})
	h := v.Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
		if r.URL.Path == "/ws" {
			close(returned)
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return v.clientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(touch.Event{Action: touch.ActionDown, Pointers: []touch.Point{{X: 1, Y: 2}}}))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("websocket handler still blocked after Close")
	}
	assert.Zero(t, v.clientCount())
}

func TestViewer_OrientationEndpoint(t *testing.T) {
	v := NewViewer(":0", 0, make(chan touch.Event), zap.NewNop())
	h := v.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	st := orientation.State{RotationX: 0.25, RotationY: -0.5, RotationZ: 3}
	require.NoError(t, v.Present(context.Background(), Frame{Seq: 1, At: t0, Scene: render.Scene{Orientation: st}}))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got orientation.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, st, got)
}

func TestViewer_IndexPage(t *testing.T) {
	h := NewViewer(":0", 0, make(chan touch.Event), zap.NewNop()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/ws"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
