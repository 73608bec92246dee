// Package remote exposes a Device over a websocket.
//
// Every binary message from the client is one request frame and gets
// exactly one response frame back, in order. Frames are independent: there
// are no remote CTR sessions, so a split keystream has to be driven
// locally.
package remote

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/lanikai/hosal"
	"github.com/lanikai/hosal/internal/logging"

	"github.com/pkg/errors"
)

var log = logging.DefaultLogger.WithTag("remote")

// A Handler serves request frames against one Device.
type Handler struct {
	dev      *hosal.Device
	upgrader websocket.Upgrader
}

func NewHandler(dev *hosal.Device) *Handler {
	return &Handler{dev: dev}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Upgrade websocket connection
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade: %v", err)
		return
	}
	defer ws.Close()

	ws.SetReadLimit(maxFrameLen)
	log.Info("client %s connected", r.RemoteAddr)

	for {
		typ, frame, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Failed to read websocket message: %v", err)
			} else {
				log.Info("client %s disconnected", r.RemoteAddr)
			}
			return
		}

		var reply []byte
		if typ != websocket.BinaryMessage {
			reply = EncodeResponse(errors.Wrap(ErrMalformedFrame, "not a binary message"), nil)
		} else {
			reply = h.serve(r, frame)
		}

		if err := ws.WriteMessage(websocket.BinaryMessage, reply); err != nil {
			log.Warn("Failed to write websocket message: %v", err)
			return
		}
	}
}

func (h *Handler) serve(r *http.Request, frame []byte) []byte {
	mode, req, err := DecodeRequest(frame)
	if err != nil {
		log.Debug("%v", err)
		return EncodeResponse(err, nil)
	}

	if err := h.dev.Do(r.Context(), mode, req); err != nil {
		log.Debug("%v %v from %s: %v", mode, req.Operation, r.RemoteAddr, err)
		return EncodeResponse(err, nil)
	}

	out := req.Out
	if mode != hosal.MAC {
		out = out[:req.Length]
	}
	return EncodeResponse(nil, out)
}
