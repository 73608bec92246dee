package remote

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lanikai/hosal"

	"github.com/pkg/errors"
)

// A Client issues requests to a remote Handler. Requests from several
// goroutines are sent one at a time.
type Client struct {
	mu sync.Mutex
	ws *websocket.Conn

	// Set once a request fails mid-flight.
	broken error
}

var aLongTimeAgo = time.Unix(1, 0)

// Dial connects to a Handler at a ws:// or wss:// URL.
func Dial(ctx context.Context, url string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	ws.SetReadLimit(maxFrameLen)
	return &Client{ws: ws}, nil
}

// Do runs req remotely under mode and copies the result into req.Out. The
// remote end works on its own copy of req.In, so a CMAC request leaves the
// local input untouched.
func (c *Client) Do(ctx context.Context, mode hosal.Mode, req *hosal.Request) error {
	frame, err := EncodeRequest(mode, req)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return c.broken
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline, _ := ctx.Deadline()
	c.ws.SetWriteDeadline(deadline)
	c.ws.SetReadDeadline(deadline)

	// Cancellation interrupts a pending write or read by expiring the
	// deadlines. The connection cannot be reused after that.
	stop := make(chan struct{})
	watching := make(chan struct{})
	go func() {
		defer close(watching)
		select {
		case <-ctx.Done():
			c.ws.UnderlyingConn().SetDeadline(aLongTimeAgo)
		case <-stop:
		}
	}()

	reply, err := c.roundTrip(frame)
	close(stop)
	<-watching

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		c.broken = errors.Wrap(err, "remote connection unusable")
		return errors.Wrap(err, "remote request")
	}
	c.ws.SetWriteDeadline(time.Time{})
	c.ws.SetReadDeadline(time.Time{})

	resp, err := DecodeResponse(reply)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if len(req.Out) < len(resp.Data) {
		return errors.Wrapf(hosal.ErrInvalidLength, "%d byte output for %d byte result", len(req.Out), len(resp.Data))
	}
	copy(req.Out, resp.Data)
	return nil
}

func (c *Client) roundTrip(frame []byte) ([]byte, error) {
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	_, reply, err := c.ws.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	return reply, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.ws.Close()
}
