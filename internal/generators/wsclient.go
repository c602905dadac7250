package generators

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSClient keeps a websocket open and redials once when a write fails.
// Incoming messages from every connection it has held arrive on Messages.
// A failed read marks the connection stale, reports on Lost, and the next
// write redials.
type WSClient struct {
	url    string
	header http.Header
	log    *zap.Logger

	mu    sync.Mutex
	conn  *websocket.Conn
	stale bool

	messages  chan []byte
	lost      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func NewWSClient(url string, auth string, log *zap.Logger) (*WSClient, error) {
	if log == nil {
		log = zap.NewNop()
	}

	header := http.Header{}
	if auth != "" {
		header.Set("Authorization", auth)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return nil, err
	}

	client := &WSClient{
		conn:     conn,
		url:      url,
		header:   header,
		log:      log,
		messages: make(chan []byte, 16),
		lost:     make(chan error, 1),
		done:     make(chan struct{}),
	}

	go client.listen(conn)

	return client, nil
}

func (c *WSClient) Messages() <-chan []byte { return c.messages }

// Lost receives the read error of a connection the peer dropped.
func (c *WSClient) Lost() <-chan error { return c.lost }

// Done is closed once Close has been called.
func (c *WSClient) Done() <-chan struct{} { return c.done }

func (c *WSClient) listen(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			c.log.Warn("websocket read failed", zap.String("url", c.url), zap.Error(err))

			c.mu.Lock()
			current := c.conn == conn
			if current {
				c.stale = true
			}
			c.mu.Unlock()

			if current {
				select {
				case c.lost <- err:
				default:
				}
			}
			return
		}

		select {
		case c.messages <- message:
		case <-c.done:
			return
		}
	}
}

// reconnect must be called with mu held.
func (c *WSClient) reconnect() error {
	c.conn.Close()

	conn, _, err := websocket.DefaultDialer.Dial(c.url, c.header)
	if err != nil {
		return err
	}

	c.conn = conn
	c.stale = false
	go c.listen(conn)

	c.log.Info("websocket reconnected", zap.String("url", c.url))

	return nil
}

func (c *WSClient) SendMessage(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale {
		if err := c.reconnect(); err != nil {
			return err
		}
		return c.conn.WriteMessage(websocket.TextMessage, message)
	}

	err := c.conn.WriteMessage(websocket.TextMessage, message)
	if err != nil {
		if err := c.reconnect(); err != nil {
			return err
		}

		// Retry sending the message after reconnecting
		return c.conn.WriteMessage(websocket.TextMessage, message)
	}

	return nil
}

func (c *WSClient) Close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()

		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := c.conn.WriteControl(websocket.CloseMessage, msg, deadline); werr != nil {
			c.log.Debug("websocket close frame not sent", zap.Error(werr))
		}

		err = c.conn.Close()
	})

	return err
}
