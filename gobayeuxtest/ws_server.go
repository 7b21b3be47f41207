package gobayeuxtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mrackwitz/gobayeux"
)

// WebsocketServer is an httptest.Server that speaks the same scripted
// handshake/connect/subscribe exchange as Server, but over a WebSocket
// connection instead of one-shot HTTP POSTs. It exists to exercise
// WebsocketTransport and the session engine's PushTransport code path.
type WebsocketServer struct {
	log Logger

	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string][]gobayeux.Channel

	httpServer *httptest.Server
}

// NewWebsocketServer starts an httptest.Server upgrading every connection
// to a WebSocket and running the scripted exchange on it. Call URL to get
// a ws:// address suitable for NewWebsocketTransport, and Close to tear it
// down.
func NewWebsocketServer(logger Logger) *WebsocketServer {
	s := &WebsocketServer{
		log:  logger,
		subs: make(map[string][]gobayeux.Channel),
	}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the ws:// address of the server.
func (s *WebsocketServer) URL() string {
	return "ws" + s.httpServer.URL[len("http"):]
}

// Close tears down the underlying httptest.Server.
func (s *WebsocketServer) Close() {
	s.httpServer.Close()
}

func (s *WebsocketServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Logf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		messageType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msgs []*gobayeux.Message
		if err := json.Unmarshal(raw, &msgs); err != nil {
			s.log.Logf("bad request body: %v", err)
			continue
		}

		replies := s.process(msgs)

		out, err := json.Marshal(replies)
		if err != nil {
			s.log.Logf("failed to marshal reply: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return
		}
	}
}

func (s *WebsocketServer) process(msgs []*gobayeux.Message) []*gobayeux.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	replies := []*gobayeux.Message{}

	for _, msg := range msgs {
		s.log.Logf("msg: %+v\n", msg)
		switch msg.Channel {
		case "/meta/handshake":
			replies = append(replies, &gobayeux.Message{
				Channel:                  "/meta/handshake",
				Version:                  msg.Version,
				SupportedConnectionTypes: msg.SupportedConnectionTypes,
				ClientID:                 generateID(10),
				Successful:               true,
				AuthSuccessful:           true,
				Advice: &gobayeux.Advice{
					Reconnect: gobayeux.ReconnectRetry,
					Timeout:   int((30 * time.Second).Milliseconds()),
					Interval:  int((1 * time.Second).Milliseconds()),
				},
				ID: msg.ID,
			})
		case "/meta/connect":
			if channels, ok := s.subs[msg.ClientID]; ok {
				for _, ch := range channels {
					replies = append(replies, &gobayeux.Message{
						Channel:    ch,
						ID:         generateID(5),
						ClientID:   msg.ClientID,
						Data:       json.RawMessage(`{}`),
						Successful: true,
					})
				}
			}
			replies = append(replies, &gobayeux.Message{
				Channel:    "/meta/connect",
				Successful: true,
				ClientID:   msg.ClientID,
				Advice: &gobayeux.Advice{
					Reconnect: gobayeux.ReconnectRetry,
					Interval:  int((1 * time.Second).Milliseconds()),
				},
				ID: msg.ID,
			})
		case "/meta/subscribe":
			if _, ok := s.subs[msg.ClientID]; !ok {
				s.subs[msg.ClientID] = make([]gobayeux.Channel, 0)
			}

			reply := &gobayeux.Message{
				Channel:      "/meta/subscribe",
				ID:           msg.ID,
				ClientID:     msg.ClientID,
				Successful:   true,
				Subscription: msg.Subscription,
			}
			for _, ch := range s.subs[msg.ClientID] {
				if ch == msg.Subscription {
					reply.Successful = false
					reply.Error = "403:%s:already subscribed"
				}
			}
			s.subs[msg.ClientID] = append(s.subs[msg.ClientID], msg.Subscription)
			replies = append(replies, reply)
		case "/meta/unsubscribe":
			channels := s.subs[msg.ClientID]
			for i, ch := range channels {
				if ch == msg.Subscription {
					s.subs[msg.ClientID] = append(channels[:i], channels[i+1:]...)
					break
				}
			}
			replies = append(replies, &gobayeux.Message{
				Channel:      "/meta/unsubscribe",
				ID:           msg.ID,
				ClientID:     msg.ClientID,
				Successful:   true,
				Subscription: msg.Subscription,
			})
		case "/meta/disconnect":
			replies = append(replies, &gobayeux.Message{
				Channel:    "/meta/disconnect",
				ID:         msg.ID,
				ClientID:   msg.ClientID,
				Successful: true,
			})
			delete(s.subs, msg.ClientID)
		default:
			s.log.Logf("unhandled: %+v", msg)
		}
	}

	return replies
}
