package chatws

import (
	"encoding/json"
	"log"

	websocket "github.com/gofiber/contrib/websocket"
)

// Hub fans payloads out to the clients subscribed to a topic. Topics are
// per-session ("session/{id}") plus a control topic ("session/{id}/end").
// Delivery is at-most-once: a client whose send buffer is full is dropped
// from the topic.
type Hub struct {
	topics     map[string]map[*Client]struct{}
	clients    map[*Client]struct{}
	connect    chan *Client
	register   chan subscription
	unregister chan *Client
	broadcast  chan envelope
	direct     chan directMessage
}

type directMessage struct {
	client  *Client
	payload []byte
}

type subscription struct {
	client *Client
	topic  string
}

type envelope struct {
	topic   string
	payload []byte
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]struct{}),
		connect:    make(chan *Client),
		register:   make(chan subscription),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 64),
		direct:     make(chan directMessage, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.connect:
			h.clients[client] = struct{}{}
		case sub := <-h.register:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			set, ok := h.topics[sub.topic]
			if !ok {
				set = make(map[*Client]struct{})
				h.topics[sub.topic] = set
			}
			set[sub.client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case message := <-h.broadcast:
			h.deliver(message)
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			select {
			case msg.client.send <- msg.payload:
			default:
				h.drop(msg.client)
			}
		}
	}
}

// Register tracks a new connection so Unregister can close it even when the
// client never joined a topic.
func (h *Hub) Register(client *Client) {
	h.connect <- client
}

// Send queues a payload for a single client. It goes through the run loop so
// it serializes with drop and can never hit a closed send channel; payloads
// for an already-dropped client are discarded.
func (h *Hub) Send(client *Client, payload []byte) {
	select {
	case h.direct <- directMessage{client: client, payload: payload}:
	default:
		log.Printf("chat hub direct queue full, dropping frame for user %s", client.userID)
	}
}

func (h *Hub) Subscribe(client *Client, topic string) {
	h.register <- subscription{client: client, topic: topic}
}

// Unregister removes the client from every topic and closes its send
// channel. Safe to call more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish encodes the payload and queues it for the topic's subscribers.
// It never blocks the caller: when the broadcast queue is full the event is
// dropped, which is within the at-most-once delivery contract.
func (h *Hub) Publish(topic string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		log.Printf("chat hub encode payload for %s: %v", topic, err)
		return
	}

	select {
	case h.broadcast <- envelope{topic: topic, payload: encoded}:
	default:
		log.Printf("chat hub broadcast queue full, dropping event for %s", topic)
	}
}

func (h *Hub) deliver(message envelope) {
	set, ok := h.topics[message.topic]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- message.payload:
		default:
			h.drop(client)
		}
	}
	if len(set) == 0 {
		delete(h.topics, message.topic)
	}
}

func (h *Hub) drop(client *Client) {
	if _, exists := h.clients[client]; !exists {
		return
	}
	delete(h.clients, client)
	for topic, set := range h.topics {
		delete(set, client)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
	close(client.send)
}
