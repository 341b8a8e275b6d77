package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Temps maximum pour l'écriture d'un message
	writeWait = 10 * time.Second

	// Temps maximum pour la lecture d'un pong
	pongWait = 60 * time.Second

	// Intervalle des pings
	pingPeriod = (pongWait * 9) / 10

	// Délai accordé au client pour s'authentifier
	authWait = 10 * time.Second

	// Taille maximale des messages
	maxMessageSize = 4096
)

// Client représente une connexion WebSocket authentifiée
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan interface{}
	UserID string
	Role   string
}

// inbound est un message reçu du client
type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// readPump lit les messages du client jusqu'à la déconnexion.
// Le canal est descendant: seul "ping" appelle une réponse, envoyée par le hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ Erreur WebSocket: %v", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("❌ Erreur parsing message: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			c.hub.requestPong(c)
		default:
			log.Printf("⚠️  Type de message inconnu: %s", msg.Type)
		}
	}
}

// writePump pompe les messages du hub vers la connexion WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Le hub a fermé le canal
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("❌ Erreur écriture WebSocket: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
