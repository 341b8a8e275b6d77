package websocket

import (
	"log"
	"net/http"
	"time"

	"offerhub-backend/utils"

	"github.com/gorilla/websocket"
)

// Handler gère les connexions WebSocket
type Handler struct {
	hub            *Hub
	jwtSecret      string
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewHandler crée un nouveau handler WebSocket. Une origine absente
// (client non navigateur) est acceptée, "*" autorise toutes les origines.
func NewHandler(hub *Hub, jwtSecret string, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, jwtSecret: jwtSecret, allowedOrigins: allowedOrigins}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	log.Printf("⚠️  Origine WebSocket refusée: %s", origin)
	return false
}

func writeError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(map[string]string{"type": "error", "message": message})
	conn.Close()
}

// ServeWS gère les requêtes WebSocket. Le premier message doit être
// {"type":"authenticate","token":"<JWT>"}.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade a déjà répondu au client
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}

	go h.authenticate(conn)
}

func (h *Handler) authenticate(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(authWait))

	var msg inbound
	if err := conn.ReadJSON(&msg); err != nil {
		log.Printf("❌ Erreur lecture auth: %v", err)
		writeError(conn, "Message d'authentification invalide")
		return
	}

	if msg.Type != "authenticate" {
		writeError(conn, "Authentification requise")
		return
	}
	if msg.Token == "" {
		writeError(conn, "Token requis")
		return
	}

	claims, err := utils.ValidateToken(msg.Token, h.jwtSecret)
	if err != nil {
		log.Printf("❌ Token WebSocket invalide: %v", err)
		writeError(conn, "Token invalide ou expiré")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan interface{}, 64),
		UserID: claims.UserID,
		Role:   claims.Role,
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(map[string]string{"type": "authenticated", "user_id": client.UserID, "role": client.Role}); err != nil {
		conn.Close()
		return
	}

	if !h.hub.add(client) {
		writeError(conn, "Serveur en cours d'arrêt")
		return
	}

	go client.writePump()
	go client.readPump()
}
