package websocket

import (
	"log"
	"sync"

	"offerhub-backend/models"
)

// Hub gère les connexions WebSocket authentifiées et diffuse les événements métier
type Hub struct {
	// Connexions actives, plusieurs par utilisateur possibles (onglets)
	clients map[*Client]bool

	// Nombre de connexions, lisible hors de la boucle Run
	mu    sync.RWMutex
	count int

	register   chan *Client
	unregister chan *Client
	broadcast  chan models.Notification

	// Demandes de pong des clients; seule la boucle Run écrit dans client.send
	pong chan *Client

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub crée un nouveau hub WebSocket
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.Notification, 256),
		pong:       make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run démarre la boucle principale du hub, jusqu'à Shutdown
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			log.Printf("🔌 Client connecté: %s (%s) (total: %d)", client.UserID, client.Role, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.setCount(len(h.clients))
				log.Printf("👋 Client déconnecté: %s (total: %d)", client.UserID, len(h.clients))
			}

		case client := <-h.pong:
			// un client déjà retiré a son canal fermé
			if _, ok := h.clients[client]; ok {
				select {
				case client.send <- map[string]string{"type": "pong"}:
				default:
				}
			}

		case n := <-h.broadcast:
			sent := 0
			for client := range h.clients {
				if !n.VisibleTo(client.Role) {
					continue
				}
				select {
				case client.send <- n:
					sent++
				default:
					log.Printf("❌ Canal plein pour %s, connexion fermée", client.UserID)
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.setCount(len(h.clients))
			log.Printf("📡 Événement %s diffusé à %d client(s)", n.Type, sent)

		case <-h.quit:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.setCount(0)
			return
		}
	}
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount retourne le nombre de connexions authentifiées
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Publish met un événement en file sans jamais bloquer l'appelant
func (h *Hub) Publish(n models.Notification) {
	select {
	case h.broadcast <- n:
	default:
		log.Printf("⚠️  File de diffusion pleine, événement %s perdu", n.Type)
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) requestPong(c *Client) {
	select {
	case h.pong <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Shutdown ferme toutes les connexions et arrête la boucle
func (h *Hub) Shutdown() {
	log.Printf("🔄 Arrêt du hub WebSocket...")
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
	log.Printf("✅ Hub WebSocket arrêté")
}
