package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Типы событий кампаний, рассылаемых подключенным клиентам
const (
	EventTestDayChanged  = "campaign:test_day_changed"
	EventCampaignUpdated = "campaign:updated"
)

// Event - сообщение, рассылаемое клиентам
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub управляет подключенными клиентами и рассылкой событий кампаний.
// Смена текущего тестового дня - глобальное состояние, видимое всем
// участникам: хаб доносит ее без повторного опроса сервера.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run обрабатывает регистрацию клиентов и рассылку. Запускается в горутине.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WSHub] Клиент user=%d подключен (conn=%s), всего: %d", client.UserID, client.ConnectionID, count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WSHub] Клиент user=%d отключен (conn=%s), всего: %d", client.UserID, client.ConnectionID, count)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Буфер клиента переполнен - клиент отстает, пропускаем
					log.Printf("[WSHub] Буфер клиента user=%d переполнен, событие пропущено", client.UserID)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast рассылает событие всем подключенным клиентам
func (h *Hub) Broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		log.Printf("[WSHub] Ошибка сериализации события %s: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Printf("[WSHub] Канал рассылки переполнен, событие %s пропущено", eventType)
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown останавливает хаб и закрывает все соединения
func (h *Hub) Shutdown() {
	close(h.done)
}
