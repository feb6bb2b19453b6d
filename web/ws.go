package web

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	log "github.com/colorfulnotion/blockmetrics/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TailMessage is one freshly appended log line, tagged with the run the file
// belongs to.
type TailMessage struct {
	Run  int    `json:"run"`
	Line string `json:"line"`
}

// Hub fans newly appended log lines out to connected websocket clients so a
// benchmark still in progress can be watched while it is analyzed.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan TailMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan TailMessage, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			log.Debug(log.WebMonitoring, "tail client connected", "total", len(h.clients))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			log.Debug(log.WebMonitoring, "tail client disconnected", "total", len(h.clients))

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg)
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					conn.Close()
					go func(c *websocket.Conn) { h.unregister <- c }(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// tailFile follows appends to path and broadcasts each new line until done
// closes. The file is read from its current end; history is served by the
// analysis pages, not the tail.
func tailFile(path string, run int, hub *Hub, done <-chan struct{}) {
	for {
		file, err := os.Open(path)
		if err != nil {
			log.Warn(log.WebMonitoring, "waiting for log file", "path", path, "err", err)
			select {
			case <-done:
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		file.Seek(0, io.SeekEnd)

		reader := bufio.NewReader(file)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					select {
					case <-done:
						file.Close()
						return
					case <-time.After(100 * time.Millisecond):
					}
					continue
				}
				log.Error(log.WebMonitoring, "tail read failed", "path", path, "err", err)
				file.Close()
				break
			}

			if len(line) > 1 {
				hub.broadcast <- TailMessage{Run: run, Line: line[:len(line)-1]}
			}
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(log.WebMonitoring, "websocket upgrade failed", "err", err)
		return
	}

	s.hub.register <- conn

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unregister <- conn
			break
		}
	}
}
