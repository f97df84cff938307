// Package relay bridges browser websocket connections to the chat service's
// streaming /inference endpoint. The relay keeps no conversation state: any
// instance can serve any message, at the cost of the client re-sending full
// history each turn.
package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Qqcola/ads-price-compare/internal/core"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

// Socket event names, shared with the Go chat client.
const (
	EventMessageChatbot = "message_chatbot"
	EventChunkResponse  = "chunk_response"
	EventDone           = "done"
	EventError          = "error"
)

// Event is the JSON envelope for every websocket frame in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MessagePayload is the inbound message_chatbot payload. History carries
// the full transcript so far, excluding the message being sent.
type MessagePayload struct {
	Text    string               `json:"text"`
	History []store.HistoryEntry `json:"history"`
}

type ChunkPayload struct {
	ProcessChunk string `json:"process_chunk"`
}

type MessageOnly struct {
	Message string `json:"message"`
}

type Handler struct {
	upstreamURL string
	httpClient  *http.Client
	upgrader    websocket.Upgrader
}

func NewHandler(upstreamURL string) *Handler {
	return &Handler{
		upstreamURL: upstreamURL,
		httpClient:  &http.Client{}, // no timeout: inference streams are long-lived
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("socket connected %s", conn.RemoteAddr())

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("socket read error: %v", err)
			}
			return
		}
		if ev.Event != EventMessageChatbot {
			continue
		}

		var msg MessagePayload
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			emit(conn, EventError, MessageOnly{Message: fmt.Sprintf("bad payload: %v", err)})
			continue
		}

		// Messages are handled synchronously per connection, so writes to
		// the socket are never concurrent.
		if err := h.relayMessage(conn, msg); err != nil {
			log.Printf("relay error: %v", err)
			emit(conn, EventError, MessageOnly{Message: err.Error()})
		}
	}
}

func (h *Handler) relayMessage(conn *websocket.Conn, msg MessagePayload) error {
	body, err := json.Marshal(map[string]any{
		"query":   msg.Text,
		"history": msg.History,
	})
	if err != nil {
		return fmt.Errorf("failed to encode inference request: %w", err)
	}

	resp, err := h.httpClient.Post(h.upstreamURL+"/inference", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		emit(conn, EventChunkResponse, ChunkPayload{
			ProcessChunk: fmt.Sprintf("Upstream error: %s", string(text)),
		})
		return nil
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := core.ParseStreamRecord(line)
		if err != nil {
			log.Printf("dropping bad stream record: %v", err)
			continue
		}
		// The done record's text is the aggregate already delivered chunk
		// by chunk; re-emitting it would double the transcript.
		if rec.Type == core.RecordChunk {
			if err := emit(conn, EventChunkResponse, ChunkPayload{ProcessChunk: rec.Text}); err != nil {
				return fmt.Errorf("socket write failed: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading inference stream: %w", err)
	}

	return emit(conn, EventDone, MessageOnly{Message: "done"})
}

func emit(conn *websocket.Conn, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return conn.WriteJSON(Event{Event: event, Data: data})
}
