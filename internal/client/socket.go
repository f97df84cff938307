package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/Qqcola/ads-price-compare/internal/relay"
)

// Socket is a websocket connection to the relay server.
type Socket struct {
	conn *websocket.Conn
}

func DialSocket(ctx context.Context, wsURL string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay socket: %w", err)
	}
	return &Socket{conn: conn}, nil
}

func (s *Socket) Close() error {
	return s.conn.Close()
}

func (s *Socket) SendMessage(payload relay.MessagePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message payload: %w", err)
	}
	return s.conn.WriteJSON(relay.Event{Event: relay.EventMessageChatbot, Data: data})
}

// ServerEvent is one decoded frame from the relay.
type ServerEvent struct {
	Name string
	// Chunk holds the fragment text for chunk_response events; Message
	// holds the text of done and error events.
	Chunk   string
	Message string
}

// NextEvent blocks until the relay sends the next event.
func (s *Socket) NextEvent() (ServerEvent, error) {
	var ev relay.Event
	if err := s.conn.ReadJSON(&ev); err != nil {
		return ServerEvent{}, fmt.Errorf("socket read failed: %w", err)
	}

	out := ServerEvent{Name: ev.Event}
	switch ev.Event {
	case relay.EventChunkResponse:
		var p relay.ChunkPayload
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return ServerEvent{}, fmt.Errorf("bad chunk_response payload: %w", err)
		}
		out.Chunk = p.ProcessChunk
	case relay.EventDone, relay.EventError:
		var p relay.MessageOnly
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			return ServerEvent{}, fmt.Errorf("bad %s payload: %w", ev.Event, err)
		}
		out.Message = p.Message
	}
	return out, nil
}
