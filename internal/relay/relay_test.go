package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qqcola/ads-price-compare/internal/store"
)

// fakeInference serves canned NDJSON records the way the chat service does.
func fakeInference(t *testing.T, lines []string, wantHistoryLen int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inference", r.URL.Path)

		var req struct {
			Query   string               `json:"query"`
			History []store.HistoryEntry `json:"history"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.History, wantHistoryLen)

		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	}))
}

func dialRelay(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, text string, history []store.HistoryEntry) {
	t.Helper()
	data, err := json.Marshal(MessagePayload{Text: text, History: history})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Event{Event: EventMessageChatbot, Data: data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestRelayStreamsChunksThenDone(t *testing.T) {
	upstream := fakeInference(t, []string{
		`{"type":"chunk","text":"Panadol is "}`,
		`{"type":"chunk","text":"$5.99 at Chemist Warehouse."}`,
		`{"type":"done","text":"Panadol is $5.99 at Chemist Warehouse."}`,
	}, 2)
	defer upstream.Close()

	conn := dialRelay(t, NewHandler(upstream.URL))
	sendMessage(t, conn, "how much is panadol?", []store.HistoryEntry{
		{Speaker: store.SpeakerUser, Text: "hi"},
		{Speaker: store.SpeakerBot, Text: "hello!"},
	})

	var chunks []string
	for {
		ev := readEvent(t, conn)
		if ev.Event == EventDone {
			var msg MessageOnly
			require.NoError(t, json.Unmarshal(ev.Data, &msg))
			assert.Equal(t, "done", msg.Message)
			break
		}
		require.Equal(t, EventChunkResponse, ev.Event)
		var chunk ChunkPayload
		require.NoError(t, json.Unmarshal(ev.Data, &chunk))
		chunks = append(chunks, chunk.ProcessChunk)
	}

	// Only the chunk records come through; the done record's aggregate is not
	// replayed as a chunk.
	assert.Equal(t, []string{"Panadol is ", "$5.99 at Chemist Warehouse."}, chunks)
}

func TestRelayReportsUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer upstream.Close()

	conn := dialRelay(t, NewHandler(upstream.URL))
	sendMessage(t, conn, "hello", nil)

	ev := readEvent(t, conn)
	require.Equal(t, EventChunkResponse, ev.Event)
	var chunk ChunkPayload
	require.NoError(t, json.Unmarshal(ev.Data, &chunk))
	assert.Contains(t, chunk.ProcessChunk, "Upstream error:")
	assert.Contains(t, chunk.ProcessChunk, "model unavailable")
}

func TestRelayEmitsErrorWhenUpstreamUnreachable(t *testing.T) {
	conn := dialRelay(t, NewHandler("http://127.0.0.1:1"))
	sendMessage(t, conn, "hello", nil)

	ev := readEvent(t, conn)
	require.Equal(t, EventError, ev.Event)
	var msg MessageOnly
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.NotEmpty(t, msg.Message)
}

func TestRelaySkipsMalformedRecords(t *testing.T) {
	upstream := fakeInference(t, []string{
		`{"type":"chunk","text":"good"}`,
		`not json at all`,
		`{"type":"mystery","text":"bad tag"}`,
		`{"type":"done","text":"good"}`,
	}, 0)
	defer upstream.Close()

	conn := dialRelay(t, NewHandler(upstream.URL))
	sendMessage(t, conn, "q", nil)

	ev := readEvent(t, conn)
	require.Equal(t, EventChunkResponse, ev.Event)
	var chunk ChunkPayload
	require.NoError(t, json.Unmarshal(ev.Data, &chunk))
	assert.Equal(t, "good", chunk.ProcessChunk)

	assert.Equal(t, EventDone, readEvent(t, conn).Event)
}

func TestRelayIgnoresUnknownEvents(t *testing.T) {
	upstream := fakeInference(t, []string{
		`{"type":"done","text":""}`,
	}, 0)
	defer upstream.Close()

	conn := dialRelay(t, NewHandler(upstream.URL))

	require.NoError(t, conn.WriteJSON(Event{Event: "ping", Data: json.RawMessage(`{}`)}))
	sendMessage(t, conn, "q", nil)

	// The ping is dropped; the next frame we see answers the real message.
	assert.Equal(t, EventDone, readEvent(t, conn).Event)
}
