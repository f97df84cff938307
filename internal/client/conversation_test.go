package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qqcola/ads-price-compare/internal/api"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

// fakeServer records conversation calls the way the web server's API would.
type fakeServer struct {
	pushes  []api.PushConversationRequest
	updates []api.UpdateConversationRequest
	deletes []api.DeleteConversationRequest
	stored  []store.Conversation
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pushConversation", func(w http.ResponseWriter, r *http.Request) {
		var req api.PushConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.pushes = append(f.pushes, req)
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/updateConversation", func(w http.ResponseWriter, r *http.Request) {
		var req api.UpdateConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.updates = append(f.updates, req)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/findConversationByUser", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(f.stored))
	})
	mux.HandleFunc("/api/deleteConversationById", func(w http.ResponseWriter, r *http.Request) {
		var req api.DeleteConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.deletes = append(f.deletes, req)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func newTestList(t *testing.T, srv *fakeServer) *List {
	t.Helper()
	ts := httptest.NewServer(srv.handler(t))
	t.Cleanup(ts.Close)
	return NewList(NewAPI(ts.URL), "jane@example.com")
}

func TestLoadPopulatesList(t *testing.T) {
	srv := &fakeServer{stored: []store.Conversation{
		{ID: "c1", Name: "panadol prices"},
		{ID: "c2", Name: "vitamin d"},
	}}
	l := newTestList(t, srv)

	require.NoError(t, l.Load(context.Background()))
	require.Len(t, l.Conversations(), 2)
	assert.Equal(t, "c1", l.Conversations()[0].ID)
	assert.Nil(t, l.Current(), "loading lands on Home")
}

func TestSendFromHomeStartsConversation(t *testing.T) {
	l := newTestList(t, &fakeServer{})

	payload, ok := l.Send("where can I buy panadol near me today cheaply?")
	require.True(t, ok)

	conv := l.Current()
	require.NotNil(t, conv)
	assert.NotEmpty(t, conv.ID)
	assert.NotEmpty(t, conv.Name)
	assert.True(t, conv.pendingCreate)

	// The socket payload's history excludes the message just sent.
	assert.Empty(t, payload.History)
	require.Len(t, conv.History, 1)
	assert.Equal(t, store.SpeakerUser, conv.History[0].Speaker)
}

func TestSendHistorySnapshotExcludesNewMessage(t *testing.T) {
	l := newTestList(t, &fakeServer{})

	l.Send("first question")
	l.ApplyChunk("first answer")

	payload, ok := l.Send("second question")
	require.True(t, ok)
	require.Len(t, payload.History, 2)
	assert.Equal(t, "first question", payload.History[0].Text)
	assert.Equal(t, "first answer", payload.History[1].Text)
	assert.Len(t, l.Current().History, 3)
}

func TestSendEmptyTextIsNoop(t *testing.T) {
	l := newTestList(t, &fakeServer{})

	_, ok := l.Send("")
	assert.False(t, ok)
	assert.Nil(t, l.Current())
	assert.Empty(t, l.Conversations())
}

func TestSendMovesConversationToFront(t *testing.T) {
	srv := &fakeServer{stored: []store.Conversation{
		{ID: "c1", History: []store.HistoryEntry{{Speaker: store.SpeakerUser, Text: "a"}, {Speaker: store.SpeakerBot, Text: "b"}}},
		{ID: "c2"},
	}}
	l := newTestList(t, srv)
	require.NoError(t, l.Load(context.Background()))

	require.True(t, l.Select("c2"))
	_, ok := l.Send("bump")
	require.True(t, ok)

	assert.Equal(t, "c2", l.Conversations()[0].ID)
}

func TestApplyChunkAccumulates(t *testing.T) {
	l := newTestList(t, &fakeServer{})
	l.Send("question")

	l.ApplyChunk("Panadol ")
	l.ApplyChunk("is $5.99.")

	history := l.Current().History
	require.Len(t, history, 2)
	assert.Equal(t, store.SpeakerBot, history[1].Speaker)
	assert.Equal(t, "Panadol is $5.99.", history[1].Text)
}

func TestApplyChunkWithoutCurrentIsNoop(t *testing.T) {
	l := newTestList(t, &fakeServer{})
	l.ApplyChunk("stray chunk")
	assert.Nil(t, l.Current())
}

func TestFinishExchangePushesNewConversation(t *testing.T) {
	srv := &fakeServer{}
	l := newTestList(t, srv)

	l.Send("question")
	l.ApplyChunk("answer")
	require.NoError(t, l.FinishExchange(context.Background()))

	require.Len(t, srv.pushes, 1)
	push := srv.pushes[0]
	assert.Equal(t, l.Current().ID, push.ID)
	assert.Equal(t, "jane@example.com", push.UserID)
	assert.Equal(t, "question", push.UserText)
	assert.Equal(t, "answer", push.BotText)
	assert.False(t, l.Current().pendingCreate)

	// The next exchange on the same conversation is an update, not a push.
	l.Send("followup")
	l.ApplyChunk("more")
	require.NoError(t, l.FinishExchange(context.Background()))

	require.Len(t, srv.pushes, 1)
	require.Len(t, srv.updates, 1)
	assert.Equal(t, "followup", srv.updates[0].UserText)
	assert.Equal(t, "more", srv.updates[0].BotText)
}

func TestFinishExchangeWithoutPairIsNoop(t *testing.T) {
	srv := &fakeServer{}
	l := newTestList(t, srv)

	require.NoError(t, l.FinishExchange(context.Background()))
	l.Send("question only, no reply yet")
	require.NoError(t, l.FinishExchange(context.Background()))

	assert.Empty(t, srv.pushes)
	assert.Empty(t, srv.updates)
}

func TestDeleteReturnsHome(t *testing.T) {
	srv := &fakeServer{stored: []store.Conversation{{ID: "c1"}, {ID: "c2"}}}
	l := newTestList(t, srv)
	require.NoError(t, l.Load(context.Background()))
	require.True(t, l.Select("c1"))

	require.NoError(t, l.Delete(context.Background(), "c1"))

	assert.Nil(t, l.Current())
	require.Len(t, l.Conversations(), 1)
	assert.Equal(t, "c2", l.Conversations()[0].ID)
	require.Len(t, srv.deletes, 1)
	assert.Equal(t, "c1", srv.deletes[0].ID)
}

func TestDeleteInactiveKeepsCurrent(t *testing.T) {
	srv := &fakeServer{stored: []store.Conversation{{ID: "c1"}, {ID: "c2"}}}
	l := newTestList(t, srv)
	require.NoError(t, l.Load(context.Background()))
	require.True(t, l.Select("c2"))

	require.NoError(t, l.Delete(context.Background(), "c1"))
	require.NotNil(t, l.Current())
	assert.Equal(t, "c2", l.Current().ID)
}
