package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/Qqcola/ads-price-compare/internal/store"
)

const streamFailureText = "I'm sorry, I couldn't generate a response at this time. Please try again."

// AnswerStreamer serves one chatbot turn: classify intent, retrieve product
// context when needed, then stream a completion to the response as
// newline-delimited chunk records.
type AnswerStreamer struct {
	classifier *IntentClassifier
	retriever  *Retriever
	pool       []Generator
}

func NewAnswerStreamer(classifier *IntentClassifier, retriever *Retriever, pool []Generator) *AnswerStreamer {
	return &AnswerStreamer{
		classifier: classifier,
		retriever:  retriever,
		pool:       pool,
	}
}

// Stream writes the whole response for one turn and communicates only via
// the response writer. A query that is empty after trimming gets a plain
// JSON reply, not a stream.
func (s *AnswerStreamer) Stream(ctx context.Context, w http.ResponseWriter, query string, history []store.HistoryEntry) {
	query = strings.TrimSpace(query)
	if query == "" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": http.StatusOK,
			"data":       []any{},
			"message":    "No query provided",
		})
		return
	}

	// Headers must be declared before the first write; after this point
	// failures can no longer become a status code.
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := newRecordSink(w)

	historyText := FlattenHistory(history)

	var contextBlock string
	if s.classifier.Classify(ctx, query, historyText) == 1 {
		items := s.retriever.Retrieve(ctx, query, DefaultRetrieveLimit)
		contextBlock = FormatContextBlock(items)
	}

	prompt := buildAnswerPrompt(historyText, contextBlock, query)

	aggregate, ok := failover(ctx, s.pool, "", func(ctx context.Context, g Generator) (string, error) {
		return g.GenerateStream(ctx, prompt, func(text string) {
			sink.write(StreamRecord{Type: RecordChunk, Text: text})
		})
	})
	if !ok {
		// Every credential failed after the stream was already open. Emit a
		// terminal record anyway so the caller never waits forever.
		sink.write(StreamRecord{Type: RecordChunk, Text: streamFailureText})
		aggregate = streamFailureText
	}

	sink.write(StreamRecord{Type: RecordDone, Text: aggregate})
}

// FlattenHistory renders history pairs as one "Speaker: text" line each,
// the form the prompt templates expect.
func FlattenHistory(history []store.HistoryEntry) string {
	if len(history) == 0 {
		return "(no previous messages)"
	}
	lines := make([]string, 0, len(history))
	for _, entry := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", entry.Speaker, entry.Text))
	}
	return strings.Join(lines, "\n")
}

// FormatContextBlock renders retrieved items as the structured context the
// answer prompt conditions on. Every retailer with a price is listed.
func FormatContextBlock(items []store.Item) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Product: %s\n", item.Name)
		if item.GeneralInformation != "" {
			fmt.Fprintf(&b, "General information: %s\n", item.GeneralInformation)
		}
		if item.Directions != "" {
			fmt.Fprintf(&b, "Directions: %s\n", item.Directions)
		}
		if len(item.Price) > 0 {
			retailers := make([]string, 0, len(item.Price))
			for retailer := range item.Price {
				retailers = append(retailers, retailer)
			}
			sort.Strings(retailers)
			offers := make([]string, 0, len(retailers))
			for _, retailer := range retailers {
				offers = append(offers, fmt.Sprintf("%s $%.2f", retailer, item.Price[retailer]))
			}
			fmt.Fprintf(&b, "Prices: %s\n", strings.Join(offers, "; "))
		}
	}
	return strings.TrimSpace(b.String())
}

// recordSink sequences writes to the response and drops them silently once
// the remote client has gone away. Never written to concurrently.
type recordSink struct {
	w        http.ResponseWriter
	flusher  http.Flusher
	writable bool
}

func newRecordSink(w http.ResponseWriter) *recordSink {
	flusher, _ := w.(http.Flusher)
	return &recordSink{w: w, flusher: flusher, writable: true}
}

func (s *recordSink) write(rec StreamRecord) {
	if !s.writable {
		return
	}
	line, err := json.Marshal(rec)
	if err != nil {
		log.Printf("failed to marshal stream record: %v", err)
		return
	}
	line = append(line, '\n')
	if _, err := s.w.Write(line); err != nil {
		// Client disconnected mid-stream; drop the rest.
		s.writable = false
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
