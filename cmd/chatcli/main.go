// chatcli is a terminal chat client against a running ADS web server. It
// drives the same conversation state machine the browser client uses:
// streamed chunks accumulate into the transcript and each finished exchange
// is persisted through the conversation endpoints. Catalog search and the
// saved "My List" are available alongside the chat.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Qqcola/ads-price-compare/internal/catalog"
	"github.com/Qqcola/ads-price-compare/internal/client"
	"github.com/Qqcola/ads-price-compare/internal/relay"
	"github.com/Qqcola/ads-price-compare/internal/store"
)

func main() {
	serverURL := flag.String("server", "http://localhost:3000", "base URL of the ADS web server")
	wsURL := flag.String("ws", "ws://localhost:3000/ws", "websocket URL of the relay endpoint")
	userID := flag.String("user", "guest", "user id (email or guest marker)")
	dataDir := flag.String("data", defaultDataDir(), "directory for the saved list")
	flag.Parse()

	log.SetFlags(0)
	ctx := context.Background()

	apiClient := client.NewAPI(*serverURL)
	list := client.NewList(apiClient, *userID)
	if err := list.Load(ctx); err != nil {
		log.Printf("could not load stored conversations: %v", err)
	}
	if convs := list.Conversations(); len(convs) > 0 {
		fmt.Printf("You have %d stored conversation(s):\n", len(convs))
		for _, c := range convs {
			fmt.Printf("  %s  %s (%s)\n", c.ID, c.Name, c.EditTime)
		}
	}

	favs, err := client.OpenFavorites(*dataDir, *userID)
	if err != nil {
		log.Fatalf("Failed to open saved list: %v", err)
	}

	sock, err := client.DialSocket(ctx, *wsURL)
	if err != nil {
		log.Fatalf("Failed to connect to relay: %v", err)
	}
	defer sock.Close()

	fmt.Println(`Type a message to chat. Commands: /search <q>, /page <n>, /item <n>,
/fav <n>, /favs, /note <n> <text>, /qty <n> <count>, /unfav <n>, /clearfavs,
/open <id>, /delete <id>, /new, /quit.`)

	var results []store.Item

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/new":
			list.GoHome()
			continue
		case strings.HasPrefix(line, "/open "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/open "))
			if !list.Select(id) {
				fmt.Println("no such conversation")
				continue
			}
			for _, entry := range list.Current().History {
				fmt.Printf("%s: %s\n", entry.Speaker, entry.Text)
			}
			continue
		case strings.HasPrefix(line, "/delete "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/delete "))
			if err := list.Delete(ctx, id); err != nil {
				log.Printf("delete failed: %v", err)
			}
			continue
		case strings.HasPrefix(line, "/search "):
			q := strings.TrimSpace(strings.TrimPrefix(line, "/search "))
			items, err := apiClient.SearchItems(ctx, q, 0)
			if err != nil {
				log.Printf("search failed: %v", err)
				continue
			}
			results = items
			printLines(resultPage(results, 1))
			continue
		case strings.HasPrefix(line, "/page "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/page ")))
			if err != nil {
				fmt.Println("usage: /page <n>")
				continue
			}
			printLines(resultPage(results, n))
			continue
		case strings.HasPrefix(line, "/item "):
			it, ok := pickResult(results, strings.TrimPrefix(line, "/item "))
			if !ok {
				continue
			}
			fmt.Println(it.Name)
			if it.GeneralInformation != "" {
				fmt.Println(it.GeneralInformation)
			}
			printLines(client.FormatRetailerLines(it))
			continue
		case strings.HasPrefix(line, "/fav "):
			it, ok := pickResult(results, strings.TrimPrefix(line, "/fav "))
			if !ok {
				continue
			}
			if _, err := favs.Add(it); err != nil {
				log.Printf("could not save item: %v", err)
				continue
			}
			fmt.Printf("saved %q to your list\n", it.Name)
			continue
		case line == "/favs":
			printLines(client.FormatFavoriteLines(favs.Items()))
			continue
		case strings.HasPrefix(line, "/note "):
			fav, rest, ok := pickFavorite(favs, strings.TrimPrefix(line, "/note "))
			if !ok {
				continue
			}
			if err := favs.SetNote(catalog.ItemKey(fav.Item), rest); err != nil {
				log.Printf("could not set note: %v", err)
			}
			continue
		case strings.HasPrefix(line, "/qty "):
			fav, rest, ok := pickFavorite(favs, strings.TrimPrefix(line, "/qty "))
			if !ok {
				continue
			}
			qty, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil {
				fmt.Println("usage: /qty <n> <count>")
				continue
			}
			if err := favs.SetQty(catalog.ItemKey(fav.Item), qty); err != nil {
				log.Printf("could not set quantity: %v", err)
			}
			continue
		case strings.HasPrefix(line, "/unfav "):
			fav, _, ok := pickFavorite(favs, strings.TrimPrefix(line, "/unfav "))
			if !ok {
				continue
			}
			if err := favs.Remove(catalog.ItemKey(fav.Item)); err != nil {
				log.Printf("could not remove item: %v", err)
			}
			continue
		case line == "/clearfavs":
			if err := favs.Clear(); err != nil {
				log.Printf("could not clear list: %v", err)
			}
			continue
		}

		payload, ok := list.Send(line)
		if !ok {
			continue
		}
		if err := sock.SendMessage(payload); err != nil {
			log.Fatalf("Failed to send message: %v", err)
		}

		if err := streamReply(ctx, sock, list); err != nil {
			log.Printf("stream failed: %v", err)
		}
	}
}

// streamReply consumes events until a terminal one, printing chunks as they
// arrive, then persists the finished exchange.
func streamReply(ctx context.Context, sock *client.Socket, list *client.List) error {
	fmt.Print("BOT: ")
	for {
		ev, err := sock.NextEvent()
		if err != nil {
			return err
		}
		switch ev.Name {
		case relay.EventChunkResponse:
			fmt.Print(ev.Chunk)
			list.ApplyChunk(ev.Chunk)
		case relay.EventDone:
			fmt.Println()
			return list.FinishExchange(ctx)
		case relay.EventError:
			fmt.Println()
			return fmt.Errorf("relay error: %s", ev.Message)
		}
	}
}

func resultPage(results []store.Item, page int) []string {
	if len(results) == 0 {
		return []string{"no search results; run /search first"}
	}
	_, lines := client.FormatSearchPage(results, page)
	return lines
}

// pickResult resolves the absolute result number printed by /search.
func pickResult(results []store.Item, arg string) (store.Item, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(results) {
		fmt.Println("no such result number")
		return store.Item{}, false
	}
	return results[n-1], true
}

// pickFavorite resolves a 1-based list number and returns any trailing
// argument text.
func pickFavorite(favs *client.Favorites, arg string) (client.FavoriteItem, string, bool) {
	arg = strings.TrimSpace(arg)
	numStr, rest, _ := strings.Cut(arg, " ")
	n, err := strconv.Atoi(numStr)
	items := favs.Items()
	if err != nil || n < 1 || n > len(items) {
		fmt.Println("no such list number")
		return client.FavoriteItem{}, "", false
	}
	return items[n-1], strings.TrimSpace(rest), true
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ads"
	}
	return filepath.Join(home, ".ads")
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}
