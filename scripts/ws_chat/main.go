package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"chatrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) {
		payload, marshalErr := json.Marshal(data)
		if marshalErr != nil {
			log.Printf("marshal %s: %v", typ, marshalErr)
			return
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(proto.InboundTypeJoin, proto.JoinData{Room: *room, Username: *user})

	go func() {
		for {
			var outbound proto.Outbound
			if readErr := wsjson.Read(ctx, conn, &outbound); readErr != nil {
				if !errors.Is(readErr, context.Canceled) {
					log.Printf("read: %v", readErr)
				}
				cancel()
				return
			}
			printOutbound(outbound)
		}
	}()

	fmt.Printf("joined %q as %q; type a message, or /leave, /join <room>, /quit\n", *room, *user)

	scanner := bufio.NewScanner(os.Stdin)
	current := *room
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		case line == "/leave":
			send(proto.InboundTypeLeave, proto.JoinData{Room: current, Username: *user})
		case strings.HasPrefix(line, "/join "):
			current = strings.TrimSpace(strings.TrimPrefix(line, "/join "))
			send(proto.InboundTypeJoin, proto.JoinData{Room: current, Username: *user})
		default:
			send(proto.InboundTypeSend, proto.SendData{Room: current, Username: *user, Content: line})
		}
	}
	return scanner.Err()
}

func printOutbound(outbound proto.Outbound) {
	data, err := json.Marshal(outbound.Data)
	if err != nil {
		fmt.Printf("<%s>\n", outbound.Type)
		return
	}
	fmt.Printf("<%s> %s\n", outbound.Type, data)
}
