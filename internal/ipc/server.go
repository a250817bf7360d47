package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
)

// Handler processes one forwarded session command.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Session commands fit in one short JSON line; anything longer is a
// misbehaving client, not a command.
const maxCommandLine = 4 << 10

// Serve accepts forwarded commands from non-owner greenroom invocations until
// the context is cancelled or the listener closes. Each connection carries
// exactly one command and receives exactly one JSON-line response.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept control connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveCommand(ctx, c, handler)
		}(conn)
	}
}

func serveCommand(ctx context.Context, conn net.Conn, handler Handler) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 256), maxCommandLine)

	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			err = errors.New("connection closed before a command arrived")
		}
		respond(conn, Response{OK: false, Error: fmt.Sprintf("read command: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
		respond(conn, Response{OK: false, Error: fmt.Sprintf("decode command: %v", err)})
		return
	}

	respond(conn, handler.Handle(ctx, req))
}

func respond(conn net.Conn, resp Response) {
	_ = json.NewEncoder(conn).Encode(resp)
}
