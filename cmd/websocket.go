package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"swiftfactureBack/internal/models"
	"swiftfactureBack/internal/realtime"
)

const (
	readLimit     = 1 << 20 // 1 MB
	readDeadline  = 120 * time.Second
	writeDeadline = 5 * time.Second
	pingInterval  = 15 * time.Second
	helloDeadline = 10 * time.Second // browsers cannot set headers on a socket, so auth comes in the first frame
)

// chatConn serializes writes to one socket.
type chatConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *chatConn) writeFrame(f realtime.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteJSON(f)
}

func (c *chatConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *chatConn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeDeadline))
	_ = c.conn.Close()
}

// ChatSocketHandler mounts one chat panel per socket. The first frame must be
// {"type":"hello","access_token":"..."} unless the upgrade request already
// carried a bearer token.
func (app *application) ChatSocketHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin:       app.checkOrigin,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		EnableCompression: true,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logger.Errorf("websocket upgrade: %v", err)
		return
	}
	c := &chatConn{conn: conn}

	conn.SetReadLimit(readLimit)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	author, err := app.socketAuthor(r, conn)
	if err != nil {
		app.logger.Infof("websocket hello rejected: %v", err)
		c.close(websocket.ClosePolicyViolation, "hello required")
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panel := realtime.NewPanel(author, app.messageService, app.feed, c.writeFrame, app.logger)
	go func() {
		if err := panel.Run(ctx); err != nil && ctx.Err() == nil {
			app.logger.Errorf("chat panel of %s: %v", author.UserID, err)
			c.close(websocket.CloseInternalServerErr, "feed unavailable")
		}
	}()
	go pingLoop(ctx, c, cancel)

	for {
		var frame realtime.ClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				app.logger.Infof("chat socket of %s: %v", author.UserID, err)
			}
			break
		}
		panel.Handle(ctx, frame)
	}
	cancel()
	panel.Close()
	_ = conn.Close()
}

func (app *application) socketAuthor(r *http.Request, conn *websocket.Conn) (models.Author, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		_ = conn.SetReadDeadline(time.Now().Add(helloDeadline))
		var hello realtime.ClientFrame
		if err := conn.ReadJSON(&hello); err != nil {
			return models.Author{}, err
		}
		if hello.Type != realtime.FrameHello || hello.AccessToken == "" {
			return models.Author{}, models.ErrInvalidCredentials
		}
		token = hello.AccessToken
	}

	claims, err := app.userService.ParseAccessToken(token)
	if err != nil {
		return models.Author{}, err
	}
	return models.Author{UserID: claims.UserID, Role: app.currentRole(r.Context(), claims)}, nil
}

func (app *application) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range app.cfg.Server.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func pingLoop(ctx context.Context, c *chatConn, cancel context.CancelFunc) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.ping(); err != nil {
				c.close(websocket.CloseGoingAway, "ping error")
				cancel()
				return
			}
		}
	}
}
