package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/auth"
	"github.com/parley-chat/parley-server/internal/core"
	"github.com/parley-chat/parley-server/internal/proto"
	"github.com/parley-chat/parley-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the routing
// core: inbound envelopes become router calls, core events become
// outbound envelopes.
type WSHandler struct {
	routers     Routers
	authService *auth.Service
	log         *zerolog.Logger
	maxBytes    int64
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(routers Routers, authService *auth.Service, logger *zerolog.Logger, maxBytes int64) stdhttp.Handler {
	return &WSHandler{
		routers:     routers,
		authService: authService,
		log:         logger,
		maxBytes:    maxBytes,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxBytes > 0 {
		conn.SetReadLimit(h.maxBytes)
	}

	// The first envelope must be a hello identifying the user; nothing is
	// routed or delivered before it.
	user, err := h.handshake(ctx, conn)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake failed")
		conn.Close(websocket.StatusPolicyViolation, "handshake failed")
		return
	}

	sub := core.NewSubscriber(utils.NewID(), user)
	h.routers.Directory.Connect(user, sub)
	defer h.routers.Directory.Disconnect(user, sub)
	defer h.routers.Registry.Drop(sub)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sub)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sub)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("user", user).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake reads the hello envelope and resolves the caller's identity,
// either from a JWT or by looking the username up in the directory.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (string, error) {
	var inbound proto.Inbound
	if err := wsjson.Read(ctx, conn, &inbound); err != nil {
		return "", err
	}
	if inbound.Type != proto.InboundTypeHello {
		return "", errors.New("expected hello")
	}

	hello, err := parseHello(inbound)
	if err != nil {
		return "", err
	}

	if hello.Token != "" {
		claims, err := h.authService.ValidateToken(hello.Token)
		if err != nil {
			return "", err
		}
		return claims.Username, nil
	}

	if hello.User == "" {
		return "", errors.New("user or token is required")
	}

	known, _, err := h.routers.Directory.Resolve(ctx, hello.User)
	if err != nil {
		return "", err
	}
	if !known {
		return "", errors.New("unknown user")
	}

	return hello.User, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sub *core.Subscriber) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		outbound := h.dispatch(ctx, sub, inbound)
		if outbound != nil {
			if err := wsjson.Write(ctx, conn, outbound); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *core.Subscriber) error {
	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("user", sub.User).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
