package http

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/parley-chat/parley-server/internal/core"
	"github.com/parley-chat/parley-server/internal/proto"
	"github.com/parley-chat/parley-server/internal/store"
)

func parseHello(inbound proto.Inbound) (*proto.HelloData, error) {
	var data proto.HelloData
	if err := json.Unmarshal(inbound.Data, &data); err != nil {
		return nil, fmt.Errorf("parse hello: %w", err)
	}
	if data.Protocol != 0 && data.Protocol != proto.ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version %d", data.Protocol)
	}
	return &data, nil
}

// dispatch routes one inbound envelope to the core. A non-nil return is
// written back to the caller immediately; successful routing produces no
// direct reply because the result arrives through the event stream.
func (h *WSHandler) dispatch(ctx context.Context, sub *core.Subscriber, inbound proto.Inbound) *proto.Outbound {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var data proto.JoinData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badEnvelope("parse join")
		}
		if err := h.routers.Registry.Subscribe(ctx, data.Room, sub); err != nil {
			return outboundError(err)
		}
		return nil

	case proto.InboundTypeLeave:
		var data proto.JoinData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badEnvelope("parse leave")
		}
		h.routers.Registry.Unsubscribe(data.Room, sub)
		return nil

	case proto.InboundTypeMsg:
		var data proto.MsgData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badEnvelope("parse msg")
		}
		msg := &store.Message{
			Sender:  sub.User,
			Content: data.Content,
			Kind:    data.Kind,
		}
		if data.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, data.Timestamp)
			if err != nil {
				return badEnvelope("parse msg timestamp")
			}
			msg.Timestamp = ts
		}
		if _, err := h.routers.Broadcast.Route(ctx, data.Room, msg); err != nil {
			return outboundError(err)
		}
		return nil

	case proto.InboundTypePrivate:
		var data proto.PrivateData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badEnvelope("parse private")
		}
		pm := &store.PrivateMessage{
			Sender:   sub.User,
			Receiver: data.To,
			Content:  data.Content,
		}
		if _, err := h.routers.Private.Route(ctx, pm); err != nil {
			return outboundError(err)
		}
		return nil

	case proto.InboundTypeHello:
		return badEnvelope("duplicate hello")

	default:
		return badEnvelope("unknown message type")
	}
}

func badEnvelope(msg string) *proto.Outbound {
	return &proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg},
	}
}

func outboundError(err error) *proto.Outbound {
	return &proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: core.CodeFor(err), Msg: err.Error()},
	}
}

// outboundFromEvent converts a core event into its wire form.
func outboundFromEvent(event *core.Event) *proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage:
		return &proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message",
			Data: proto.EventMessage{
				ID:      event.Message.ID,
				Room:    event.Message.RoomID,
				Sender:  event.Message.Sender,
				Content: event.Message.Content,
				Kind:    event.Message.Kind,
				TS:      event.Message.Timestamp.Format(time.RFC3339Nano),
			},
		}
	case core.EventPrivateMessage:
		return &proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "private",
			Data: proto.EventPrivateMessage{
				ID:      event.Private.ID,
				Sender:  event.Private.Sender,
				To:      event.Private.Receiver,
				Content: event.Private.Content,
				TS:      event.Private.Timestamp.Format(time.RFC3339Nano),
			},
		}
	case core.EventUserJoined:
		return &proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_joined",
			Data:  proto.EventUserJoined{Room: event.Room, User: event.User},
		}
	case core.EventUserLeft:
		return &proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_left",
			Data:  proto.EventUserLeft{Room: event.Room, User: event.User},
		}
	case core.EventError:
		return &proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return &proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown event"},
		}
	}
}
