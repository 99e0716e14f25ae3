package http

import (
	"encoding/json"
	"time"

	"chatrelay/internal/core"
	"chatrelay/internal/proto"
)

const connectedGreeting = "Connected to chat server."

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.ErrorData, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &proto.ErrorData{Code: core.ErrCodeBadRequest, Message: "missing room name in join request"}, nil
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
			User: join.Username,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.JoinData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandLeaveRoom,
			Room: leave.Room,
			User: leave.Username,
		}, nil, nil
	case proto.InboundTypeSend:
		var msg proto.SendData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Room == "" || msg.Content == "" {
			return nil, &proto.ErrorData{Code: core.ErrCodeBadRequest, Message: "missing room or content in message"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Room: msg.Room,
			User: msg.Username,
			Text: msg.Content,
		}, nil, nil
	default:
		return nil, &proto.ErrorData{Code: core.ErrCodeBadRequest, Message: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventConnected:
		return proto.Outbound{
			Type: proto.OutboundTypeConnected,
			Data: proto.ConnectedData{Message: connectedGreeting},
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeNewMessage,
			Data: wireMessage(event.Message),
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundTypeUserJoined,
			Data: proto.UserData{Room: event.Room, Username: event.User},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundTypeUserLeft,
			Data: proto.UserData{Room: event.Room, Username: event.User},
		}
	case core.EventHistory:
		messages := make([]proto.Message, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, wireMessage(msg))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeRoomHistory,
			Data: proto.RoomHistoryData{Room: event.Room, Messages: messages},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type: proto.OutboundTypeError,
				Data: proto.ErrorData{Code: "unknown", Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.ErrorData{Code: event.Error.Code, Message: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.ErrorData{Message: "unknown event"}}
	}
}

func wireMessage(msg core.Message) proto.Message {
	return proto.Message{
		ID:        msg.ID,
		Room:      msg.Room,
		Username:  msg.From,
		Content:   msg.Text,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
