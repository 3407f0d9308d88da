package json

import (
	"fmt"
	"time"

	"github.com/iklavya/coach"
)

// messageDTO is the JSON representation of a Message.
type messageDTO struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func marshalMessage(msg coach.Message) (messageDTO, error) {
	switch msg.Role {
	case coach.RoleUser, coach.RoleAssistant:
	default:
		return messageDTO{}, fmt.Errorf("unknown message role: %q", msg.Role)
	}
	return messageDTO{
		ID:        msg.ID,
		Role:      string(msg.Role),
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	}, nil
}

func unmarshalMessage(dto messageDTO) (coach.Message, error) {
	role := coach.Role(dto.Role)
	switch role {
	case coach.RoleUser, coach.RoleAssistant:
	default:
		return coach.Message{}, fmt.Errorf("unknown message role: %q", dto.Role)
	}
	return coach.Message{
		ID:        dto.ID,
		Role:      role,
		Content:   dto.Content,
		Timestamp: dto.Timestamp,
	}, nil
}
