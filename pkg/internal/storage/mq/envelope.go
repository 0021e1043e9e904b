package mq

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

func marshalEnvelope(msg *message.Message) ([]byte, error) {
	env := redisEnvelope{
		UUID:     msg.UUID,
		Metadata: map[string]string(msg.Metadata),
		Payload:  msg.Payload,
	}

	b, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal redis envelope: %w", err)
	}

	return b, nil
}

func unmarshalEnvelope(data string) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.UnmarshalString(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal redis envelope: %w", err)
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}
