package service

import (
	"context"
	"fmt"

	"github.com/yndnr/sod-go/internal/core/domain"
	"github.com/yndnr/sod-go/pkg/frame"
)

// converse relays validator messages to the peer. Each prompt is sent as
// an AUTH NAK frame carrying this instance's identifier and answered by
// the peer's next AUTH request echoing it. Informational messages are
// logged and answered with an empty reply.
func (s *AuthSession) converse(ctx context.Context, msgs []domain.Message) ([]string, error) {
	replies := make([]string, len(msgs))
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrTransport.WithCause(err)
		}

		switch msg.Style {
		case domain.PromptEchoOff, domain.PromptEchoOn:
		case domain.ErrorMessage:
			s.log.Warn("validator message", "text", msg.Text)
			continue
		default:
			s.log.Info("validator message", "text", msg.Text)
			continue
		}

		reply, err := s.prompt(msg.Text)
		if err != nil {
			return nil, err
		}
		replies[i] = reply
	}
	return replies, nil
}

func (s *AuthSession) prompt(text string) (string, error) {
	id := uint64(s.ID())
	if s.buf.Prepare(text, frame.AuthNak, id) {
		s.log.Debug("prompt truncated", "length", len(text), "max", frame.MaxToken)
	}
	if err := s.exchange(frame.OpSend); err != nil {
		return "", err
	}

	err := s.exchange(frame.OpReceive)
	if err != nil {
		return "", err
	}
	defer s.buf.Wipe()

	if s.buf.Correlation != id {
		return "", domain.ErrCorrelationMismatch.WithDetails(
			fmt.Sprintf("got %016x, want %016x", s.buf.Correlation, id))
	}
	if s.buf.Code != frame.AuthRequest {
		return "", domain.ErrUnexpectedVerb.WithDetails(s.buf.Code.String())
	}
	return s.buf.Text(), nil
}
