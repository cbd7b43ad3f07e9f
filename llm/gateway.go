package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// FallbackMessage is what the end user sees whenever the inference call fails.
const FallbackMessage = "I can't answer right now, please try later or email directly"

type FailureKind string

const (
	KindInvalidInput FailureKind = "invalid_input"
	KindTransport    FailureKind = "transport"
	KindTimeout      FailureKind = "timeout"
	KindStatus       FailureKind = "status"
	KindDecode       FailureKind = "decode"
	KindEmptyReply   FailureKind = "empty_reply"
)

// GatewayError classifies a failed completion for operators. Its text is never sent to users.
type GatewayError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference %s: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Gateway turns a finished message sequence into one upstream call. It holds no
// conversation state; every call is independent and is never retried.
type Gateway struct {
	client LLMClient
	opts   []LLMOption
}

func NewGateway(client LLMClient, opts ...LLMOption) *Gateway {
	return &Gateway{client: client, opts: opts}
}

// Complete returns the assistant reply. On any failure it returns FallbackMessage
// together with a *GatewayError, so callers always have user-safe text to show.
func (g *Gateway) Complete(ctx context.Context, history []Message) (string, error) {
	if len(history) == 0 {
		return g.fail(history, &GatewayError{Kind: KindInvalidInput, Err: errors.New("empty message history")})
	}

	reply, err := g.generate(ctx, history)
	if err != nil {
		return g.fail(history, classify(err))
	}

	return reply, nil
}

func (g *Gateway) generate(ctx context.Context, history []Message) (string, error) {
	var reply strings.Builder
	err := g.client.GenerateInference(ctx, history, func(chunk string) error {
		reply.WriteString(chunk)
		return nil
	}, g.opts...)
	if err != nil {
		return "", err
	}

	if reply.Len() == 0 {
		return "", ErrEmptyReply
	}

	return reply.String(), nil
}

func (g *Gateway) fail(history []Message, gErr *GatewayError) (string, error) {
	logger.Error("Inference call failed",
		zap.String("kind", string(gErr.Kind)),
		zap.Int("status", gErr.StatusCode),
		zap.String("model", g.client.GetModel()),
		zap.Int("messages", len(history)),
		zap.Error(gErr.Err))

	return FallbackMessage, gErr
}

func classify(err error) *GatewayError {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &GatewayError{Kind: KindStatus, StatusCode: statusErr.StatusCode, Err: err}
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &GatewayError{Kind: KindDecode, Err: err}
	}

	if errors.Is(err, ErrEmptyReply) {
		return &GatewayError{Kind: KindEmptyReply, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &GatewayError{Kind: KindTimeout, Err: err}
	}

	return &GatewayError{Kind: KindTransport, Err: err}
}
