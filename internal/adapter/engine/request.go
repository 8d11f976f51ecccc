package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// RequestQueue is the durable queue the engine consumes tier requests from.
const RequestQueue = "tier.requests"

type Request struct {
	ID          uuid.UUID          `json:"id"`
	Kind        domain.RequestKind `json:"kind"`
	Event       domain.Address     `json:"event"`
	RequestedAt time.Time          `json:"requested_at"`
}

func DecodeRequest(body []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, fmt.Errorf("decode tier request: %w", err)
	}
	switch req.Kind {
	case domain.RequestDelegate, domain.RequestCommit, domain.RequestUndelegate, domain.RequestCommitAndUndelegate:
	default:
		return Request{}, fmt.Errorf("%w: unknown tier request %q", domain.ErrInvalidInput, req.Kind)
	}
	if req.Event.IsZero() {
		return Request{}, fmt.Errorf("%w: tier request without event", domain.ErrInvalidInput)
	}
	return req, nil
}
