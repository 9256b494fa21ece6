package ports

import (
	"context"

	"github.com/dulytrade/portal-api/internal/core/domain"
)

// ActivityRecorder accepts audit events without blocking the caller and
// without ever reporting failure: audit is fire-and-forget by contract.
type ActivityRecorder interface {
	Record(event domain.ActivityEvent)
}

// ActivityStore is the persistence sink the recorder drains into.
type ActivityStore interface {
	Insert(ctx context.Context, event domain.ActivityEvent) error
}
