package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PurgeSessionsMessage asks for every expired or revoked session to be
// deleted. The sweeper dispatches it on a schedule; ops tooling can send
// it through the command bus on demand.
type PurgeSessionsMessage struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

func (e PurgeSessionsMessage) Type() string { return "session.purge" }

type PurgeSessionsHandler struct {
	store  SessionStore
	logger Logger
}

func NewPurgeSessionsHandler(store SessionStore, logger Logger) *PurgeSessionsHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &PurgeSessionsHandler{store: store, logger: logger}
}

func (h *PurgeSessionsHandler) Execute(ctx context.Context, event PurgeSessionsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during session purge",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *PurgeSessionsHandler) execute(ctx context.Context, event PurgeSessionsMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	purged, err := h.store.PurgeExpiredOrRevoked(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "session purge failed")
	}

	h.logger.Info("session purge completed", "purged", purged, "requested_by", event.RequestedBy)

	return nil
}
