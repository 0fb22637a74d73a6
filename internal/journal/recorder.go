package journal

import (
	"context"

	"github.com/ismaiel54/fix-order-client/internal/order"
	"go.uber.org/zap"
)

// Recorder journals every order transition of one session.
type Recorder struct {
	store     *Store
	sessionID string
	logger    *zap.Logger
}

// NewRecorder returns an order.Observer journaling into store under sessionID.
func NewRecorder(store *Store, sessionID string, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, sessionID: sessionID, logger: logger}
}

// OrderTransitioned implements order.Observer. Journal failures are logged;
// they never stop the order flow.
func (r *Recorder) OrderTransitioned(ctx context.Context, t order.Transition) {
	ev, err := r.store.RecordTransition(ctx, r.sessionID, t)
	if err != nil {
		r.logger.Error("failed to journal transition",
			zap.String("cl_ord_id", t.ClientOrderID),
			zap.String("state", t.To.String()),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("transition journaled",
		zap.String("cl_ord_id", t.ClientOrderID),
		zap.String("event_id", ev.EventID),
	)
}
