package msg

// LifecycleEventMsg is one order state change as published to TopicOrderLifecycle.
type LifecycleEventMsg struct {
	EventID      string `json:"event_id"`
	SessionID    string `json:"session_id"`
	ClOrdID      string `json:"cl_ord_id"`
	OrderID      string `json:"order_id,omitempty"`
	Symbol       string `json:"symbol"`
	FromState    string `json:"from_state"`
	ToState      string `json:"to_state"`
	Reason       string `json:"reason,omitempty"`
	TsUnixMillis int64  `json:"ts_unix_millis"`
}

// Final reports whether ToState ends the order's life on the client side.
// confirmed_new counts when no cancellation follows; a later event overrides it.
func (m LifecycleEventMsg) Final() bool {
	switch m.ToState {
	case "confirmed_new", "cancelled", "timed_out":
		return true
	}
	return false
}
