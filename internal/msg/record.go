package msg

import (
	"encoding/json"
	"fmt"
)

// Record represents a consumed Kafka record
type Record struct {
	Topic     string
	Key       string
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp int64
}

// LifecycleEvent decodes the record value.
func (r Record) LifecycleEvent() (LifecycleEventMsg, error) {
	var ev LifecycleEventMsg
	if err := json.Unmarshal(r.Value, &ev); err != nil {
		return ev, fmt.Errorf("decode lifecycle event at %s/%d/%d: %w", r.Topic, r.Partition, r.Offset, err)
	}
	return ev, nil
}
