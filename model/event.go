package model

// EntityKind identifies which cached table an event refers to.
type EntityKind string

const (
	EntityItem  EntityKind = "item"
	EntityStore EntityKind = "store"
)

// ChangeOp describes the mutation that produced a ChangeEvent.
type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
	OpEvict  ChangeOp = "evict"
	OpClear  ChangeOp = "clear"
)

// ChangeEvent is published after a successful mutation batch. Keys lists the
// affected entity ids when known; bulk operations (evict, clear) leave it nil.
type ChangeEvent struct {
	ID     string     `json:"id"`
	Entity EntityKind `json:"entity"`
	Op     ChangeOp   `json:"op"`
	Keys   []string   `json:"keys,omitempty"`
	At     int64      `json:"at"` // epoch milliseconds
}
