package domain

type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent is one entry of the store's change feed. New is set for
// inserts and updates, Old for updates and deletes.
type ChangeEvent struct {
	Op  ChangeOp
	New *Reservation
	Old *Reservation
}

// RecordID returns the id the event is about, preferring the new snapshot.
func (e ChangeEvent) RecordID() string {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return ""
}

func (e ChangeEvent) IsSentinel() bool {
	return e.RecordID() == SentinelID
}
