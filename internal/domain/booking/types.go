package booking

type Status string

const (
	StatusPending           Status = "pending"
	StatusPaymentProcessing Status = "payment_processing"
	StatusPaymentCompleted  Status = "payment_completed"
	StatusSyncing           Status = "syncing"
	StatusConfirmed         Status = "confirmed"
	StatusSyncFailed        Status = "sync_failed"
	StatusCancelled         Status = "cancelled"
	StatusRefunded          Status = "refunded"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaymentProcessing, StatusPaymentCompleted,
		StatusSyncing, StatusConfirmed, StatusSyncFailed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the lifecycle is finished. Terminal bookings are
// never re-entered; acting on one is a logged no-op, not an error.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

var validTransitions = map[Status][]Status{
	StatusPending:           {StatusPaymentProcessing, StatusPaymentCompleted, StatusCancelled},
	StatusPaymentProcessing: {StatusPaymentCompleted, StatusCancelled},
	StatusPaymentCompleted:  {StatusSyncing},
	StatusSyncing:           {StatusConfirmed, StatusSyncFailed, StatusRefunded, StatusPaymentCompleted},
	StatusSyncFailed:        {StatusRefunded, StatusPaymentCompleted},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
