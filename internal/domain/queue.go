package domain

// AccrualQueue transports investment ids to the background worker that
// credits daily returns.
type AccrualQueue interface {
	EnqueueAccrual(investmentID string) error
	DequeueAccrual() (string, error)
	QueueLength() (int64, error)
}
