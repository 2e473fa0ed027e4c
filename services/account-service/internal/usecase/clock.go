package usecase

import "time"

// Clock abstracts time so time-to-live decisions can be controlled in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Notifier delivers account emails. Delivery is fire-and-forget: lifecycle
// operations succeed once state is persisted, not once mail has gone out.
type Notifier interface {
	SendHTML(to []string, subject, htmlBody string) error
}
