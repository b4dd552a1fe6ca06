package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports the result of p.Ping.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}

// ConnectedCheck fails while closed reports true. It suits clients that
// expose connection state instead of a ping, like an AMQP connection.
func ConnectedCheck(name string, closed func() bool) CheckFunc {
	return func(context.Context) error {
		if closed() {
			return errors.Errorf("%s connection closed", name)
		}
		return nil
	}
}

// GoroutineCountCheck fails when the process runs more than threshold
// goroutines.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}
