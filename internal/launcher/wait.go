package launcher

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Iron-Ham/lichlaunch/internal/logging"
)

const dialTimeout = time.Second

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dialPort checks that something accepts TCP connections on the loopback
// port. The connection is closed immediately.
func dialPort(ctx context.Context, port int) error {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return err
	}
	return conn.Close()
}

// sleepBackOff waits out each delay of next itself, through the launcher's
// sleep func, and hands the retry loop a zero delay. A cancelled wait stops
// the retries.
type sleepBackOff struct {
	ctx   context.Context
	next  backoff.BackOff
	sleep func(ctx context.Context, d time.Duration) error
	log   *logging.Logger
}

func (b *sleepBackOff) Reset() { b.next.Reset() }

func (b *sleepBackOff) NextBackOff() time.Duration {
	d := b.next.NextBackOff()
	if d == backoff.Stop {
		return backoff.Stop
	}
	b.log.Debug("retrying attach", "in_ms", d.Milliseconds())
	if err := b.sleep(b.ctx, d); err != nil {
		return backoff.Stop
	}
	return 0
}
