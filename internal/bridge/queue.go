package bridge

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"sketchdesk/internal/host"
	"sketchdesk/internal/models"
)

type write struct {
	seq   uint64
	gen   uint64
	state models.ViewState
}

// enqueue puts state in the single pending slot, replacing any unsent value,
// and starts the writer if it is not running.
func (b *Bridge) enqueue(state models.ViewState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	if b.pending != nil {
		b.metrics.BridgeSuperseded.Inc()
		b.logger.Debug("Bridge", "queued write superseded", map[string]interface{}{
			"seq":    b.pending.seq,
			"by_seq": b.seq,
		})
	}
	b.pending = &write{seq: b.seq, gen: b.gen, state: state}

	if !b.running {
		b.running = true
		b.idle = make(chan struct{})
		b.wg.Add(1)
		go b.drain()
	}
}

func (b *Bridge) drain() {
	defer b.wg.Done()

	for {
		b.mu.Lock()
		w := b.pending
		if w == nil {
			b.running = false
			close(b.idle)
			b.mu.Unlock()
			return
		}
		b.pending = nil
		b.mu.Unlock()

		b.send(*w)
	}
}

// newerQueued reports whether a later value is waiting behind w.
func (b *Bridge) newerQueued(w write) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil || b.gen != w.gen
}

func (b *Bridge) send(w write) {
	attempt := 0
	operation := func() error {
		if attempt > 0 {
			if b.newerQueued(w) {
				return backoff.Permanent(errSuperseded)
			}
			b.metrics.BridgeRetries.Inc()
			b.logger.Debug("Bridge", "retrying write", map[string]interface{}{
				"seq":     w.seq,
				"attempt": attempt + 1,
			})
		}
		attempt++

		state := w.state
		_, err := b.invoker.Invoke(b.ctx, host.CmdSetAppState, host.SetAppStateArgs{NewState: &state})
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return backoff.Permanent(err)
		}
		return err
	}

	err := backoff.Retry(operation, b.retryPolicy())
	switch {
	case err == nil:
		b.ack(w)
	case errors.Is(err, errSuperseded):
		b.logger.Debug("Bridge", "retry abandoned for newer write", map[string]interface{}{"seq": w.seq})
	default:
		b.fail(w, err)
	}
}

func (b *Bridge) retryPolicy() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = b.opts.RetryInterval
	exp.MaxElapsedTime = 0

	retries := b.opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), b.ctx)
}

func (b *Bridge) ack(w write) {
	b.mu.Lock()
	if w.gen != b.gen || w.seq <= b.ackedSeq {
		b.mu.Unlock()
		b.metrics.BridgeStaleAcks.Inc()
		b.logger.Debug("Bridge", "stale acknowledgement discarded", map[string]interface{}{"seq": w.seq})
		return
	}
	b.ackedSeq = w.seq
	b.confirmed = w.state
	result := WriteResult{Seq: w.seq, State: w.state, At: time.Now()}
	b.last = &result
	b.mu.Unlock()

	b.metrics.BridgeWrites.WithLabelValues("ok").Inc()
	b.logger.Debug("Bridge", "app state persisted", map[string]interface{}{"seq": w.seq})

	if b.opts.OnWrite != nil {
		b.opts.OnWrite(result)
	}
}

func (b *Bridge) fail(w write, err error) {
	b.metrics.BridgeWrites.WithLabelValues("error").Inc()

	fields := w.state.Fields()
	fields["seq"] = w.seq
	b.logger.Error("Bridge", "failed to persist app state", err, fields)

	b.mu.Lock()
	current := w.gen == b.gen
	newer := b.seq > w.seq
	confirmed := b.confirmed
	result := WriteResult{Seq: w.seq, State: w.state, Err: err, At: time.Now()}
	b.last = &result
	b.mu.Unlock()

	if b.opts.Policy == PolicyRollback && current && !newer {
		if b.repo.CompareAndReplace(w.state, confirmed) {
			b.logger.Info("Bridge", "rolled back to last confirmed app state", confirmed.Fields())
		}
	}

	if b.opts.OnError != nil {
		b.opts.OnError(&WriteError{Seq: w.seq, State: w.state, Err: err})
	}
	if current && b.opts.OnWrite != nil {
		b.opts.OnWrite(result)
	}
}
