// Package poller repeatedly queries the server-reported status of one
// upload until a terminal state is observed. Polling is best effort: a
// transient fetch failure is logged and the loop stays on schedule, so a
// single network blip never aborts an otherwise healthy long-running job.
package poller

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nuverotech/gst-automation-tool/internal/model"
)

// StatusClient is the slice of the API client the poller needs.
type StatusClient interface {
	Status(ctx context.Context, id int) (*model.UploadStatus, error)
}

// Watch lifecycle states.
const (
	StateIdle int32 = iota
	StateScheduled
	StateStopped
)

// Update is one observation delivered to the consumer. Terminal is true for
// the final update of a watch; exactly one terminal update is ever sent.
type Update struct {
	Status            model.ProcessingStatus
	Progress          int
	Phase             string
	ProcessedFilePath string
	ErrorMessage      string
	Terminal          bool
}

// Poller starts watches over upload statuses.
type Poller struct {
	client   StatusClient
	interval time.Duration
	logger   *log.Logger
}

// New constructs a Poller polling on the given fixed interval.
func New(client StatusClient, interval time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{client: client, interval: interval, logger: logger}
}

// Watch is the cancellation handle for one polling loop.
type Watch struct {
	updates  chan Update
	stop     chan struct{}
	stopOnce sync.Once
	state    atomic.Int32
}

// Updates delivers observations in poll order. The channel closes after the
// terminal update or once the watch is stopped.
func (w *Watch) Updates() <-chan Update {
	return w.updates
}

// Stop cancels future scheduling. An in-flight request is left to finish;
// its result is simply discarded. Stop is idempotent.
func (w *Watch) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// State reports the watch lifecycle state.
func (w *Watch) State() int32 {
	return w.state.Load()
}

// Start begins polling uploadID immediately, then on the fixed interval,
// until a terminal status arrives, the watch is stopped, or ctx is
// cancelled.
func (p *Poller) Start(ctx context.Context, uploadID int) *Watch {
	w := &Watch{
		updates: make(chan Update, 1),
		stop:    make(chan struct{}),
	}
	w.state.Store(StateScheduled)
	go p.run(ctx, uploadID, w)
	return w
}

func (p *Poller) run(ctx context.Context, uploadID int, w *Watch) {
	defer func() {
		w.state.Store(StateStopped)
		close(w.updates)
	}()
	// Fires immediately the first time; no delay before the first request.
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-timer.C:
		}
		status, err := p.client.Status(ctx, uploadID)
		if err != nil {
			// Swallowed on purpose: poll failures are never surfaced
			// and never halt the loop.
			p.logger.Printf("poll upload %d: %v", uploadID, err)
		} else {
			update := makeUpdate(status)
			select {
			case w.updates <- update:
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
			if update.Terminal {
				return
			}
		}
		timer.Reset(p.interval)
	}
}

func makeUpdate(st *model.UploadStatus) Update {
	u := Update{
		Status:   model.ParseStatus(string(st.Status)),
		Progress: st.Progress,
		Phase:    PhaseLabel(st.Progress),
	}
	if st.ProcessedFilePath != nil {
		u.ProcessedFilePath = *st.ProcessedFilePath
	}
	if st.ErrorMessage != nil {
		u.ErrorMessage = *st.ErrorMessage
	}
	u.Terminal = u.Status.IsTerminal()
	return u
}

// PhaseLabel maps the 0-100 progress figure onto the processing phase.
// Bands, not exact matches: a value between the canonical 25/50/75/100
// checkpoints still lands in the phase it belongs to.
func PhaseLabel(progress int) string {
	switch {
	case progress <= 25:
		return "reading file"
	case progress <= 50:
		return "classifying"
	case progress <= 75:
		return "validating"
	default:
		return "complete"
	}
}
