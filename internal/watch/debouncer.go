package watch

import (
	"log/slog"
	"sync"
	"time"
)

// debouncer coalesces rapid events for the same path within a window:
// CREATE+MODIFY collapses to CREATE, CREATE+DELETE cancels out,
// MODIFY+DELETE collapses to DELETE, DELETE+CREATE becomes MODIFY (the
// file was replaced).
type debouncer struct {
	window  time.Duration
	pending map[string]*pendingEvent
	mu      sync.Mutex
	out     chan []Event
	timer   *time.Timer
	stopped bool
}

type pendingEvent struct {
	event   Event
	firstOp Operation
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]*pendingEvent),
		out:     make(chan []Event, 10),
	}
}

func (d *debouncer) add(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[ev.Path]; ok {
		coalesced := coalesce(existing, ev)
		if coalesced == nil {
			delete(d.pending, ev.Path)
		} else {
			existing.event = *coalesced
		}
	} else {
		d.pending[ev.Path] = &pendingEvent{event: ev, firstOp: ev.Operation}
	}

	d.scheduleFlush()
}

func coalesce(existing *pendingEvent, next Event) *Event {
	switch existing.firstOp {
	case OpCreate:
		switch next.Operation {
		case OpModify:
			return &existing.event
		case OpDelete:
			return nil
		default:
			return &next
		}
	case OpModify:
		return &next
	case OpDelete:
		if next.Operation == OpCreate {
			result := next
			result.Operation = OpModify
			return &result
		}
		return &next
	default:
		return &next
	}
}

func (d *debouncer) scheduleFlush() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	events := make([]Event, 0, len(d.pending))
	for _, pe := range d.pending {
		events = append(events, pe.event)
	}
	d.pending = make(map[string]*pendingEvent)

	select {
	case d.out <- events:
	default:
		slog.Warn("debouncer output full, dropping batch", "batch_size", len(events))
	}
}

func (d *debouncer) output() <-chan []Event { return d.out }

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.out)
}
