package galaxy

import (
	"container/heap"
	"encoding/json"
)

// EventType tags a scheduled event.
type EventType string

const (
	EventResourceTick EventType = "resource_tick"
	EventGameEnd      EventType = "game_end"

	// EventArmadaArrival is a legacy type still found in old persisted
	// queues. Armadas themselves are authoritative for arrival, so the
	// loop drops these on sight.
	EventArmadaArrival EventType = "armada_arrival"
)

// ScheduledEvent is one entry in the game's event queue.
type ScheduledEvent struct {
	Type          EventType `json:"type"`
	ScheduledTime int64     `json:"scheduledTime"`

	seq int64 // insertion order, stable tie-break
}

// EventQueue is a priority queue of scheduled events ordered by
// ScheduledTime with a stable insertion-order tie-break. The zero value is
// ready to use.
type EventQueue struct {
	items   eventHeap
	nextSeq int64
}

// Push schedules an event.
func (q *EventQueue) Push(ev ScheduledEvent) {
	ev.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.items, ev)
}

// Peek returns the earliest event without removing it.
func (q *EventQueue) Peek() (ScheduledEvent, bool) {
	if len(q.items) == 0 {
		return ScheduledEvent{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the earliest event.
func (q *EventQueue) Pop() (ScheduledEvent, bool) {
	if len(q.items) == 0 {
		return ScheduledEvent{}, false
	}
	return heap.Pop(&q.items).(ScheduledEvent), true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.items)
}

// Events returns the queued events in scheduled order. The queue is not
// modified.
func (q *EventQueue) Events() []ScheduledEvent {
	out := make([]ScheduledEvent, len(q.items))
	copy(out, q.items)
	tmp := eventHeap(out)
	sorted := make([]ScheduledEvent, 0, len(tmp))
	for len(tmp) > 0 {
		sorted = append(sorted, heap.Pop(&tmp).(ScheduledEvent))
	}
	return sorted
}

// MarshalJSON encodes the queue as an array sorted by scheduled time.
func (q *EventQueue) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Events())
}

// UnmarshalJSON rebuilds the queue from an array, preserving array order as
// the tie-break.
func (q *EventQueue) UnmarshalJSON(data []byte) error {
	var events []ScheduledEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}
	*q = EventQueue{}
	for _, ev := range events {
		q.Push(ev)
	}
	return nil
}

type eventHeap []ScheduledEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].ScheduledTime != h[j].ScheduledTime {
		return h[i].ScheduledTime < h[j].ScheduledTime
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(ScheduledEvent)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	*h = old[:n-1]
	return ev
}
