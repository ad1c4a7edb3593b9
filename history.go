package retouch

// History is a snapshot based undo/redo store wrapping an application
// state value. Values are compared with ==, so T is expected to be a
// reference type (like *Document) whose snapshots are never mutated.
//
// A History is not safe for concurrent use.
type History[T comparable] struct {
	past    []T
	present T
	future  []T

	// Limit caps the number of undo steps kept. Zero means unbounded.
	Limit int

	live *LiveEdit[T]
}

// NewHistory creates a history whose present value is initial.
func NewHistory[T comparable](initial T) *History[T] {
	return &History[T]{present: initial}
}

// Present returns the current value.
func (h *History[T]) Present() T {
	return h.present
}

// CanUndo reports whether there is a step to undo.
func (h *History[T]) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether there is a step to redo.
func (h *History[T]) CanRedo() bool {
	return len(h.future) > 0
}

// Commit computes the next value from the present one. If it differs from
// the present value, the present is pushed on the undo stack and the redo
// stack is cleared. It reports whether an undo step was recorded.
//
// Calling Commit while a live edit is open cancels the live edit first.
func (h *History[T]) Commit(producer func(T) T) bool {
	h.cancelLive()
	return h.commit(h.present, producer(h.present))
}

func (h *History[T]) commit(base, next T) bool {
	if next == base {
		h.present = base
		return false
	}
	h.past = append(h.past, base)
	if h.Limit > 0 && len(h.past) > h.Limit {
		// Drop the oldest entries; clear them to release the snapshots.
		n := len(h.past) - h.Limit
		var zero T
		for i := 0; i < n; i++ {
			h.past[i] = zero
		}
		h.past = h.past[n:]
	}
	h.present = next
	h.future = nil

	Logger().Debug("history commit")
	return true
}

// LiveUpdate replaces the present value without touching the undo and redo
// stacks. It is meant for a mutation still in progress, which the caller
// must terminate with exactly one Commit carrying the final value.
// BeginLiveEdit offers the same protocol with the termination enforced.
func (h *History[T]) LiveUpdate(producer func(T) T) {
	h.present = producer(h.present)
}

// Undo moves the present value on the redo stack and restores the last
// committed one. It is a no-op when there is nothing to undo.
func (h *History[T]) Undo() {
	h.cancelLive()
	if len(h.past) == 0 {
		return
	}
	n := len(h.past) - 1
	prev := h.past[n]
	var zero T
	h.past[n] = zero
	h.past = h.past[:n]

	h.future = append(h.future, h.present)
	h.present = prev
	Logger().Debug("history undo")
}

// Redo is the mirror of Undo.
func (h *History[T]) Redo() {
	h.cancelLive()
	if len(h.future) == 0 {
		return
	}
	n := len(h.future) - 1
	next := h.future[n]
	var zero T
	h.future[n] = zero
	h.future = h.future[:n]

	h.past = append(h.past, h.present)
	h.present = next
	Logger().Debug("history redo")
}

// Reset clears both stacks and sets the present value to initial.
func (h *History[T]) Reset(initial T) {
	h.cancelLive()
	h.past = nil
	h.future = nil
	h.present = initial
}

// BeginLiveEdit opens a live edit: a sequence of provisional updates
// closed by exactly one Commit (a single undo step from the value present
// when the edit began) or Cancel (back to that value, no undo step).
//
// It panics if another live edit is still open.
func (h *History[T]) BeginLiveEdit() *LiveEdit[T] {
	if h.live != nil {
		panic("retouch: live edit already in progress")
	}
	h.live = &LiveEdit[T]{h: h, base: h.present}
	return h.live
}

// Editing reports whether a live edit is open.
func (h *History[T]) Editing() bool {
	return h.live != nil
}

func (h *History[T]) cancelLive() {
	if h.live != nil {
		h.live.Cancel()
	}
}

// LiveEdit is an in-progress interactive change of a History value.
type LiveEdit[T comparable] struct {
	h     *History[T]
	base  T
	ended bool
}

// Base returns the value that was present when the edit began.
func (e *LiveEdit[T]) Base() T {
	return e.base
}

// Update replaces the present value without recording an undo step.
// It panics if the edit has already ended.
func (e *LiveEdit[T]) Update(producer func(T) T) {
	e.check()
	e.h.present = producer(e.h.present)
}

// Commit closes the edit with the final value computed from the current
// (live) present one. An undo step from the base value is recorded unless
// the final value equals the base. It panics if the edit has already ended.
func (e *LiveEdit[T]) Commit(producer func(T) T) bool {
	e.check()
	next := producer(e.h.present)
	e.end()
	return e.h.commit(e.base, next)
}

// Cancel closes the edit and restores the base value. Cancelling an ended
// edit is a no-op.
func (e *LiveEdit[T]) Cancel() {
	if e.ended {
		return
	}
	e.h.present = e.base
	e.end()
}

func (e *LiveEdit[T]) end() {
	e.ended = true
	if e.h.live == e {
		e.h.live = nil
	}
}

func (e *LiveEdit[T]) check() {
	if e.ended {
		panic("retouch: live edit already ended")
	}
}
