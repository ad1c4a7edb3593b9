package retouch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct{ n int }

func inc(c *counter) *counter { return &counter{c.n + 1} }

func same(c *counter) *counter { return c }

func TestHistory_CommitsThenUndosRestoreInitial(t *testing.T) {
	assert := assert.New(t)

	initial := &counter{}
	h := NewHistory(initial)
	for i := 0; i < 10; i++ {
		assert.True(h.Commit(inc))
	}
	assert.Equal(10, h.Present().n)
	assert.True(h.CanUndo())
	assert.False(h.CanRedo())

	for i := 0; i < 10; i++ {
		h.Undo()
	}
	assert.Same(initial, h.Present())
	assert.False(h.CanUndo())
	assert.True(h.CanRedo())
}

func TestHistory_UndoRedoIsNoop(t *testing.T) {
	h := NewHistory(&counter{})
	h.Commit(inc)
	h.Commit(inc)

	present := h.Present()
	h.Undo()
	h.Redo()
	assert.Same(t, present, h.Present())
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistory_CommitAfterUndoClearsFuture(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(&counter{})
	h.Commit(inc)
	h.Commit(inc)
	h.Undo()
	assert.True(h.CanRedo())

	h.Commit(func(c *counter) *counter { return &counter{c.n + 10} })
	assert.False(h.CanRedo())
	assert.Equal(11, h.Present().n)

	h.Redo()
	assert.Equal(11, h.Present().n)
}

func TestHistory_UnchangedCommitRecordsNothing(t *testing.T) {
	h := NewHistory(&counter{})
	assert.False(t, h.Commit(same))
	assert.False(t, h.CanUndo())
}

func TestHistory_EmptyStacksAreNoops(t *testing.T) {
	initial := &counter{}
	h := NewHistory(initial)
	h.Undo()
	h.Redo()
	assert.Same(t, initial, h.Present())
}

func TestHistory_LiveUpdateKeepsStacks(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(&counter{})
	h.Commit(inc)
	h.Undo()

	h.LiveUpdate(inc)
	h.LiveUpdate(inc)
	assert.Equal(2, h.Present().n)
	assert.False(h.CanUndo())
	assert.True(h.CanRedo())

	h.Commit(inc)
	assert.Equal(3, h.Present().n)
	assert.True(h.CanUndo())
	assert.False(h.CanRedo())
}

func TestHistory_Reset(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(&counter{})
	h.Commit(inc)
	h.Commit(inc)
	h.Undo()

	fresh := &counter{n: 42}
	h.Reset(fresh)
	assert.Same(fresh, h.Present())
	assert.False(h.CanUndo())
	assert.False(h.CanRedo())
}

func TestHistory_Limit(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(&counter{})
	h.Limit = 3
	for i := 0; i < 5; i++ {
		h.Commit(inc)
	}
	for h.CanUndo() {
		h.Undo()
	}
	assert.Equal(2, h.Present().n)
}

func TestLiveEdit_CommitRecordsOneStep(t *testing.T) {
	assert := assert.New(t)

	initial := &counter{}
	h := NewHistory(initial)
	edit := h.BeginLiveEdit()
	assert.True(h.Editing())

	for i := 0; i < 5; i++ {
		edit.Update(inc)
	}
	assert.Equal(5, h.Present().n)
	assert.False(h.CanUndo())

	assert.True(edit.Commit(inc))
	assert.False(h.Editing())
	assert.Equal(6, h.Present().n)

	h.Undo()
	assert.Same(initial, h.Present())
	assert.False(h.CanUndo())
}

func TestLiveEdit_CommitBackToBase(t *testing.T) {
	initial := &counter{}
	h := NewHistory(initial)
	edit := h.BeginLiveEdit()
	edit.Update(inc)

	assert.False(t, edit.Commit(func(*counter) *counter { return initial }))
	assert.Same(t, initial, h.Present())
	assert.False(t, h.CanUndo())
}

func TestLiveEdit_Cancel(t *testing.T) {
	assert := assert.New(t)

	initial := &counter{}
	h := NewHistory(initial)
	h.Commit(inc)
	h.Undo()

	edit := h.BeginLiveEdit()
	edit.Update(inc)
	edit.Update(inc)
	edit.Cancel()
	edit.Cancel()

	assert.Same(initial, h.Present())
	assert.False(h.CanUndo())
	assert.True(h.CanRedo())
	assert.False(h.Editing())
}

func TestLiveEdit_Misuse(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(&counter{})
	edit := h.BeginLiveEdit()
	assert.Panics(func() { h.BeginLiveEdit() })

	edit.Commit(inc)
	assert.Panics(func() { edit.Update(inc) })
	assert.Panics(func() { edit.Commit(inc) })
	assert.NotPanics(func() { h.BeginLiveEdit().Cancel() })
}

func TestLiveEdit_HistoryOperationsCancelTheEdit(t *testing.T) {
	assert := assert.New(t)

	h := NewHistory(&counter{})
	h.Commit(inc)
	edit := h.BeginLiveEdit()
	edit.Update(inc)
	edit.Update(inc)

	h.Undo()
	assert.False(h.Editing())
	assert.Equal(0, h.Present().n)
	assert.Panics(func() { edit.Update(inc) })

	h.Redo()
	assert.Equal(1, h.Present().n)
}
