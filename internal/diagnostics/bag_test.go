package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBagCounts(t *testing.T) {
	bag := NewBag()
	assert.False(t, bag.HasErrors())

	bag.Add(NewWarning("w1"))
	bag.Add(NewError("e1"))
	bag.Add(NewError("e2"))
	bag.Add(NewNote("n1"))
	bag.Add(NewFatal("f1"))

	assert.True(t, bag.HasErrors())
	assert.Equal(t, 3, bag.ErrorCount())
	assert.Equal(t, 1, bag.WarningCount())
	assert.Len(t, bag.Diagnostics(), 5)
}

func TestBagClear(t *testing.T) {
	bag := NewBag()
	bag.Add(NewError("e1"))
	bag.Clear()

	assert.False(t, bag.HasErrors())
	assert.Empty(t, bag.Diagnostics())
}

func TestBuilderChain(t *testing.T) {
	d := NewError("bad thing").
		WithCode("E2001").
		WithNote("a note").
		WithHelp("try this")

	assert.Equal(t, Error, d.Severity)
	assert.Equal(t, "E2001", d.Code)
	assert.Equal(t, []string{"a note"}, d.Notes)
	assert.Equal(t, "try this", d.Help)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "note", Note.String())
	assert.Equal(t, "warning", Warning.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fatal", Fatal.String())
}
