package diagnostics

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/flyfishxu/aurora/colors"
	"github.com/flyfishxu/aurora/internal/source"
)

func TestEmitterRendering(t *testing.T) {
	bag := NewBag()
	bag.AddSourceContent("main.aur", "let x = ;")

	file := "main.aur"
	start := &source.Position{Line: 1, Column: 5, Index: 4}
	end := &source.Position{Line: 1, Column: 8, Index: 7}

	bag.Add(
		NewError("expected ';'").
			WithCode(ErrParse).
			WithPrimaryLabel(file, source.NewLocation(&file, start, end), ""),
	)

	rendered := colors.StripANSI(bag.EmitAllToString())

	g := goldie.New(t)
	g.Assert(t, "parse_error", []byte(rendered))
}

func TestEmitterHeaderOnly(t *testing.T) {
	bag := NewBag()
	bag.Add(NewError("something went wrong").WithCode("E0001"))

	rendered := colors.StripANSI(bag.EmitAllToString())
	assert.Contains(t, rendered, "error[E0001]: something went wrong")
	assert.Contains(t, rendered, "Compilation failed with 1 error(s)")
}

func TestSourceCacheInMemory(t *testing.T) {
	cache := NewSourceCache()
	cache.AddSource("mem.aur", "first\nsecond\nthird")

	line, err := cache.GetLine("mem.aur", 2)
	assert.NoError(t, err)
	assert.Equal(t, "second", line)

	_, err = cache.GetLine("mem.aur", 9)
	assert.Error(t, err)
}
