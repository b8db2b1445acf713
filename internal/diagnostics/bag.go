package diagnostics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/flyfishxu/aurora/colors"
)

const (
	compileFailedMsg          = "\nCompilation failed with %d error(s)"
	andWarningMsg             = " and %d warning(s)"
	compileSuccessWithWarning = "\nCompilation succeeded with %d warning(s)\n"
)

// Bag collects diagnostics during compilation.
type Bag struct {
	diagnostics []*Diagnostic
	mu          sync.Mutex
	errorCount  int
	warnCount   int
	sourceCache *SourceCache
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{
		sourceCache: NewSourceCache(),
	}
}

// AddSourceContent registers source content for a file path so the
// emitter can render snippets without re-reading the file.
func (b *Bag) AddSourceContent(filepath, content string) {
	b.sourceCache.AddSource(filepath, content)
}

// Add adds a diagnostic to the bag
func (b *Bag) Add(diag *Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.diagnostics = append(b.diagnostics, diag)

	switch diag.Severity {
	case Error, Fatal:
		b.errorCount++
	case Warning:
		b.warnCount++
	}
}

// HasErrors returns true if there are any errors
func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount > 0
}

// ErrorCount returns the number of errors
func (b *Bag) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errorCount
}

// WarningCount returns the number of warnings
func (b *Bag) WarningCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.warnCount
}

// Diagnostics returns a copy of all diagnostics
func (b *Bag) Diagnostics() []*Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]*Diagnostic, len(b.diagnostics))
	copy(result, b.diagnostics)
	return result
}

// EmitAll renders every accumulated diagnostic to stderr followed by a
// summary line.
func (b *Bag) EmitAll() {
	emitter := NewEmitter(os.Stderr)
	emitter.cache = b.sourceCache

	for _, diag := range b.Diagnostics() {
		emitter.Emit(diag)
	}

	b.printSummary(os.Stderr)
}

// EmitAllToString renders every diagnostic to a string with ANSI codes.
func (b *Bag) EmitAllToString() string {
	var buf bytes.Buffer
	emitter := &Emitter{
		cache:  b.sourceCache,
		writer: &buf,
	}

	for _, diag := range b.Diagnostics() {
		emitter.Emit(diag)
	}

	b.printSummary(&buf)
	return buf.String()
}

func (b *Bag) printSummary(w io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.errorCount > 0 {
		colors.RED.Fprintf(w, compileFailedMsg, b.errorCount)
		if b.warnCount > 0 {
			colors.RED.Fprintf(w, andWarningMsg, b.warnCount)
		}
		fmt.Fprintln(w)
	} else if b.warnCount > 0 {
		colors.ORANGE.Fprintf(w, compileSuccessWithWarning, b.warnCount)
	}
}

// Clear removes all diagnostics
func (b *Bag) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diagnostics = nil
	b.errorCount = 0
	b.warnCount = 0
}
