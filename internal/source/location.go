package source

import "fmt"

// Location is a span of source code with start and end positions.
type Location struct {
	Start    *Position
	End      *Position
	Filename *string
}

// NewLocation creates a new Location with the given start and end positions.
func NewLocation(filename *string, start, end *Position) *Location {
	return &Location{
		Filename: filename,
		Start:    start,
		End:      end,
	}
}

func (l *Location) String() string {
	if l == nil || l.Start == nil || l.End == nil {
		return "location(unknown)"
	}
	return fmt.Sprintf("location(%d:%d - %d:%d)", l.Start.Line, l.Start.Column, l.End.Line, l.End.Column)
}

// Length is the number of columns covered on a single-line span.
// Multi-line spans report 1 so the caret renderer never underflows.
func (l *Location) Length() int {
	if l == nil || l.Start == nil || l.End == nil {
		return 1
	}
	if l.Start.Line != l.End.Line {
		return 1
	}
	if n := l.End.Column - l.Start.Column; n > 0 {
		return n
	}
	return 1
}
