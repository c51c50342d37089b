package domain

import "fmt"

// Tools a committed action may carry. The set matches the client toolbar.
const (
	ToolPen    = "pen"
	ToolEraser = "eraser"
	ToolRect   = "rect"
	ToolCircle = "circle"
	ToolText   = "text"
)

// Point is one coordinate of a stroke or the anchor of a text action.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Action is one committed drawing operation. Entries are immutable once
// appended to a room's log; the point sequence is frozen at commit time.
type Action struct {
	Tool     string  `json:"tool"`
	Color    string  `json:"color,omitempty"` // ignored for eraser
	Points   []Point `json:"points"`
	Text     string  `json:"text,omitempty"` // only for tool=text
	Username string  `json:"username,omitempty"`
}

// Validate checks the shape invariants of a committed action: a known tool,
// at least one point for text, at least two points for every other tool, and
// non-empty text for text actions.
func (a *Action) Validate() error {
	switch a.Tool {
	case ToolPen, ToolEraser, ToolRect, ToolCircle:
		if len(a.Points) < 2 {
			return fmt.Errorf("action %q needs at least 2 points, got %d", a.Tool, len(a.Points))
		}
	case ToolText:
		if len(a.Points) < 1 {
			return fmt.Errorf("text action needs an anchor point")
		}
		if a.Text == "" {
			return fmt.Errorf("text action has empty text")
		}
	default:
		return fmt.Errorf("unknown tool %q", a.Tool)
	}
	return nil
}

// Clone returns a deep copy so a stored entry cannot alias caller-owned
// point slices.
func (a Action) Clone() Action {
	c := a
	c.Points = make([]Point, len(a.Points))
	copy(c.Points, a.Points)
	return c
}
