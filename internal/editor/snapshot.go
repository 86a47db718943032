package editor

// Snapshot is the authoritative state of one open note. Revision increases by
// exactly one for every mutation that actually changes Text.
//
// A Snapshot is not safe for concurrent use; the owner serializes mutations.
type Snapshot struct {
	Text      string    `json:"text"`
	Selection Selection `json:"selection"`
	Revision  uint64    `json:"revision"`
}

// NewSnapshot returns a snapshot with the cursor at the end of text.
func NewSnapshot(text string) *Snapshot {
	return &Snapshot{
		Text:      text,
		Selection: Cursor(len(text)),
	}
}

// SetSelection replaces the selection, clamped to the text.
func (s *Snapshot) SetSelection(sel Selection) {
	s.Selection = clampTo(sel, s.Text)
}

// ReplaceFromInput treats text as the whole new buffer. It skips transaction
// validation and is meant for host input events that cannot cheaply report a
// minimal diff.
func (s *Snapshot) ReplaceFromInput(text string, sel Selection) Outcome {
	next := clampTo(sel, text)
	out := Outcome{
		TextChanged:      s.Text != text,
		SelectionChanged: s.Selection != next,
	}
	s.Text = text
	s.Selection = next
	if out.TextChanged {
		s.Revision++
	}
	out.Revision = s.Revision
	return out
}

// Apply validates and applies tx. On error the snapshot is left unchanged.
func (s *Snapshot) Apply(tx Transaction) (Outcome, error) {
	changes, err := normalizeChanges(tx.Changes, s.Text)
	if err != nil {
		return Outcome{Revision: s.Revision}, err
	}

	nextText := s.Text
	if len(changes) > 0 {
		nextText = applyChanges(s.Text, changes)
	}

	var nextSel Selection
	if tx.SelectionAfter != nil {
		nextSel = clampTo(*tx.SelectionAfter, nextText)
	} else {
		nextSel = clampTo(NewSelection(
			mapPosition(s.Selection.Start, changes),
			mapPosition(s.Selection.End, changes),
		), nextText)
	}

	out := Outcome{
		TextChanged:      s.Text != nextText,
		SelectionChanged: s.Selection != nextSel,
	}
	s.Text = nextText
	s.Selection = nextSel
	if out.TextChanged {
		s.Revision++
	}
	out.Revision = s.Revision
	return out, nil
}

// clampTo clamps sel to text and floors both ends to code point boundaries.
func clampTo(sel Selection, text string) Selection {
	c := sel.Clamp(len(text))
	return NewSelection(floorBoundary(text, c.Start), floorBoundary(text, c.End))
}
