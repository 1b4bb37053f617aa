package ui

// DetermineLayoutMode picks the side-by-side layout when there is room for a
// body panel next to the action list.
func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < 60 || rows < 16 {
		return LayoutTooSmall
	}
	if cols >= 110 && rows >= 24 {
		return LayoutWide
	}
	return LayoutCompact
}
