package concordance

// Placeholder fills a slot whose value could not be determined.
const Placeholder = "_"

// Width is the number of slots in every segmented concordance.
const Width = 8

const (
	SlotID      = 0
	SlotTitle   = 4
	SlotCountry = 5
)

type tupleKind uint8

const (
	tupleEmpty tupleKind = iota
	tupleUnsegmented
	tupleSegmented
)

// Tuple is the ordered field tuple of one concordance line.
//
// Any non-empty line produces all Width slots, so callers may always index
// every position. A line without the "**" separator still produces a full
// tuple (the trimmed line in slot 0, placeholders elsewhere) but reports
// Segmented() == false and should be discarded.
type Tuple struct {
	slots [Width]string
	kind  tupleKind
}

func newTuple(kind tupleKind) Tuple {
	t := Tuple{kind: kind}
	for i := range t.slots {
		t.slots[i] = Placeholder
	}
	return t
}

// Len is 0 for an empty line and Width otherwise.
func (t Tuple) Len() int {
	if t.kind == tupleEmpty {
		return 0
	}
	return Width
}

func (t Tuple) Empty() bool {
	return t.kind == tupleEmpty
}

// Segmented reports whether the line could be split into its two blocks.
func (t Tuple) Segmented() bool {
	return t.kind == tupleSegmented
}

// Field returns slot i, or "" when the tuple is empty or i is out of range.
func (t Tuple) Field(i int) string {
	if t.kind == tupleEmpty || i < 0 || i >= Width {
		return ""
	}
	return t.slots[i]
}

func (t Tuple) ID() string {
	return t.Field(SlotID)
}

// Slice copies the slots out, nil for an empty tuple.
func (t Tuple) Slice() []string {
	if t.kind == tupleEmpty {
		return nil
	}
	out := make([]string, Width)
	copy(out, t.slots[:])
	return out
}
