package segment

// mapTable implements Table using a map for O(1) lookups.
type mapTable struct {
	segments map[int64]string
}

// NewMapTable creates a new map-based segment table.
func NewMapTable(capacity int) Table {
	return &mapTable{
		segments: make(map[int64]string, capacity),
	}
}

// DefaultTable returns the built-in user fixture used when no segment file
// or segment service is configured.
func DefaultTable() Table {
	t := NewMapTable(3).(*mapTable)
	t.Set(1, "p1")
	t.Set(2, "p2")
	t.Set(3, "p3")
	return t
}

// Lookup returns the segment for a user, if any.
func (t *mapTable) Lookup(userID int64) (string, bool) {
	segment, ok := t.segments[userID]
	return segment, ok
}

// Size returns the number of users in the table.
func (t *mapTable) Size() int {
	return len(t.segments)
}

// Set assigns a segment to a user, replacing any previous assignment.
func (t *mapTable) Set(userID int64, segment string) {
	t.segments[userID] = segment
}

// Range calls fn for every user in the table until fn returns false.
func (t *mapTable) Range(fn func(userID int64, segment string) bool) {
	for userID, segment := range t.segments {
		if !fn(userID, segment) {
			return
		}
	}
}

// merge copies every entry of other into t. Entries in other win.
func (t *mapTable) merge(other Table) {
	other.Range(func(userID int64, segment string) bool {
		t.segments[userID] = segment
		return true
	})
}
