package value

// tableMaxLoad is the maximum load factor before a Table grows
// (spec.md §3: "max load factor 0.75").
const tableMaxLoad = 0.75

// tableEntry is one bucket of a Table. A nil Key with a nil Value is an
// empty sentinel; a nil Key with a true-bool Value is a tombstone left
// by a deletion (spec.md §3) — probing must skip tombstones but may
// reuse the first one it encounters on insert.
type tableEntry struct {
	Key   *ObjString
	Value Value
}

// Table is an open-addressed hash map from interned strings to Values,
// power-of-two capacity, linear probing, grown by doubling. It is
// ported field-for-field from _examples/original_source/table.c
// (find_entry/adjust_capacity/table_set/table_delete/table_find_string/
// mark_table/table_remove_white), since the teacher has no hash table
// of its own (its globals are a plain Go map).
//
// Two distinct roles in this module use Table: the Heap's string intern
// table (keys only matter; values are always Nil) and every globals/
// fields/methods table a running program touches.
type Table struct {
	count    int
	entries  []tableEntry
	capacity int
}

// NewTable returns an empty Table. Initial capacity is 0; the first
// insert allocates 8 buckets (spec.md §3).
func NewTable() *Table {
	return &Table{}
}

// Count returns the number of occupied buckets: live entries plus any
// tombstones left since the last resize (Delete does not decrement it).
func (t *Table) Count() int { return t.count }

func findEntry(entries []tableEntry, capacity int, key *ObjString) int {
	index := int(key.Hash) & (capacity - 1)
	tombstone := -1
	for {
		entry := &entries[index]
		if entry.Key == nil {
			if entry.Value.IsNil() {
				if tombstone != -1 {
					return tombstone
				}
				return index
			}
			if tombstone == -1 {
				tombstone = index
			}
		} else if entry.Key == key {
			return index
		}
		index = (index + 1) & (capacity - 1)
	}
}

func (t *Table) adjustCapacity(capacity int) {
	entries := make([]tableEntry, capacity)
	for i := range entries {
		entries[i] = tableEntry{Key: nil, Value: Nil()}
	}
	newCount := 0
	for i := 0; i < t.capacity; i++ {
		entry := &t.entries[i]
		if entry.Key == nil {
			continue
		}
		dest := findEntry(entries, capacity, entry.Key)
		entries[dest].Key = entry.Key
		entries[dest].Value = entry.Value
		newCount++
	}
	t.entries = entries
	t.capacity = capacity
	t.count = newCount
}

// Get looks up key, returning its value and whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if t.count == 0 {
		return Nil(), false
	}
	idx := findEntry(t.entries, t.capacity, key)
	entry := &t.entries[idx]
	if entry.Key == nil {
		return Nil(), false
	}
	return entry.Value, true
}

// Set inserts or overwrites key's value, growing the table first if the
// load factor would exceed tableMaxLoad. Returns true if key was not
// already present.
func (t *Table) Set(key *ObjString, v Value) bool {
	if float64(t.count+1) > float64(t.capacity)*tableMaxLoad {
		capacity := growCapacity(t.capacity)
		t.adjustCapacity(capacity)
	}
	idx := findEntry(t.entries, t.capacity, key)
	entry := &t.entries[idx]
	isNew := entry.Key == nil
	if isNew && entry.Value.IsNil() {
		t.count++
	}
	entry.Key = key
	entry.Value = v
	return isNew
}

// Delete removes key, leaving a tombstone in its place so later probes
// for colliding keys still find them. Returns whether key was present.
func (t *Table) Delete(key *ObjString) bool {
	if t.count == 0 {
		return false
	}
	idx := findEntry(t.entries, t.capacity, key)
	entry := &t.entries[idx]
	if entry.Key == nil {
		return false
	}
	entry.Key = nil
	entry.Value = Bool(true)
	return true
}

// AddAll copies every entry of from into t, used by OP_INHERIT to copy a
// superclass's method table into its subclass.
func (t *Table) AddAll(from *Table) {
	for i := 0; i < from.capacity; i++ {
		entry := &from.entries[i]
		if entry.Key != nil {
			t.Set(entry.Key, entry.Value)
		}
	}
}

// FindString looks up a string by content and hash without first
// allocating an ObjString, the operation string interning relies on: if
// an equal string is already interned, reuse it instead of allocating a
// duplicate.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if t.count == 0 {
		return nil
	}
	index := int(hash) & (t.capacity - 1)
	for {
		entry := &t.entries[index]
		if entry.Key == nil {
			if entry.Value.IsNil() {
				return nil
			}
		} else if entry.Key.Hash == hash && entry.Key.Chars == chars {
			return entry.Key
		}
		index = (index + 1) & (t.capacity - 1)
	}
}

// Each calls fn for every live entry, in bucket order. Used by the
// collector to mark every key and value reachable from this table.
func (t *Table) Each(fn func(key *ObjString, v Value)) {
	for i := 0; i < t.capacity; i++ {
		entry := &t.entries[i]
		if entry.Key != nil {
			fn(entry.Key, entry.Value)
		}
	}
}

// RemoveUnmarkedKeys deletes every entry whose key is not marked. Used
// by the collector to weaken the intern table before sweeping
// (spec.md §4.3: "remove any entry in the strings Table whose key
// String is unmarked").
func (t *Table) RemoveUnmarkedKeys() {
	for i := 0; i < t.capacity; i++ {
		entry := &t.entries[i]
		if entry.Key != nil && !entry.Key.marked {
			t.Delete(entry.Key)
		}
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
