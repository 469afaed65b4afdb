package models

// collection is an ordered, deduplicated list of records with a
// key-to-position index. Keys are the natural keys of the member records
// at insertion time.
type collection struct {
	items []*Record
	keys  []any
	pos   map[any]int
}

func newCollection() *collection {
	return &collection{pos: make(map[any]int)}
}

func (c *collection) len() int { return len(c.items) }

func (c *collection) has(r *Record) bool {
	i, ok := c.pos[r.key()]
	return ok && c.items[i] == r
}

// add appends r unless a record with the same key is present.
func (c *collection) add(r *Record) bool {
	k := r.key()
	if _, ok := c.pos[k]; ok {
		return false
	}
	c.pos[k] = len(c.items)
	c.items = append(c.items, r)
	c.keys = append(c.keys, k)
	return true
}

// remove deletes r and shifts the positions of the records after it.
func (c *collection) remove(r *Record) bool {
	i, ok := c.pos[r.key()]
	if !ok || c.items[i] != r {
		// The key changed since insertion.
		i = -1
		for j, item := range c.items {
			if item == r {
				i = j
				break
			}
		}
		if i < 0 {
			return false
		}
	}
	delete(c.pos, c.keys[i])
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
	for j := i; j < len(c.keys); j++ {
		c.pos[c.keys[j]] = j
	}
	return true
}

// rekey updates the key of r after its identity changed.
func (c *collection) rekey(r *Record) {
	for i, item := range c.items {
		if item != r {
			continue
		}
		delete(c.pos, c.keys[i])
		k := r.key()
		c.keys[i] = k
		c.pos[k] = i
		return
	}
}

// list returns a copy of the members.
func (c *collection) list() []*Record {
	if c == nil {
		return nil
	}
	out := make([]*Record, len(c.items))
	copy(out, c.items)
	return out
}
