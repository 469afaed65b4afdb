package models

import "github.com/syssam/related"

// sequence generates the synthesized identifiers of one model.
type sequence struct {
	model string
	last  int64
}

func (s *sequence) next() related.ID {
	s.last++
	return related.SequenceID(s.model, s.last)
}

// advance makes sure the next identifier is past id when id was
// synthesized by this sequence.
func (s *sequence) advance(id related.ID) {
	if !id.IsSynthesized() || !s.owns(id) {
		return
	}
	if n, ok := id.Suffix(); ok && n > s.last {
		s.last = n
	}
}

func (s *sequence) owns(id related.ID) bool {
	str := id.String()
	return len(str) > len(s.model)+1 && str[:len(s.model)] == s.model && str[len(s.model)] == '_'
}
