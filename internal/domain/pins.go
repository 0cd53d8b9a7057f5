package domain

// Pins is the ordered set of chat references pinned by the operator.
// Insertion order of first appearance is retained; duplicates are ignored.
type Pins []ChatRef

// Add appends ref unless already pinned. Reports whether the set changed.
func (p *Pins) Add(ref ChatRef) bool {
	if ref.IsZero() {
		return false
	}
	for _, have := range *p {
		if have == ref {
			return false
		}
	}
	*p = append(*p, ref)
	return true
}

// Remove drops ref. Reports whether the set changed.
func (p *Pins) Remove(ref ChatRef) bool {
	for i, have := range *p {
		if have == ref {
			*p = append((*p)[:i], (*p)[i+1:]...)
			return true
		}
	}
	return false
}

func (p Pins) Contains(ref ChatRef) bool {
	for _, have := range p {
		if have == ref {
			return true
		}
	}
	return false
}
