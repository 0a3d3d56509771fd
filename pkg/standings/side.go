package standings

// Side is one of the four fixed team positions in a British Parliamentary debate.
type Side string

const (
	SideOG Side = "OG" // Opening Government
	SideOO Side = "OO" // Opening Opposition
	SideCG Side = "CG" // Closing Government
	SideCO Side = "CO" // Closing Opposition
)

var sideOrder = [4]Side{SideOG, SideOO, SideCG, SideCO}

// Sides returns the four sides in display order (OG, OO, CG, CO).
func Sides() [4]Side {
	return sideOrder
}

// Valid reports whether s is one of the four recognized sides.
func (s Side) Valid() bool {
	switch s {
	case SideOG, SideOO, SideCG, SideCO:
		return true
	}
	return false
}

// order is the fixed OG < OO < CG < CO ordering, used as the deterministic
// tie-break within a debate.
func (s Side) order() int {
	for i, v := range sideOrder {
		if s == v {
			return i
		}
	}
	return len(sideOrder)
}
