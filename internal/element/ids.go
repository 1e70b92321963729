package element

// ID identifies an element inside a Store.
type ID uint32

// NoID marks the absence of an element.
const NoID ID = 0

// IsValid reports whether the ID may refer to an allocated element.
func (id ID) IsValid() bool { return id != NoID }
