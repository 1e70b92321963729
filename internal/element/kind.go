package element

// Kind enumerates the element variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVariable
	KindParameter
	KindProperty
	KindConstant
	KindPassByReference
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindParameter:
		return "parameter"
	case KindProperty:
		return "property"
	case KindConstant:
		return "constant"
	case KindPassByReference:
		return "pass-by-reference"
	default:
		return "invalid"
	}
}

// Flags encode declaration-level attributes.
type Flags uint16

const (
	FlagByReference Flags = 1 << iota
	FlagVariadic
	FlagStatic
	FlagPublic
	FlagProtected
	FlagPrivate
	FlagGlobal
)

// Strings returns textual flag labels.
func (f Flags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&FlagByReference != 0 {
		labels = append(labels, "by-ref")
	}
	if f&FlagVariadic != 0 {
		labels = append(labels, "variadic")
	}
	if f&FlagStatic != 0 {
		labels = append(labels, "static")
	}
	if f&FlagPublic != 0 {
		labels = append(labels, "public")
	}
	if f&FlagProtected != 0 {
		labels = append(labels, "protected")
	}
	if f&FlagPrivate != 0 {
		labels = append(labels, "private")
	}
	if f&FlagGlobal != 0 {
		labels = append(labels, "global")
	}
	return labels
}

// extFlags is the second, package-private flag channel.
type extFlags uint8

const (
	extDeprecated extFlags = 1 << iota
	extInternal
)
