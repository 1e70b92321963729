package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Типовые проблемы, найденные анализом
	RefInfo                   Code = 1000
	RefUndeclaredVariable     Code = 1001
	RefUndeclaredFunction     Code = 1002
	RefUndeclaredProperty     Code = 1003
	RefUndeclaredConstant     Code = 1004
	RefUndeclaredClass        Code = 1005
	RefDeprecatedFunction     Code = 1006
	RefDeprecatedProperty     Code = 1007
	RefDeprecatedConstant     Code = 1008
	RefAccessInternal         Code = 1009
	RefTypeMismatchArgument   Code = 1010
	RefTypeMismatchReturn     Code = 1011
	RefTooFewArguments        Code = 1012
	RefTooManyArguments       Code = 1013
	RefNonVariableByReference Code = 1014

	// by-reference machinery
	RefInternalProxyChain Code = 1900
	RefUnsoundByReference Code = 1901

	IOLoadFileError    Code = 4001
	IOInvalidProgram   Code = 4002
	IOInvalidTypeDecl  Code = 4003
	IOStateCacheFailed Code = 4004

	CfgInfo         Code = 5000
	CfgInvalidValue Code = 5001

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:               "Unknown error",
		RefInfo:                   "Type flow information",
		RefUndeclaredVariable:     "Reference to undeclared variable",
		RefUndeclaredFunction:     "Call to undeclared function",
		RefUndeclaredProperty:     "Reference to undeclared property",
		RefUndeclaredConstant:     "Reference to undeclared constant",
		RefUndeclaredClass:        "Reference to undeclared class",
		RefDeprecatedFunction:     "Call to deprecated function",
		RefDeprecatedProperty:     "Reference to deprecated property",
		RefDeprecatedConstant:     "Reference to deprecated constant",
		RefAccessInternal:         "Access to internal element from another namespace",
		RefTypeMismatchArgument:   "Argument type does not match parameter",
		RefTypeMismatchReturn:     "Returned type does not match declaration",
		RefTooFewArguments:        "Too few arguments",
		RefTooManyArguments:       "Too many arguments",
		RefNonVariableByReference: "Non-variable passed by reference",
		RefInternalProxyChain:     "Unresolvable by-reference chain",
		RefUnsoundByReference:     "By-reference types did not converge",
		IOLoadFileError:           "I/O load file error",
		IOInvalidProgram:          "Invalid program description",
		IOInvalidTypeDecl:         "Invalid type declaration",
		IOStateCacheFailed:        "Stored state unusable",
		CfgInfo:                   "Configuration information",
		CfgInvalidValue:           "Invalid configuration value",
		ObsInfo:                   "Observability information",
		ObsTimings:                "Pipeline timings",
	}

	codeName = map[Code]string{
		RefUndeclaredVariable:     "UndeclaredVariable",
		RefUndeclaredFunction:     "UndeclaredFunction",
		RefUndeclaredProperty:     "UndeclaredProperty",
		RefUndeclaredConstant:     "UndeclaredConstant",
		RefUndeclaredClass:        "UndeclaredClass",
		RefDeprecatedFunction:     "DeprecatedFunction",
		RefDeprecatedProperty:     "DeprecatedProperty",
		RefDeprecatedConstant:     "DeprecatedConstant",
		RefAccessInternal:         "AccessInternal",
		RefTypeMismatchArgument:   "TypeMismatchArgument",
		RefTypeMismatchReturn:     "TypeMismatchReturn",
		RefTooFewArguments:        "ParamTooFew",
		RefTooManyArguments:       "ParamTooMany",
		RefNonVariableByReference: "TypeNonVarPassByRef",
		RefInternalProxyChain:     "InternalProxyChain",
		RefUnsoundByReference:     "UnsoundByReference",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("REF%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

// Name returns the issue-type name used by suppress_issue_types.
func (c Code) Name() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return c.ID()
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// LookupCode finds a code by ID ("REF1001") or issue-type name, case-insensitively.
func LookupCode(s string) (Code, bool) {
	for c := range codeDescription {
		if strings.EqualFold(c.ID(), s) || strings.EqualFold(c.Name(), s) {
			return c, true
		}
	}
	return UnknownCode, false
}
