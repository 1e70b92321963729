package source

type (
	// FileID uniquely identifies an input file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about an input file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single input file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Hash    [32]byte
	Flags   FileFlags
}

// Pos is a line-granular location inside a file.
// Line is 1-based; zero means "whole file".
type Pos struct {
	File FileID
	Line uint32
}

// IsZero reports whether the position carries no line information.
func (p Pos) IsZero() bool { return p.Line == 0 }
