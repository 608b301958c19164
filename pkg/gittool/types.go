package gittool

// DiffMode values represent the kind of things a Change can represent:
// creations, modifications, deletions or renaming of files.
type DiffMode int

// The set of possible diff mode in a change.
const (
	_ DiffMode = iota
	NewMode
	ModifyMode
	DeleteMode
	RenameMode
)

// Change is a file changed in the HEAD commit compared to another branch.
type Change struct {
	// FileName is the slash separated path relative to the repository root.
	// For deleted files it is the old path.
	FileName string
	// Mode indicates what kind of the change, whether it's a new created file,
	// or a modified file, or deleted file, or renamed file.
	Mode DiffMode
}
