package memutils

// Validatable is used by the DebugValidate method to allow it to act upon
// all types with a Validate method. Heap strategies implement it to walk their
// free lists and report broken invariants.
type Validatable interface {
	Validate() error
}
