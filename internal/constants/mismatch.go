package constants

// MismatchPolicy decides what happens when stacked channels disagree on
// the number of time steps.
type MismatchPolicy string

const (
	// MismatchError fails the analysis with a shape error.
	MismatchError MismatchPolicy = "error"

	// MismatchTruncate keeps the leading steps common to every channel.
	MismatchTruncate MismatchPolicy = "truncate"
)

// Valid returns true if the policy is a recognized value.
func (p MismatchPolicy) Valid() bool {
	switch p {
	case MismatchError, MismatchTruncate:
		return true
	}
	return false
}

// String returns the string representation of the policy.
func (p MismatchPolicy) String() string {
	return string(p)
}
