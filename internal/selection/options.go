package selection

// ReverseRangeMode controls how "a-b" with a > b is treated.
type ReverseRangeMode int

const (
	// ReverseAllowed reads "10-7" as the descending range 10,9,8,7.
	ReverseAllowed ReverseRangeMode = iota
	// ReverseRejected reports "10-7" as a SemanticError.
	ReverseRejected
)

func (m ReverseRangeMode) String() string {
	if m == ReverseRejected {
		return "reject"
	}
	return "allow"
}

// InvalidPartMode controls what happens when a comma-part fails.
type InvalidPartMode int

const (
	// FailOnInvalid returns the first failing part's error.
	FailOnInvalid InvalidPartMode = iota
	// SkipInvalid drops failing parts, records them in Result.Skipped and
	// combines the rest without order preservation.
	SkipInvalid
)

func (m InvalidPartMode) String() string {
	if m == SkipInvalid {
		return "skip"
	}
	return "fail"
}

// Options configures an Engine. The zero value is the default behaviour.
type Options struct {
	ReverseRanges ReverseRangeMode
	InvalidParts  InvalidPartMode

	// GroupStart and GroupEnd are expressions whose matching pages start
	// or end a group. Empty disables splitting.
	GroupStart string
	GroupEnd   string

	// GroupFilter keeps only some groups: either 1-based group indexes
	// ("1,3-4") or an expression a group's pages must overlap.
	GroupFilter string
}

// DefaultOptions returns the options used by the package-level Parse.
func DefaultOptions() Options {
	return Options{ReverseRanges: ReverseAllowed, InvalidParts: FailOnInvalid}
}
