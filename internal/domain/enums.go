package domain

// Tier is the hierarchy level an item is classified into for one
// reconciliation pass. It is derived from parent pointers and never stored.
type Tier string

const (
	TierMain     Tier = "MAIN"
	TierChild    Tier = "CHILD"
	TierSub      Tier = "SUB"
	TierExcluded Tier = "EXCLUDED"
)

// PeriodTag names a sub-interval of the fiscal year.
type PeriodTag string

const (
	PeriodYearly PeriodTag = "YEARLY"
	PeriodQ1     PeriodTag = "Q1"
	PeriodQ2     PeriodTag = "Q2"
	PeriodQ3     PeriodTag = "Q3"
	PeriodQ4     PeriodTag = "Q4"
	PeriodHalf   PeriodTag = "HALF"
	PeriodThreeQ PeriodTag = "THREE_Q"
)

// PeriodTags lists every recognized tag in presentation order.
var PeriodTags = []PeriodTag{
	PeriodYearly, PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4, PeriodHalf, PeriodThreeQ,
}

// Quarters lists the four fiscal quarter tags.
var Quarters = []PeriodTag{PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4}

// IsQuarter reports whether the tag is one of Q1..Q4.
func (p PeriodTag) IsQuarter() bool {
	switch p {
	case PeriodQ1, PeriodQ2, PeriodQ3, PeriodQ4:
		return true
	}
	return false
}

// ProgressState buckets an item by its overall done ratio.
type ProgressState string

const (
	StateNotStarted ProgressState = "not_started"
	StateInProgress ProgressState = "in_progress"
	StateDone       ProgressState = "done"
)
