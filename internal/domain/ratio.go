package domain

// ClampRatio bounds a done ratio to the 0..100 range the tracker allows.
func ClampRatio(v int) int {
	return min(max(v, 0), 100)
}

// StateOf buckets a done ratio: 0 is not started, 100 is done.
func StateOf(ratio int) ProgressState {
	switch r := ClampRatio(ratio); {
	case r == 0:
		return StateNotStarted
	case r == 100:
		return StateDone
	default:
		return StateInProgress
	}
}
