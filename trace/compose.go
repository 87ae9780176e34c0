package trace

func composeStartDone[S, D any](a, b func(S) func(D)) func(S) func(D) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}

	return func(s S) func(D) {
		onDoneA, onDoneB := a(s), b(s)

		return func(d D) {
			if onDoneA != nil {
				onDoneA(d)
			}
			if onDoneB != nil {
				onDoneB(d)
			}
		}
	}
}

func composeEvent[I any](a, b func(I)) func(I) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}

	return func(info I) {
		a(info)
		b(info)
	}
}
