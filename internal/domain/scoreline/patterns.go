package scoreline

// StraightSets reports a complete match the winner took without dropping a set.
func (sl Scoreline) StraightSets(bestOf int) bool {
	if !sl.Complete() || bestOf < 1 {
		return false
	}
	w, l := sl.SetCounts()
	return w == setsToWin(bestOf) && l == 0
}

// ComebackFromTwoSetsDown reports a complete best-of-five match the winner
// took after losing the first two sets.
func (sl Scoreline) ComebackFromTwoSetsDown() bool {
	trailerWon, ok := sl.TwoSetsDown(5)
	return ok && trailerWon
}

// TwoSetsDown reports whether one player lost both of the first two sets of a
// complete best-of-five match, and if so whether that player went on to win.
func (sl Scoreline) TwoSetsDown(bestOf int) (trailerWon, ok bool) {
	if !sl.Complete() || bestOf != 5 || len(sl.Sets) < 3 {
		return false, false
	}
	first, second := sl.Sets[0].WonByWinner(), sl.Sets[1].WonByWinner()
	if first != second {
		return false, false
	}
	// The winner trailed when they lost both opening sets.
	return !first, true
}

// SplitFirstTwo reports a complete match whose first two sets went one each.
func (sl Scoreline) SplitFirstTwo() bool {
	if !sl.Complete() || len(sl.Sets) < 3 {
		return false
	}
	return sl.Sets[0].WonByWinner() != sl.Sets[1].WonByWinner()
}

// DownOneSetAll reports a complete best-of-five match that stood one set all
// and in which one player lost the third set, and whether that player went
// on to win.
func (sl Scoreline) DownOneSetAll(bestOf int) (trailerWon, ok bool) {
	if bestOf != 5 || !sl.SplitFirstTwo() || len(sl.Sets) < 4 {
		return false, false
	}
	// Whoever lost set three trailed 1-2; it was the winner if they lost it.
	return !sl.Sets[2].WonByWinner(), true
}

// Deciding reports a complete match that went the full distance.
func (sl Scoreline) Deciding(bestOf int) bool {
	return sl.Complete() && bestOf > 1 && len(sl.Sets) == bestOf
}

// TieBreaks returns, for every tie-break set of a complete match, whether the
// match winner won it.
func (sl Scoreline) TieBreaks() []bool {
	if !sl.Complete() {
		return nil
	}
	var out []bool
	for _, s := range sl.Sets {
		if s.TieBreak && s.Finished() {
			out = append(out, s.WonByWinner())
		}
	}
	return out
}
