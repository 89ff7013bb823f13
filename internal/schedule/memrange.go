package schedule

import "container/list"

// memRange is a half-open byte range [Begin, End) within the cache.
type memRange struct {
	Begin uint64
	End   uint64
}

func (r memRange) size() uint64 {
	return r.End - r.Begin
}

func rangesOverlap(a, b memRange) bool {
	return a.Begin < b.End && b.Begin < a.End
}

func rangeOverlapsAny(r memRange, ranges *list.List) bool {
	for e := ranges.Front(); e != nil; e = e.Next() {
		if rangesOverlap(r, e.Value.(memRange)) {
			return true
		}
	}
	return false
}

// subtractRangeAt removes sub from the range stored at e, splitting or
// erasing e as needed. e must belong to ranges.
func subtractRangeAt(sub memRange, ranges *list.List, e *list.Element) {
	r := e.Value.(memRange)

	switch {
	case sub.Begin <= r.Begin:
		if sub.End < r.End {
			r.Begin = sub.End
			e.Value = r
		} else {
			ranges.Remove(e)
		}
	case r.End <= sub.End:
		r.End = sub.Begin
		e.Value = r
	default:
		ranges.InsertBefore(memRange{r.Begin, sub.Begin}, e)
		r.Begin = sub.End
		e.Value = r
	}
}

// subtractRange removes sub from every range in ranges that it overlaps.
func subtractRange(sub memRange, ranges *list.List) {
	for e := ranges.Front(); e != nil; {
		next := e.Next()
		if rangesOverlap(sub, e.Value.(memRange)) {
			subtractRangeAt(sub, ranges, e)
		}
		e = next
	}
}
