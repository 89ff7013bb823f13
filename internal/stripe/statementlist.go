package stripe

import "container/list"

// StatementIt is a stable handle to a position in a StatementList. It
// survives insertions and removals of other elements, which the scheduler
// relies on: it walks a block's body in reverse while splicing transfer
// statements in ahead of the iterator without disturbing it.
type StatementIt = *list.Element

// StatementList is a block's body: a doubly-linked sequence of statements
// that supports O(1) insertion at an iterator and iterators that remain
// valid across splices elsewhere in the list. container/list gives us both
// for free; a slice does not, since inserting into a slice invalidates every
// index past the insertion point.
type StatementList struct {
	l *list.List
}

// NewStatementList returns an empty statement list.
func NewStatementList() *StatementList {
	return &StatementList{l: list.New()}
}

// Len reports the number of statements in the list.
func (sl *StatementList) Len() int {
	return sl.l.Len()
}

// PushBack appends stmt to the end of the list and returns its iterator.
func (sl *StatementList) PushBack(stmt *Statement) StatementIt {
	return sl.l.PushBack(stmt)
}

// Front returns the iterator to the first statement, or nil if the list is
// empty.
func (sl *StatementList) Front() StatementIt {
	return sl.l.Front()
}

// Back returns the iterator to the last statement, or nil if the list is
// empty.
func (sl *StatementList) Back() StatementIt {
	return sl.l.Back()
}

// Next returns the iterator following it, or nil at the end of the list.
func Next(it StatementIt) StatementIt {
	return it.Next()
}

// Prev returns the iterator preceding it, or nil at the start of the list.
func Prev(it StatementIt) StatementIt {
	return it.Prev()
}

// StatementAt dereferences it to the statement it points to.
func StatementAt(it StatementIt) *Statement {
	return it.Value.(*Statement)
}

// InsertBefore splices stmt into the list immediately before mark and
// returns its iterator. mark itself is unaffected, so a reverse walk that
// took mark's predecessor before the insertion continues from there and
// does not visit stmt.
func (sl *StatementList) InsertBefore(stmt *Statement, mark StatementIt) StatementIt {
	return sl.l.InsertBefore(stmt, mark)
}

// InsertBeforeOrAppend behaves like InsertBefore, except a nil mark appends
// stmt to the end of the list instead of panicking. Transfer insertion
// passes the position "just after" some statement as a mark, which is nil
// whenever that statement is currently last in the list.
func (sl *StatementList) InsertBeforeOrAppend(stmt *Statement, mark StatementIt) StatementIt {
	if mark == nil {
		return sl.PushBack(stmt)
	}
	return sl.InsertBefore(stmt, mark)
}

// InsertAfter splices stmt into the list immediately after mark and returns
// its iterator.
func (sl *StatementList) InsertAfter(stmt *Statement, mark StatementIt) StatementIt {
	return sl.l.InsertAfter(stmt, mark)
}

// Remove deletes the statement at it from the list.
func (sl *StatementList) Remove(it StatementIt) {
	sl.l.Remove(it)
}

// Each calls fn for every statement in forward (program) order.
func (sl *StatementList) Each(fn func(StatementIt)) {
	for it := sl.l.Front(); it != nil; it = it.Next() {
		fn(it)
	}
}

// EachReverse calls fn for every statement in reverse program order. fn
// may insert statements before the current iterator without corrupting the
// walk.
func (sl *StatementList) EachReverse(fn func(StatementIt)) {
	for it := sl.l.Back(); it != nil; {
		prev := it.Prev()
		fn(it)
		it = prev
	}
}
