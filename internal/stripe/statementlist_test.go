package stripe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarchlab/stripesched/internal/stripe"
)

func namesOf(sl *stripe.StatementList) []string {
	var names []string
	sl.Each(func(it stripe.StatementIt) {
		names = append(names, stripe.StatementAt(it).Name)
	})
	return names
}

func TestStatementListEachIsProgramOrder(t *testing.T) {
	sl := stripe.NewStatementList()
	sl.PushBack(&stripe.Statement{Name: "a"})
	sl.PushBack(&stripe.Statement{Name: "b"})
	sl.PushBack(&stripe.Statement{Name: "c"})

	assert.Equal(t, []string{"a", "b", "c"}, namesOf(sl))
}

func TestStatementListEachReverseIsReverseProgramOrder(t *testing.T) {
	sl := stripe.NewStatementList()
	sl.PushBack(&stripe.Statement{Name: "a"})
	sl.PushBack(&stripe.Statement{Name: "b"})
	sl.PushBack(&stripe.Statement{Name: "c"})

	var seen []string
	sl.EachReverse(func(it stripe.StatementIt) {
		seen = append(seen, stripe.StatementAt(it).Name)
	})
	assert.Equal(t, []string{"c", "b", "a"}, seen)
}

func TestStatementListEachReverseSurvivesInsertBeforeCurrent(t *testing.T) {
	sl := stripe.NewStatementList()
	sl.PushBack(&stripe.Statement{Name: "a"})
	sl.PushBack(&stripe.Statement{Name: "b"})

	var seen []string
	sl.EachReverse(func(it stripe.StatementIt) {
		stmt := stripe.StatementAt(it)
		seen = append(seen, stmt.Name)
		if stmt.Name == "b" {
			sl.InsertBefore(&stripe.Statement{Name: "inserted"}, it)
		}
	})

	assert.Equal(t, []string{"b", "a"}, seen)
	assert.Equal(t, []string{"a", "inserted", "b"}, namesOf(sl))
}

func TestInsertBeforeOrAppendWithNilMarkAppends(t *testing.T) {
	sl := stripe.NewStatementList()
	sl.PushBack(&stripe.Statement{Name: "a"})

	sl.InsertBeforeOrAppend(&stripe.Statement{Name: "b"}, nil)

	assert.Equal(t, []string{"a", "b"}, namesOf(sl))
}

func TestInsertBeforeOrAppendWithMarkInsertsBefore(t *testing.T) {
	sl := stripe.NewStatementList()
	tail := sl.PushBack(&stripe.Statement{Name: "tail"})

	sl.InsertBeforeOrAppend(&stripe.Statement{Name: "middle"}, tail)

	assert.Equal(t, []string{"middle", "tail"}, namesOf(sl))
}

func TestRemove(t *testing.T) {
	sl := stripe.NewStatementList()
	sl.PushBack(&stripe.Statement{Name: "a"})
	mid := sl.PushBack(&stripe.Statement{Name: "b"})
	sl.PushBack(&stripe.Statement{Name: "c"})

	sl.Remove(mid)

	assert.Equal(t, []string{"a", "c"}, namesOf(sl))
	assert.Equal(t, 2, sl.Len())
}
