package schedule

import "github.com/sarchlab/stripesched/internal/stripe"

// rebuildTransitiveDeps removes dependency edges made redundant by longer
// chains added during scheduling: for each statement in runtime order, its
// deps are replaced by the direct deps not already reachable transitively
// through another direct dep.
func rebuildTransitiveDeps(block *stripe.Block) {
	transitive := make(map[*stripe.Statement]map[*stripe.Statement]bool)

	block.Body.Each(func(it stripe.StatementIt) {
		stmt := stripe.StatementAt(it)

		direct := make(map[*stripe.Statement]bool, len(stmt.Deps))
		reachable := make(map[*stripe.Statement]bool)
		for _, dep := range stmt.Deps {
			direct[dep] = true
			for t := range transitive[dep] {
				reachable[t] = true
			}
		}

		kept := stmt.Deps[:0]
		for _, dep := range stmt.Deps {
			if !reachable[dep] {
				kept = append(kept, dep)
			}
		}
		stmt.Deps = kept

		for dep := range direct {
			reachable[dep] = true
		}
		transitive[stmt] = reachable
	})
}
