// Package quiz models the observable phases of a timed quiz page and verifies
// that a live page moves through them in order.
//
// A run looks like this for every question q of n:
//
//	Question(q) -> Explanation(q) -> Transition(q)   for q < n
//	Question(n) -> Explanation(n) -> Results(n)
//
// Each phase is a predicate over a Snapshot of the page. The Waiter polls a
// SnapshotReader until the predicate for a Target holds or the phase budget
// runs out, and the Runner walks a Session through the whole sequence,
// producing a ScenarioReport. A failed step is recorded and the run moves on
// to the next step with a fresh budget.
package quiz
