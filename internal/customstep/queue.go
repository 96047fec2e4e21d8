package customstep

// Queue is a FIFO of steps consumed by the orchestrator. Steps are taken in
// order; markers stay at the head until the matching phase completes.
type Queue struct {
	steps []Step
}

// NewQueue parses entries into a queue.
func NewQueue(entries []string, markers []string, resolve Resolver) *Queue {
	q := &Queue{}
	for _, entry := range entries {
		if entry == "" {
			continue
		}
		q.steps = append(q.steps, Parse(entry, markers, resolve))
	}
	return q
}

// Len returns the number of entries left.
func (q *Queue) Len() int { return len(q.steps) }

// Pending returns a copy of the entries left.
func (q *Queue) Pending() []Step { return append([]Step(nil), q.steps...) }

// Next pops the head step unless it is a marker.
func (q *Queue) Next() (Step, bool) {
	if len(q.steps) == 0 || q.steps[0].IsMarker() {
		return Step{}, false
	}
	step := q.steps[0]
	q.steps = q.steps[1:]
	return step, true
}

// Consume pops the head if it is the marker for phase.
func (q *Queue) Consume(phase string) bool {
	if len(q.steps) == 0 || !q.steps[0].IsMarker() || q.steps[0].Name != phase {
		return false
	}
	q.steps = q.steps[1:]
	return true
}
