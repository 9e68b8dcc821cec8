package coordinator

// queue is the FIFO of item ids awaiting admission.
//
// An id is held at most once. Ids whose item is no longer queued are not
// removed eagerly; admitNext skips them when popped.
type queue struct {
	ids    []string
	head   int
	member map[string]struct{}
}

func newQueue() *queue {
	return &queue{member: make(map[string]struct{})}
}

// pushBack appends id unless already present.
func (q *queue) pushBack(id string) bool {
	if _, ok := q.member[id]; ok {
		return false
	}
	q.member[id] = struct{}{}
	q.ids = append(q.ids, id)
	return true
}

// pushFront places id at the head, moving it there if already present.
func (q *queue) pushFront(id string) {
	if _, ok := q.member[id]; ok {
		q.remove(id)
	}
	q.member[id] = struct{}{}
	if q.head > 0 {
		q.head--
		q.ids[q.head] = id
		return
	}
	q.ids = append([]string{id}, q.ids...)
}

// popFront removes and returns the head id.
func (q *queue) popFront() (string, bool) {
	if q.head >= len(q.ids) {
		return "", false
	}
	id := q.ids[q.head]
	q.ids[q.head] = ""
	q.head++
	delete(q.member, id)

	// Reclaim consumed prefix
	if q.head > 64 && q.head*2 >= len(q.ids) {
		q.ids = append([]string(nil), q.ids[q.head:]...)
		q.head = 0
	}
	return id, true
}

func (q *queue) remove(id string) {
	for i := q.head; i < len(q.ids); i++ {
		if q.ids[i] == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			break
		}
	}
	delete(q.member, id)
}

func (q *queue) len() int {
	return len(q.ids) - q.head
}

// snapshot returns the ids in order.
func (q *queue) snapshot() []string {
	return append([]string(nil), q.ids[q.head:]...)
}
