package stream

import "testing"

func TestQueueFIFOAndDedup(t *testing.T) {
	q := NewQueue[int]()
	for _, v := range []int{3, 1, 3, 2, 1} {
		q.Push(v)
	}
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}

	var got []int
	q.Drain(func(v int) { got = append(got, v) })
	want := []int{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drained %v, want %v", got, want)
		}
	}

	if !q.Push(3) {
		t.Fatal("value should be pushable again after pop")
	}
}

func TestQueueFilter(t *testing.T) {
	q := NewQueue[int]()
	for v := range 6 {
		q.Push(v)
	}
	if dropped := q.Filter(func(v int) bool { return v%2 == 0 }); dropped != 3 {
		t.Fatalf("dropped %d, want 3", dropped)
	}
	if q.Contains(1) || !q.Contains(4) {
		t.Fatal("Filter left wrong members")
	}
	v, _ := q.Pop()
	if v != 0 {
		t.Fatalf("Pop = %d, want 0", v)
	}
	if !q.Push(1) {
		t.Fatal("filtered value should be pushable again")
	}
}

func TestQueueDrainSeesPushes(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	n := 0
	q.Drain(func(v int) {
		n++
		if v < 3 {
			q.Push(v + 1)
		}
	})
	if n != 3 {
		t.Fatalf("drained %d values, want 3", n)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("queue not empty after Drain")
	}
}
