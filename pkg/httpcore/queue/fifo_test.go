package queue

import "testing"

func TestByteFIFOEnqueueDequeueRoundTrip(t *testing.T) {
	q := NewByteFIFO(16, 0)
	defer q.Release()

	n := q.Enqueue([]byte("hello"))
	if n != 5 {
		t.Fatalf("Enqueue returned %d, want 5", n)
	}
	if q.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", q.Len())
	}

	out := make([]byte, 5)
	n = q.Dequeue(out)
	if n != 5 || string(out) != "hello" {
		t.Fatalf("Dequeue = %d,%q want 5,hello", n, out)
	}
	if q.Len() != 0 {
		t.Fatalf("Len() after drain = %d, want 0", q.Len())
	}
}

func TestByteFIFOEnqueueShortWhenFull(t *testing.T) {
	q := NewByteFIFO(4, 0)
	defer q.Release()

	n := q.Enqueue([]byte("abcdef"))
	if n != 4 {
		t.Fatalf("Enqueue returned %d, want 4 (short write)", n)
	}
	if q.Free() != 0 {
		t.Fatalf("Free() = %d, want 0", q.Free())
	}
}

func TestByteFIFOWrapAround(t *testing.T) {
	q := NewByteFIFO(4, 0)
	defer q.Release()

	q.Enqueue([]byte("ab"))
	out := make([]byte, 2)
	q.Dequeue(out)

	n := q.Enqueue([]byte("cdef"))
	if n != 4 {
		t.Fatalf("Enqueue after wrap = %d, want 4", n)
	}

	got := make([]byte, 4)
	n = q.Dequeue(got)
	if n != 4 || string(got) != "cdef" {
		t.Fatalf("Dequeue after wrap = %d,%q want 4,cdef", n, got)
	}
}

func TestByteFIFOPeekDoesNotConsume(t *testing.T) {
	q := NewByteFIFO(16, 0)
	defer q.Release()

	q.Enqueue([]byte("peekme"))
	first := q.Peek()
	if string(first) != "peekme" {
		t.Fatalf("Peek() = %q, want peekme", first)
	}
	second := q.Peek()
	if string(second) != "peekme" {
		t.Fatalf("second Peek() = %q, want peekme (unchanged)", second)
	}
	if q.Len() != 6 {
		t.Fatalf("Len() after Peek = %d, want 6 (unconsumed)", q.Len())
	}
}

func TestByteFIFODrop(t *testing.T) {
	q := NewByteFIFO(16, 0)
	defer q.Release()

	q.Enqueue([]byte("discard-me-keep"))
	q.Drop(11)
	if q.Len() != 4 {
		t.Fatalf("Len() after Drop = %d, want 4", q.Len())
	}
	out := make([]byte, 4)
	q.Dequeue(out)
	if string(out) != "keep" {
		t.Fatalf("remaining bytes = %q, want keep", out)
	}
}

func TestByteFIFODropClampsToSize(t *testing.T) {
	q := NewByteFIFO(16, 0)
	defer q.Release()

	q.Enqueue([]byte("ab"))
	q.Drop(100)
	if q.Len() != 0 {
		t.Fatalf("Len() after over-Drop = %d, want 0", q.Len())
	}
}

func TestByteFIFONotifyOnDrainFiresAtLowWater(t *testing.T) {
	q := NewByteFIFO(16, 2)
	defer q.Release()

	q.Enqueue([]byte("123456"))
	fired := false
	q.NotifyOnDrain(func() { fired = true })

	out := make([]byte, 3)
	q.Dequeue(out)
	if fired {
		t.Fatalf("drain callback fired early, occupancy %d > lowWater 2", q.Len())
	}

	q.Dequeue(out[:2])
	if !fired {
		t.Fatalf("drain callback did not fire once occupancy %d <= lowWater 2", q.Len())
	}
}

func TestByteFIFONotifyOnDrainIsOneShot(t *testing.T) {
	q := NewByteFIFO(16, 10)
	defer q.Release()

	calls := 0
	q.NotifyOnDrain(func() { calls++ })

	q.Enqueue([]byte("a"))
	out := make([]byte, 1)
	q.Dequeue(out)
	q.Enqueue([]byte("b"))
	q.Dequeue(out)

	if calls != 1 {
		t.Fatalf("drain callback fired %d times, want 1 (one-shot)", calls)
	}
}

func TestByteFIFOCancelNotify(t *testing.T) {
	q := NewByteFIFO(16, 10)
	defer q.Release()

	fired := false
	q.NotifyOnDrain(func() { fired = true })
	q.CancelNotify()

	q.Enqueue([]byte("a"))
	out := make([]byte, 1)
	q.Dequeue(out)

	if fired {
		t.Fatalf("cancelled drain callback fired anyway")
	}
}
