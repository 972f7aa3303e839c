package api

import (
	"slices"
	"testing"
)

func TestSequenceDrainsInOrder(t *testing.T) {
	seq := sequence([]string{"a", "b", "c"})

	var got []string
	for v := range seq {
		got = append(got, v)
	}
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("drained %v, want [a b c]", got)
	}
}

func TestSequenceResumesAfterBreak(t *testing.T) {
	seq := sequence([]int{1, 2, 3, 4})

	var first []int
	for v := range seq {
		first = append(first, v)
		if len(first) == 2 {
			break
		}
	}
	if !slices.Equal(first, []int{1, 2}) {
		t.Fatalf("first pass yielded %v, want [1 2]", first)
	}

	// A second range picks up after the last delivered element.
	var rest []int
	for v := range seq {
		rest = append(rest, v)
	}
	if !slices.Equal(rest, []int{3, 4}) {
		t.Errorf("second pass yielded %v, want [3 4]", rest)
	}

	for v := range seq {
		t.Errorf("drained sequence yielded %d", v)
	}
}

func TestSequenceEmpty(t *testing.T) {
	seq := sequence([]int(nil))
	for v := range seq {
		t.Errorf("empty sequence yielded %d", v)
	}
}
