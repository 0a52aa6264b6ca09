package main

// record is the element type stored by the handlemap and ordermap
// sessions: an int64 key plus an int64 payload. The pq session instead
// holds bare int64 values — a heap has no notion of a separate key.
type record struct {
	Key   int64
	Value int64
}
