package notify

import (
	"testing"

	"cloud.google.com/go/firestore"
	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
)

func TestCountOf(t *testing.T) {
	agg := firestore.AggregationResult{
		"n": &pb.Value{ValueType: &pb.Value_IntegerValue{IntegerValue: 4}},
	}
	if got := countOf(agg, "n"); got != 4 {
		t.Fatalf("count = %d, want 4", got)
	}
	if got := countOf(agg, "missing"); got != 0 {
		t.Fatalf("missing alias = %d", got)
	}
	if got := countOf(firestore.AggregationResult{"n": "4"}, "n"); got != 0 {
		t.Fatalf("malformed value = %d", got)
	}
}
