package detector

import "flowscreen/internal/ledger"

// DefaultBatchSize is the number of time buckets processed per batch.
const DefaultBatchSize = 50

// Batch is a run of consecutive time buckets processed together.
type Batch struct {
	Index   int
	Buckets []ledger.Bucket
}

// Records counts the records across the batch.
func (b Batch) Records() int {
	n := 0
	for _, bucket := range b.Buckets {
		n += len(bucket.Records)
	}
	return n
}

// Batcher partitions time-ordered buckets into batches of bounded size.
// Buckets are never split.
type Batcher struct {
	size int
}

// NewBatcher builds a batcher; sizes below one are clamped to one.
func NewBatcher(size int) *Batcher {
	if size < 1 {
		size = 1
	}
	return &Batcher{size: size}
}

// Size returns the maximum number of buckets per batch.
func (b *Batcher) Size() int {
	return b.size
}

// Each pulls buckets from src and hands consecutive batches to fn in
// timestamp order, stopping at the first error. At most one batch of
// buckets is held at a time; the next is gathered only after fn returns.
func (b *Batcher) Each(src ledger.BucketSource, fn func(Batch) error) error {
	index := 0
	pending := make([]ledger.Bucket, 0, min(b.size, 64))
	flush := func() error {
		batch := Batch{Index: index, Buckets: pending}
		index++
		pending = make([]ledger.Bucket, 0, min(b.size, 64))
		return fn(batch)
	}

	if err := src.EachBucket(func(bucket ledger.Bucket) error {
		pending = append(pending, bucket)
		if len(pending) == b.size {
			return flush()
		}
		return nil
	}); err != nil {
		return err
	}
	if len(pending) > 0 {
		return flush()
	}
	return nil
}

// Split returns every batch at once.
func (b *Batcher) Split(src ledger.BucketSource) []Batch {
	batches := make([]Batch, 0)
	_ = b.Each(src, func(batch Batch) error {
		batches = append(batches, batch)
		return nil
	})
	return batches
}
