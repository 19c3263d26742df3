package storage

import (
	"context"
	"sync"
)

// LazyBucket provisions the bucket on first use. A successful Ensure is
// remembered for the life of the process; a failed one is retried on the
// next call.
type LazyBucket struct {
	provisioner BucketProvisioner
	spec        BucketSpec

	mu    sync.Mutex
	ready bool
}

// NewLazyBucket returns a LazyBucket. A nil provisioner makes Ensure a no-op.
func NewLazyBucket(provisioner BucketProvisioner, spec BucketSpec) *LazyBucket {
	return &LazyBucket{provisioner: provisioner, spec: spec}
}

// Ensure creates the bucket if this process has not confirmed it yet.
func (b *LazyBucket) Ensure(ctx context.Context) error {
	if b == nil || b.provisioner == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return nil
	}
	if err := b.provisioner.EnsureBucket(ctx, b.spec); err != nil {
		return err
	}
	b.ready = true
	return nil
}

// Spec returns the bucket specification.
func (b *LazyBucket) Spec() BucketSpec {
	return b.spec
}
