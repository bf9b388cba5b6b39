package pagecache

import "swapcore/internal/config"

// bucketIndex mirrors original_source/cache.c's hash_func: a page's bucket
// is its page number modulo HASH_SIZE.
func bucketIndex(offset uint64) int {
	return int((offset / config.PageSize) % config.HashSize)
}

// groupOf maps a bucket index to the shard lock guarding it (spec §3:
// "bucket h is guarded by shard_locks[h mod MUTEX_GROUPS]").
func groupOf(bucket int) int {
	return bucket % config.MutexGroups
}

// findInBucket walks the collision chain at buckets[bucket] looking for
// offset. Caller must hold shard_locks[groupOf(bucket)].
func findInBucket(buckets []*page, bucket int, offset uint64) *page {
	for p := buckets[bucket]; p != nil; p = p.bucketNext {
		if p.offset == offset {
			return p
		}
	}
	return nil
}

// insertInBucket pushes p onto the head of its chain. Caller must hold
// shard_locks[groupOf(bucket)].
func insertInBucket(buckets []*page, bucket int, p *page) {
	p.bucketNext = buckets[bucket]
	buckets[bucket] = p
}

// removeFromBucket unlinks p from its chain if present, reporting whether it
// was found. Caller must hold shard_locks[groupOf(bucket)].
func removeFromBucket(buckets []*page, bucket int, p *page) bool {
	cur := buckets[bucket]
	if cur == p {
		buckets[bucket] = p.bucketNext
		p.bucketNext = nil
		return true
	}
	for cur != nil {
		if cur.bucketNext == p {
			cur.bucketNext = p.bucketNext
			p.bucketNext = nil
			return true
		}
		cur = cur.bucketNext
	}
	return false
}
