// Package configcache persists resolved location configs with a 24 hour
// TTL.
//
// Each cached location owns two key-value records: the serialized
// LocationConfig and its CacheMetadata. A hit requires both records; a
// missing or undecodable record, a location mismatch or an expired TTL all
// surface as ErrCacheMiss so the resolver falls through to a remote fetch.
//
// The cache is never a source of truth. Every write may fail without
// affecting correctness; the cost of a lost cache is one extra fetch.
package configcache
