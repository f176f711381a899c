// Package lock provides a Redis backed ResourceLocker.
//
// A lock is a key holding a random token, set with NX and a TTL. Unlock deletes the key only when it
// still holds the caller's token, so a lock that expired and was taken by another process stays intact.
package lock
