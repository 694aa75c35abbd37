// Package state provides the settings storage used by the environment
// service: which account is signed in, the environment each account was
// created against, and the environment remembered before sign-in.
//
// Three backends implement Store:
//   - MemoryStore keeps everything in process memory
//   - FileStore keeps a YAML document on disk
//   - RedisStore keeps JSON values under a key prefix in Redis
package state
