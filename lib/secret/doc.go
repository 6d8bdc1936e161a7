// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data,
// primarily the passwords that Upkeep login and registration send to
// the platform API.
//
// [Buffer] allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped. Because the memory lives
// outside the Go heap, the garbage collector cannot copy or relocate
// it, guaranteeing secret material does not persist after release.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [NewFromString] -- heap-string convenience for tests and prompts
//
// Access via [Buffer.Bytes] (slice into the mmap region) or
// [Buffer.String] (heap copy for API boundaries). [Buffer.Equal] uses
// constant-time comparison, which the register flow uses to check the
// password confirmation. After Close, any access panics. Close is
// idempotent.
//
// [ReadFromPath] and [Prompt] load secrets from files, stdin, or an
// interactive terminal without leaving stray heap copies behind.
//
// Depends on golang.org/x/sys/unix and golang.org/x/term. No
// Upkeep-internal dependencies.
package secret
