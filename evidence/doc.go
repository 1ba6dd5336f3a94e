// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package evidence is the upload boundary for photo evidence files.
// Uploads run asynchronously and report back through the answer store's
// per-reference status; sector finalization waits for every reference
// to resolve or definitively fail. DiskUploader is the local blob-store
// implementation.
package evidence
