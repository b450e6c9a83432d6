// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transfer copies byte streams with optional compression of the
// destination and a BLAKE3 digest of the source content.
//
// [Copy] is deliberately plain: it reads and writes through whatever
// io.Reader and io.Writer it is given, so metered streams see every
// chunk. The digest is computed over uncompressed bytes and matches
// b3sum output for the same content.
package transfer
