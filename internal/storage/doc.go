// Package storage provides the durable BBolt database for walletvault.
//
// Database structure uses three buckets:
//   - config: format version, vault ID, timestamps (unencrypted)
//   - salts: one KDF salt per derivation purpose (unencrypted — salts are
//     not confidential, only required to be unpredictable and unique)
//   - blobs: encrypted envelope records keyed by name
//
// Salts are created lazily on first use. Creation goes through a
// read-after-write cycle so two concurrent writers converge on one value
// instead of leaving different effective salts in play.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
