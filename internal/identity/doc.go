// Package identity implements spec §3's Identity/RemoteIdentity/PreKeyBundle
// records and §4.3's one-time pre-key lifecycle: generation, bundle
// assembly, and exactly-once consumption. It is the adapted descendant of
// ciphera's internal/crypto/identity.go and internal/services/{identity,
// prekey}, consolidated into one owner of the long-term key material
// instead of three cooperating layers.
package identity
