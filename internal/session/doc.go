// Package session coordinates the credential and inventory caches with the
// server.
//
// Resolve reads both caches and only goes to the network for what is missing,
// expiring soon or owned by another account. Whatever needs refreshing shares
// a single bearer token. Credentials are written before the inventory is
// fetched, so a failure in the second step leaves fresh credentials behind.
package session
