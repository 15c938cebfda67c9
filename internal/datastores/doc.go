// Package datastores models the datastore inventory of an account and the
// host derivation rules used to connect to each datastore.
package datastores
