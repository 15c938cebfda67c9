// Package cli holds the pieces shared by the satori commands: login flag
// registration and resolution, output formatting for credentials and
// datastores, and user-facing error descriptions.
//
// # Output formats
//
// Credentials print as csv (username,password,expires_at), json or yaml.
// Datastore listings print as a plain kubectl-style table or a rounded
// go-pretty table.
//
// # Errors
//
// Describe turns transport and authorization failures into a message with a
// hint the user can act on, such as retrying with --invalid-cert for TLS
// errors against self-signed deployments.
package cli
