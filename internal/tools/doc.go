// Package tools launches client programs with the user's credentials.
//
// Tool definitions live in the embedded tools.yaml. Their command_args and env
// values are text/template templates with sprig functions, rendered with host,
// port, user, password and database. The package also maintains PostgreSQL
// password files and AWS CLI profiles, and points dbt profiles at the
// credentials before running dbt.
package tools
