package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"satori/internal/cache"
	"satori/internal/datastores"
	"satori/pkg/logging"
)

// Executor runs an external command.
type Executor interface {
	Execute(ctx context.Context, command string, args []string, env []string) error
}

// CommandExecutor runs commands as child processes attached to the given streams.
type CommandExecutor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandExecutor returns an executor whose children inherit the given streams.
func NewCommandExecutor(in io.Reader, out, errOut io.Writer) *CommandExecutor {
	return &CommandExecutor{Stdin: in, Stdout: out, Stderr: errOut}
}

// Execute runs command and waits for it. env is appended to the current environment.
func (e *CommandExecutor) Execute(ctx context.Context, command string, args []string, env []string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", command, err)
	}
	return nil
}

// Invocation is a single tool run against one datastore.
type Invocation struct {
	Datastore string
	Database  string
	ExtraArgs []string
}

// Render builds the argument list and environment for a tool run.
func (t *Tool) Render(record datastores.Record, creds cache.Credentials, database string, extra []string) ([]string, []string, error) {
	host, err := record.Host()
	if err != nil {
		return nil, nil, err
	}

	port := ""
	if record.Port != nil {
		port = strconv.Itoa(*record.Port)
	}
	data := map[string]interface{}{
		"host":     host,
		"port":     port,
		"user":     creds.Username,
		"password": creds.Password,
		"database": database,
	}

	var b strings.Builder
	if err := t.args.Execute(&b, data); err != nil {
		return nil, nil, fmt.Errorf("tool %s: failed to render arguments: %w", t.Name, err)
	}
	args := append(strings.Fields(b.String()), extra...)

	env := make([]string, 0, len(t.env))
	for i, tmpl := range t.env {
		b.Reset()
		if err := tmpl.Execute(&b, data); err != nil {
			return nil, nil, fmt.Errorf("tool %s: failed to render %s: %w", t.Name, t.Env[i].Name, err)
		}
		env = append(env, t.Env[i].Name+"="+b.String())
	}

	return args, env, nil
}

// Run renders the tool for the requested datastore and executes it.
func (t *Tool) Run(ctx context.Context, executor Executor, inv *datastores.Inventory, creds cache.Credentials, in Invocation) error {
	record, err := inv.Get(in.Datastore)
	if err != nil {
		return err
	}
	if in.Database != "" && !record.HasDatabase(in.Database) {
		logging.Warn("Tools", "Database %s is not listed for datastore %s", in.Database, in.Datastore)
	}

	args, env, err := t.Render(record, creds, in.Database, in.ExtraArgs)
	if err != nil {
		return err
	}

	logging.Debug("Tools", "Running %s with %d arguments against %s", t.Command, len(args), in.Datastore)
	return executor.Execute(ctx, t.Command, args, env)
}
