package tools

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"gopkg.in/yaml.v3"
)

//go:embed tools.yaml
var builtinTools []byte

// EnvVar is one environment variable passed to a tool. Value is a template.
type EnvVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// CliArg documents a positional argument a tool accepts.
type CliArg struct {
	Name     string `yaml:"name"`
	Help     string `yaml:"help"`
	Required bool   `yaml:"required"`
}

// Tool describes how to launch a client program against a datastore.
type Tool struct {
	Name        string   `yaml:"name"`
	Command     string   `yaml:"command"`
	CommandArgs string   `yaml:"command_args"`
	Env         []EnvVar `yaml:"env"`
	CliArgs     []CliArg `yaml:"cli_args"`

	args *template.Template
	env  []*template.Template
}

// Catalog is the set of known tools, validated when loaded.
type Catalog struct {
	tools map[string]*Tool
}

// BuiltinCatalog parses the embedded tool definitions.
func BuiltinCatalog() (*Catalog, error) {
	return ParseCatalog(builtinTools)
}

// ParseCatalog parses tool definitions and compiles their templates.
func ParseCatalog(data []byte) (*Catalog, error) {
	var defs []*Tool
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse tool definitions: %w", err)
	}

	catalog := &Catalog{tools: make(map[string]*Tool, len(defs))}
	for _, tool := range defs {
		if err := tool.compile(); err != nil {
			return nil, err
		}
		if _, dup := catalog.tools[tool.Name]; dup {
			return nil, fmt.Errorf("tool %q defined twice", tool.Name)
		}
		catalog.tools[tool.Name] = tool
	}
	return catalog, nil
}

func (t *Tool) compile() error {
	if t.Name == "" || t.Command == "" {
		return fmt.Errorf("tool definition needs a name and a command: %+v", t)
	}

	var err error
	if t.args, err = newTemplate(t.Name, t.CommandArgs); err != nil {
		return fmt.Errorf("tool %s: invalid command_args: %w", t.Name, err)
	}

	t.env = make([]*template.Template, 0, len(t.Env))
	for _, e := range t.Env {
		tmpl, err := newTemplate(t.Name+"."+e.Name, e.Value)
		if err != nil {
			return fmt.Errorf("tool %s: invalid env %s: %w", t.Name, e.Name, err)
		}
		t.env = append(t.env, tmpl)
	}
	return nil
}

func newTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=zero").Parse(text)
}

// Get returns the named tool.
func (c *Catalog) Get(name string) (*Tool, error) {
	tool, ok := c.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q, available tools: %s", name, strings.Join(c.Names(), ", "))
	}
	return tool, nil
}

// Names returns the tool names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
