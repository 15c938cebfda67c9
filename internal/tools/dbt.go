package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"satori/internal/cache"
	"satori/pkg/logging"
)

const (
	envDbtProfilesDir = "DBT_PROFILES_DIR"

	dbtProfilesFile = "profiles.yml"
	dbtBackupFile   = "profiles.bk"
	dbtProjectFile  = "dbt_project.yml"

	dbtUserTemplate     = "{{ env_var('SATORI_USERNAME') }}"
	dbtPasswordTemplate = "{{ env_var('SATORI_PASSWORD') }}"
)

var (
	// ErrDbtProfileNotFound is returned when profiles.yml has no entry for the project's profile.
	ErrDbtProfileNotFound = errors.New("dbt profile not found")
	// ErrDbtTargetNotFound is returned when the profile has no output for the target.
	ErrDbtTargetNotFound = errors.New("dbt target not found")

	envVarTemplate = regexp.MustCompile(`\{\{\s*env_var\(['"]([^'"]+)['"]\)\s*\}\}`)
)

// DbtProfilesDir picks the directory holding profiles.yml the way dbt does:
// the explicit dir, then DBT_PROFILES_DIR, then cwd if it has a
// profiles.yml, then ~/.dbt.
func DbtProfilesDir(dir, cwd string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if env := os.Getenv(envDbtProfilesDir); env != "" {
		return env, nil
	}
	if _, err := os.Stat(filepath.Join(cwd, dbtProfilesFile)); err == nil {
		return cwd, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".dbt"), nil
}

// DbtProjectProfile returns the profile named in dir/dbt_project.yml.
func DbtProjectProfile(dir string) (string, error) {
	path := filepath.Join(dir, dbtProjectFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read dbt project %s: %w", path, err)
	}

	var project struct {
		Profile string `yaml:"profile"`
	}
	if err := yaml.Unmarshal(data, &project); err != nil {
		return "", fmt.Errorf("failed to parse dbt project %s: %w", path, err)
	}
	if project.Profile == "" {
		return "", fmt.Errorf("dbt project %s does not name a profile", path)
	}
	return project.Profile, nil
}

// DbtProfiles is a parsed profiles.yml. Edits keep the file's comments and
// key order.
type DbtProfiles struct {
	dir     string
	raw     []byte
	root    yaml.Node
	changed bool
}

// LoadDbtProfiles reads dir/profiles.yml.
func LoadDbtProfiles(dir string) (*DbtProfiles, error) {
	path := filepath.Join(dir, dbtProfilesFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dbt profiles %s: %w", path, err)
	}

	p := &DbtProfiles{dir: dir, raw: raw}
	if err := yaml.Unmarshal(raw, &p.root); err != nil {
		return nil, fmt.Errorf("failed to parse dbt profiles %s: %w", path, err)
	}
	return p, nil
}

// Dir returns the directory holding profiles.yml.
func (p *DbtProfiles) Dir() string { return p.dir }

// UseSatoriCredentials points the user and password of the profile's target
// at the SATORI_USERNAME and SATORI_PASSWORD environment variables. An empty
// target selects the profile's default. It returns the target used.
func (p *DbtProfiles) UseSatoriCredentials(profile, target string) (string, error) {
	var top *yaml.Node
	if len(p.root.Content) > 0 {
		top = p.root.Content[0]
	}
	prof := mappingValue(top, profile)
	if prof == nil {
		return "", fmt.Errorf("%w: %s", ErrDbtProfileNotFound, profile)
	}

	if target == "" {
		if def := mappingValue(prof, "target"); def != nil {
			target = def.Value
		}
	}
	output := mappingValue(mappingValue(prof, "outputs"), target)
	if output == nil || output.Kind != yaml.MappingNode {
		return "", fmt.Errorf("%w: %q in profile %s", ErrDbtTargetNotFound, target, profile)
	}

	if setTemplate(output, "user", dbtUserTemplate) {
		p.changed = true
	}
	if setTemplate(output, "password", dbtPasswordTemplate) {
		p.changed = true
	}
	logging.Debug("Tools", "dbt profile %s target %s rewritten: %t", profile, target, p.changed)
	return target, nil
}

// Save backs the original file up to profiles.bk and writes the rewritten
// profiles. It does nothing when no field was rewritten.
func (p *DbtProfiles) Save() (bool, error) {
	if !p.changed {
		return false, nil
	}

	backup := filepath.Join(p.dir, dbtBackupFile)
	if err := os.WriteFile(backup, p.raw, 0o600); err != nil {
		return false, fmt.Errorf("failed to back up dbt profiles to %s: %w", backup, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&p.root); err != nil {
		return false, fmt.Errorf("failed to encode dbt profiles: %w", err)
	}
	if err := enc.Close(); err != nil {
		return false, fmt.Errorf("failed to encode dbt profiles: %w", err)
	}

	path := filepath.Join(p.dir, dbtProfilesFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return false, fmt.Errorf("failed to write dbt profiles %s: %w", path, err)
	}
	logging.Info("Tools", "Rewrote %s, the previous version is in %s", path, backup)
	return true, nil
}

// RunDbt runs dbt against the profiles directory and target with the
// credentials in its environment.
func RunDbt(ctx context.Context, exec Executor, creds cache.Credentials, profilesDir, target string, extra []string) error {
	args := append(append([]string(nil), extra...), "--profiles-dir", profilesDir, "--target", target)
	env := []string{
		"PGCHANNELBINDING=disable",
		"SATORI_USERNAME=" + creds.Username,
		"SATORI_PASSWORD=" + creds.Password,
	}
	logging.Debug("Tools", "Running dbt %v", args)
	return exec.Execute(ctx, "dbt", args, env)
}

// isSatoriTemplate reports whether value already reads one of the SATORI_*
// variables through env_var.
func isSatoriTemplate(value string) bool {
	m := envVarTemplate.FindStringSubmatch(value)
	return m != nil && (m[1] == "SATORI_USERNAME" || m[1] == "SATORI_PASSWORD")
}

func setTemplate(mapping *yaml.Node, key, template string) bool {
	value := mappingValue(mapping, key)
	if value != nil && isSatoriTemplate(value.Value) {
		return false
	}
	if value == nil {
		value = &yaml.Node{}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value)
	}
	*value = yaml.Node{
		Kind:        yaml.ScalarNode,
		Tag:         "!!str",
		Style:       yaml.DoubleQuotedStyle,
		Value:       template,
		LineComment: value.LineComment,
	}
	return true
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
