package tools

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"satori/internal/cache"
	"satori/internal/datastores"
	"satori/pkg/logging"
)

const (
	envAWSCredentialsFile = "AWS_SHARED_CREDENTIALS_FILE"
	envAWSConfigFile      = "AWS_CONFIG_FILE"

	awsAccessKeyID     = "aws_access_key_id"
	awsSecretAccessKey = "aws_secret_access_key"
	awsEndpointURL     = "endpoint_url"
)

// ErrNoAWSDatastore is returned when the inventory has no S3 or Athena datastore.
var ErrNoAWSDatastore = errors.New("no S3 or Athena datastore found")

// AWSPaths locates the shared credentials and config files.
type AWSPaths struct {
	Credentials string
	Config      string
}

// DefaultAWSPaths honours AWS_SHARED_CREDENTIALS_FILE and AWS_CONFIG_FILE
// and falls back to ~/.aws/credentials and ~/.aws/config.
func DefaultAWSPaths() (AWSPaths, error) {
	paths := AWSPaths{
		Credentials: os.Getenv(envAWSCredentialsFile),
		Config:      os.Getenv(envAWSConfigFile),
	}
	if paths.Credentials != "" && paths.Config != "" {
		return paths, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return AWSPaths{}, fmt.Errorf("failed to determine home directory: %w", err)
	}
	if paths.Credentials == "" {
		paths.Credentials = filepath.Join(home, ".aws", "credentials")
	}
	if paths.Config == "" {
		paths.Config = filepath.Join(home, ".aws", "config")
	}
	return paths, nil
}

// AWSProfile is the named profile written for one S3 or Athena datastore.
type AWSProfile struct {
	Name        string
	Datastore   string
	EndpointURL string
}

// AWSProfiles returns one profile per S3 or Athena datastore, ordered by
// datastore name.
func AWSProfiles(inv *datastores.Inventory) []AWSProfile {
	var profiles []AWSProfile
	for _, record := range inv.Filter(func(r datastores.Record) bool {
		return r.Type == datastores.TypeS3 || r.Type == datastores.TypeAthena
	}) {
		if record.SatoriHost == "" {
			logging.Warn("Tools", "Datastore %s has no Satori host, not adding an AWS profile", record.Name)
			continue
		}
		profiles = append(profiles, AWSProfile{
			Name:        AWSProfileName(record),
			Datastore:   record.Name,
			EndpointURL: "https://" + record.SatoriHost,
		})
	}
	return profiles
}

// AWSProfileName is satori_<type>_<id>, where id is the first label of the
// datastore's Satori host.
func AWSProfileName(record datastores.Record) string {
	id, _, _ := strings.Cut(record.SatoriHost, ".")
	if id == "" {
		id = record.Name
	}
	return "satori_" + profileToken(string(record.Type)) + "_" + profileToken(id)
}

func profileToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, s)
}

// WriteAWSProfiles sets the access key pair of every profile in the
// credentials file and its endpoint_url in the config file. Sections that
// do not belong to a profile are left untouched.
func WriteAWSProfiles(paths AWSPaths, profiles []AWSProfile, creds cache.Credentials) error {
	if len(profiles) == 0 {
		return ErrNoAWSDatastore
	}

	credentials, err := loadINI(paths.Credentials)
	if err != nil {
		return err
	}
	config, err := loadINI(paths.Config)
	if err != nil {
		return err
	}

	for _, p := range profiles {
		section := credentials.Section(p.Name)
		section.Key(awsAccessKeyID).SetValue(creds.Username)
		section.Key(awsSecretAccessKey).SetValue(creds.Password)

		config.Section("profile " + p.Name).Key(awsEndpointURL).SetValue(p.EndpointURL)
	}

	if err := saveINI(paths.Credentials, credentials); err != nil {
		return err
	}
	if err := saveINI(paths.Config, config); err != nil {
		return err
	}
	logging.Debug("Tools", "Wrote %d AWS profiles to %s and %s", len(profiles), paths.Credentials, paths.Config)
	return nil
}

// loadINI reads an AWS-style ini file. A missing file yields an empty one.
func loadINI(path string) (*ini.File, error) {
	f, err := ini.LoadSources(ini.LoadOptions{Loose: true, AllowNestedValues: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read AWS file %s: %w", path, err)
	}
	return f, nil
}

func saveINI(path string, f *ini.File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to encode AWS file %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write AWS file %s: %w", path, err)
	}
	return nil
}
