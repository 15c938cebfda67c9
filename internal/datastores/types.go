package datastores

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingDeploymentType is returned when a MongoDB datastore has no
// deployment type to choose its URI scheme from.
var ErrMissingDeploymentType = errors.New("mongo datastore is missing its deployment type")

// Type is the backend of a datastore, as reported by the server.
type Type string

// Supported datastore types.
const (
	TypePostgres    Type = "POSTGRESQL"
	TypeRedshift    Type = "REDSHIFT"
	TypeGreenplum   Type = "GREENPLUM"
	TypeCockroachDB Type = "COCKROACH_DB"
	TypeSnowflake   Type = "SNOWFLAKE"
	TypeMySQL       Type = "MYSQL"
	TypeMariaDB     Type = "MARIA_DB"
	TypeMSSQL       Type = "MSSQL"
	TypeMongo       Type = "MONGO"
	TypeS3          Type = "S3"
	TypeAthena      Type = "ATHENA"
	TypeBigQuery    Type = "BIGQUERY"
	TypeDatabricks  Type = "DATABRICKS"
	TypeTrino       Type = "TRINO"
)

// IsPostgresDialect reports whether clients speaking the PostgreSQL wire
// protocol (psql, pgpass) can connect to the datastore.
func (t Type) IsPostgresDialect() bool {
	switch t {
	case TypePostgres, TypeRedshift, TypeGreenplum, TypeCockroachDB:
		return true
	default:
		return false
	}
}

// DeploymentType selects the MongoDB connection URI scheme.
type DeploymentType string

const (
	DeploymentMongoDB    DeploymentType = "MONGODB"
	DeploymentMongoDBSrv DeploymentType = "MONGODB_SRV"
)

// DefaultMongoPort is used when a MongoDB datastore reports no port.
const DefaultMongoPort = 27017

// Record is one datastore the user can reach.
type Record struct {
	Name           string          `json:"name"`
	SatoriHost     string          `json:"satori_host"`
	Databases      []string        `json:"databases"`
	Port           *int            `json:"port,omitempty"`
	Type           Type            `json:"type"`
	DeploymentType *DeploymentType `json:"deployment_type,omitempty"`
}

// Host returns the address a client connects to. MongoDB datastores get a
// connection URI chosen by their deployment type; every other type uses the
// Satori hostname as is.
func (r Record) Host() (string, error) {
	if r.Type != TypeMongo {
		return r.SatoriHost, nil
	}
	if r.DeploymentType == nil {
		return "", fmt.Errorf("%s: %w", r.Name, ErrMissingDeploymentType)
	}

	switch *r.DeploymentType {
	case DeploymentMongoDB:
		port := DefaultMongoPort
		if r.Port != nil {
			port = *r.Port
		}
		return fmt.Sprintf("mongodb://%s:%d", r.SatoriHost, port), nil
	case DeploymentMongoDBSrv:
		return "mongodb+srv://" + r.SatoriHost, nil
	default:
		return "", fmt.Errorf("%s: unknown deployment type %q: %w", r.Name, *r.DeploymentType, ErrMissingDeploymentType)
	}
}

// HasDatabase reports whether name is one of the record's databases.
func (r Record) HasDatabase(name string) bool {
	for _, db := range r.Databases {
		if db == name {
			return true
		}
	}
	return false
}

// Inventory is the datastore inventory of one account.
type Inventory struct {
	AccountID  string            `json:"account_id"`
	Datastores map[string]Record `json:"datastores"`
}

// DatastoreNotFoundError is returned when a datastore name is not in the inventory.
type DatastoreNotFoundError struct {
	Name string
}

func (e *DatastoreNotFoundError) Error() string {
	return fmt.Sprintf("datastore %q not found, run with --refresh to update the datastore list", e.Name)
}

// Get returns the datastore with the given name.
func (inv *Inventory) Get(name string) (Record, error) {
	if inv != nil {
		if r, ok := inv.Datastores[name]; ok {
			return r, nil
		}
	}
	return Record{}, &DatastoreNotFoundError{Name: name}
}

// Names returns the datastore names in sorted order.
func (inv *Inventory) Names() []string {
	if inv == nil {
		return nil
	}
	names := make([]string, 0, len(inv.Datastores))
	for name := range inv.Datastores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns the records matching keep, sorted by name.
func (inv *Inventory) Filter(keep func(Record) bool) []Record {
	var out []Record
	for _, name := range inv.Names() {
		if r := inv.Datastores[name]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ParseDeploymentType normalises a deployment type from the server.
func ParseDeploymentType(s string) (DeploymentType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(DeploymentMongoDB):
		return DeploymentMongoDB, true
	case string(DeploymentMongoDBSrv):
		return DeploymentMongoDBSrv, true
	default:
		return "", false
	}
}
