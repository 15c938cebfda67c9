package datastores

import (
	"satori/internal/console"
	"satori/pkg/logging"
)

// FromAccessDetails builds the inventory of accountID from the server's
// access details. Datastores are keyed by name; a later entry with the same
// name replaces an earlier one and the collision is logged.
func FromAccessDetails(accountID string, details []console.DatastoreAccessDetails) *Inventory {
	inv := &Inventory{
		AccountID:  accountID,
		Datastores: make(map[string]Record, len(details)),
	}
	ids := make(map[string]string, len(details))

	for _, d := range details {
		record := Record{
			Name:       d.Name,
			SatoriHost: d.SatoriHostname,
			Databases:  append([]string(nil), d.Dbs...),
			Type:       Type(d.Type),
		}
		if record.Databases == nil {
			record.Databases = []string{}
		}
		if d.Port != nil {
			port := *d.Port
			record.Port = &port
		}
		if d.DataStoreSettings != nil && d.DataStoreSettings.DeploymentType != "" {
			if dt, ok := ParseDeploymentType(d.DataStoreSettings.DeploymentType); ok {
				record.DeploymentType = &dt
			} else {
				logging.Warn("Datastores", "Ignoring unknown deployment type %q of datastore %s", d.DataStoreSettings.DeploymentType, d.Name)
			}
		}
		if prev, dup := ids[d.Name]; dup {
			logging.Warn("Datastores", "Datastore name %q is shared by ids %s and %s, keeping %s", d.Name, prev, d.ID, d.ID)
		}
		ids[d.Name] = d.ID
		inv.Datastores[d.Name] = record
	}

	return inv
}
