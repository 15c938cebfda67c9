package console

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// UserProfile is the identity of the caller.
type UserProfile struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
}

// DatabaseCredentials are the ephemeral credentials issued for a user.
type DatabaseCredentials struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	ExpiredAt EpochMillis `json:"expiredAt"`
}

// EpochMillis is a timestamp encoded as milliseconds since the unix epoch.
type EpochMillis struct {
	time.Time
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expiredAt: %w", err)
	}
	ms, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("expiredAt: %w", err)
	}
	e.Time = time.UnixMilli(ms).UTC()
	return nil
}

// MarshalJSON encodes the timestamp as epoch milliseconds.
func (e EpochMillis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(e.UnixMilli(), 10)), nil
}

// AccessDetailsPage is one page of the access-details listing.
type AccessDetailsPage struct {
	Count            int                      `json:"count"`
	Records          []json.RawMessage        `json:"records"`
	DataStoreDetails []DatastoreAccessDetails `json:"dataStoreDetails"`
}

// DatastoreAccessDetails describes one datastore the caller can reach.
type DatastoreAccessDetails struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Type              string             `json:"type"`
	SatoriHostname    string             `json:"satoriHostname,omitempty"`
	Port              *int               `json:"port,omitempty"`
	SatoriAuthEnabled bool               `json:"satoriAuthEnabled"`
	DataStoreSettings *DatastoreSettings `json:"dataStoreSettings,omitempty"`
	Dbs               []string           `json:"dbs"`
}

// DatastoreSettings carries type specific settings.
type DatastoreSettings struct {
	DeploymentType string `json:"deploymentType,omitempty"`
}
