package storage

import (
	"github.com/smileworks/clinic-core/pkg/types"
)

// Collection names for the persisted entity sets
const (
	CollectionAppointments  = "appointments"
	CollectionPatients      = "patients"
	CollectionUsers         = "users"
	CollectionRecords       = "records"
	CollectionNotifications = "notifications"
)

// Store persists whole collections as JSON blobs under a collection
// key. A read returns the full collection and a write replaces it
// wholesale; there are no partial writes. A missing collection is not
// an error: Load leaves v at its zero value. A collection that exists
// but fails to decode yields a storage-type ClinicError so callers can
// degrade to an empty collection instead of failing the application.
type Store interface {
	Load(collection string, v interface{}) error
	Save(collection string, v interface{}) error
}

// Session tracks the current authenticated actor, separate from the
// durable collections.
type Session interface {
	Current() *types.User
	SetCurrent(u *types.User)
	Clear()
}
