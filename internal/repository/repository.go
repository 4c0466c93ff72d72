package repository

import (
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// Repository is the single data-access layer over the JSON collection
// store. Every caller goes through it; nothing else touches the store.
type Repository struct {
	store   storage.Store
	session storage.Session
	logger  *logger.Logger
}

// New creates a repository over the given store and session
func New(store storage.Store, session storage.Session, log *logger.Logger) *Repository {
	return &Repository{
		store:   store,
		session: session,
		logger:  log,
	}
}

// Session exposes the current-user session for callers that need it
func (r *Repository) Session() storage.Session {
	return r.session
}

// load decodes a collection into v. A corrupt blob is logged and
// treated as an empty collection rather than propagated, so one bad
// file never takes the whole system down.
func (r *Repository) load(collection string, v interface{}) {
	if err := r.store.Load(collection, v); err != nil {
		r.logger.StorageCorruption(collection, err)
	}
}

func (r *Repository) loadAppointments() []*types.Appointment {
	var items []*types.Appointment
	r.load(storage.CollectionAppointments, &items)
	return compactAppointments(items)
}

func (r *Repository) loadPatients() []*types.Patient {
	var items []*types.Patient
	r.load(storage.CollectionPatients, &items)
	out := items[:0]
	for _, p := range items {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (r *Repository) loadUsers() []*types.User {
	var items []*types.User
	r.load(storage.CollectionUsers, &items)
	out := items[:0]
	for _, u := range items {
		if u != nil {
			out = append(out, u)
		}
	}
	return out
}

func (r *Repository) loadRecords() []*types.Record {
	var items []*types.Record
	r.load(storage.CollectionRecords, &items)
	out := items[:0]
	for _, rec := range items {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Repository) loadNotifications() []*types.Notification {
	var items []*types.Notification
	r.load(storage.CollectionNotifications, &items)
	out := items[:0]
	for _, n := range items {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func compactAppointments(items []*types.Appointment) []*types.Appointment {
	out := items[:0]
	for _, a := range items {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (r *Repository) save(collection string, v interface{}) error {
	if err := r.store.Save(collection, v); err != nil {
		r.logger.WithError(err).WithField("collection", collection).Error("failed to persist collection")
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to persist "+collection, err)
	}
	return nil
}
