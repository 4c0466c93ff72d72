package repository

import (
	"math"
	"sort"
	"time"

	"github.com/smileworks/clinic-core/internal/schedule"
	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// CreateRecord persists a treatment record created outside the
// completion flow, e.g. imported history.
func (r *Repository) CreateRecord(rec *types.Record) (*types.Record, error) {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	rec.CreatedAt = time.Now()

	records := r.loadRecords()
	if rec.AppointmentID != "" {
		for _, existing := range records {
			if existing.AppointmentID == rec.AppointmentID {
				return nil, types.NewIntegrityError(types.ErrCodeRecordExists,
					"appointment already has a treatment record")
			}
		}
	}

	records = append(records, rec)
	if err := r.save(storage.CollectionRecords, records); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetRecord fetches one treatment record by id
func (r *Repository) GetRecord(id string) (*types.Record, error) {
	for _, rec := range r.loadRecords() {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "record not found: "+id)
}

// ListRecords returns all treatment records newest first
func (r *Repository) ListRecords() []*types.Record {
	records := r.loadRecords()
	sort.SliceStable(records, func(i, j int) bool {
		ki := schedule.SortKey(records[i].Date, records[i].Time)
		kj := schedule.SortKey(records[j].Date, records[j].Time)
		if ki != kj {
			return ki > kj
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records
}

// UpdateRecord applies a partial update. Ratings are not touched here;
// RateRecord owns those fields.
func (r *Repository) UpdateRecord(id string, updates types.RecordUpdates) (*types.Record, error) {
	records := r.loadRecords()
	for _, rec := range records {
		if rec.ID != id {
			continue
		}
		if updates.PatientName != nil {
			rec.PatientName = *updates.PatientName
		}
		if updates.Treatment != nil {
			rec.Treatment = *updates.Treatment
		}
		if updates.Date != nil {
			rec.Date = *updates.Date
		}
		if updates.Time != nil {
			rec.Time = *updates.Time
		}
		if updates.Notes != nil {
			rec.Notes = *updates.Notes
		}
		if updates.Dentist != nil {
			rec.Dentist = *updates.Dentist
		}
		if updates.DentistID != nil {
			rec.DentistID = *updates.DentistID
		}
		rec.UpdatedAt = time.Now()
		if err := r.save(storage.CollectionRecords, records); err != nil {
			return nil, err
		}
		return rec, nil
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "record not found: "+id)
}

// DeleteRecord removes a treatment record
func (r *Repository) DeleteRecord(id string) error {
	records := r.loadRecords()
	kept := make([]*types.Record, 0, len(records))
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return types.NewNotFoundError(types.ErrCodeNotFound, "record not found: "+id)
	}
	return r.save(storage.CollectionRecords, kept)
}

// RateRecord stores a patient's rating for a treatment record. Each
// record can be rated exactly once; later attempts fail rather than
// overwrite.
func (r *Repository) RateRecord(id string, rating int, review string) (*types.Record, error) {
	if rating < 1 || rating > 5 {
		return nil, types.NewValidationError(types.ErrCodeValidationFailed,
			"rating must be between 1 and 5", nil)
	}

	records := r.loadRecords()
	for _, rec := range records {
		if rec.ID != id {
			continue
		}
		if rec.RatedAt != nil || rec.Rating != 0 {
			return nil, types.NewIntegrityError(types.ErrCodeAlreadyRated,
				"record has already been rated")
		}
		now := time.Now()
		rec.Rating = rating
		rec.Review = review
		rec.RatedAt = &now
		rec.UpdatedAt = now
		if err := r.save(storage.CollectionRecords, records); err != nil {
			return nil, err
		}
		r.logger.WithFields(map[string]interface{}{
			"record_id": id,
			"rating":    rating,
		}).Info("record rated")
		return rec, nil
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "record not found: "+id)
}

// DentistRatings aggregates record ratings for one dentist. Legacy
// records without a DentistID are attributed by name match.
func (r *Repository) DentistRatings(dentist *types.User) types.DentistRatingSummary {
	var sum, count int
	for _, rec := range r.loadRecords() {
		if rec.RatedAt == nil && rec.Rating == 0 {
			continue
		}
		if rec.DentistID != "" {
			if rec.DentistID != dentist.ID {
				continue
			}
		} else if !rbac.MatchesDentistUser(dentist, rec.Dentist) {
			continue
		}
		sum += rec.Rating
		count++
	}
	summary := types.DentistRatingSummary{Count: count}
	if count > 0 {
		summary.Average = math.Round(float64(sum)/float64(count)*10) / 10
	}
	return summary
}
