package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkelcec/scalewatch/internal/analytics"
)

var _ dashboardRepo = (*repoMock)(nil)

type mockEntry struct {
	weight      *float64
	intake      *float64
	expenditure *float64
}

type repoMock struct {
	// calendar day (UTC midnight) to measurements
	Entries  map[time.Time]mockEntry
	ListErr  error
	WriteErr error
	mutex    sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Entries: map[time.Time]mockEntry{},
	}
}

func (r *repoMock) UpsertWeight(_ context.Context, day time.Time, weight float64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.WriteErr != nil {
		return r.WriteErr
	}
	entry := r.Entries[day]
	entry.weight = &weight
	r.Entries[day] = entry
	return nil
}

func (r *repoMock) DeleteWeight(_ context.Context, day time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.Entries[day]
	if !ok || entry.weight == nil {
		return ErrEntryNotFound
	}
	entry.weight = nil
	r.Entries[day] = entry
	return nil
}

func (r *repoMock) UpsertCalories(_ context.Context, day time.Time, intake, expenditure *float64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.WriteErr != nil {
		return r.WriteErr
	}
	entry := r.Entries[day]
	entry.intake = intake
	entry.expenditure = expenditure
	r.Entries[day] = entry
	return nil
}

func (r *repoMock) DeleteCalories(_ context.Context, day time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.Entries[day]
	if !ok || (entry.intake == nil && entry.expenditure == nil) {
		return ErrEntryNotFound
	}
	entry.intake = nil
	entry.expenditure = nil
	r.Entries[day] = entry
	return nil
}

func (r *repoMock) ListRecords(_ context.Context, from, to *time.Time) ([]analytics.DailyRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.ListErr != nil {
		return nil, r.ListErr
	}

	var records []analytics.DailyRecord
	for day, entry := range r.Entries {
		if entry.weight == nil && entry.intake == nil && entry.expenditure == nil {
			continue
		}
		if from != nil && day.Before(*from) {
			continue
		}
		if to != nil && day.After(*to) {
			continue
		}
		records = append(records, analytics.DailyRecord{
			Date:          day,
			Weight:        entry.weight,
			CalorieIntake: entry.intake,
			Expenditure:   entry.expenditure,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}
