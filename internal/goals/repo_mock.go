package goals

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/store"
)

var _ goalsRepo = (*repoMock)(nil)

type repoMock struct {
	Goal        analytics.Goal
	Annotations map[string]store.Annotation
	Err         error
	mutex       sync.Mutex
}

func NewRepoMock() *repoMock {
	return &repoMock{
		Annotations: map[string]store.Annotation{},
	}
}

func (r *repoMock) GetGoal(_ context.Context) (analytics.Goal, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Err != nil {
		return analytics.Goal{}, r.Err
	}
	return r.Goal.Clone(), nil
}

func (r *repoMock) SetGoal(_ context.Context, goal analytics.Goal) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Goal = goal.Clone()
	return nil
}

func (r *repoMock) ClearGoal(_ context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Goal = analytics.Goal{}
	return nil
}

func (r *repoMock) ListAnnotations(_ context.Context) ([]store.Annotation, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var annotations []store.Annotation
	for _, a := range r.Annotations {
		annotations = append(annotations, a)
	}
	sort.Slice(annotations, func(i, j int) bool {
		return annotations[i].Date.Before(annotations[j].Date)
	})
	return annotations, nil
}

func (r *repoMock) AddAnnotation(_ context.Context, day time.Time, text string) (store.Annotation, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Err != nil {
		return store.Annotation{}, r.Err
	}

	annotation := store.Annotation{
		ID:   uuid.NewString(),
		Date: day,
		Text: text,
	}
	r.Annotations[annotation.ID] = annotation
	return annotation, nil
}

func (r *repoMock) DeleteAnnotation(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Annotations[id]; !ok {
		return ErrAnnotationNotFound
	}
	delete(r.Annotations, id)
	return nil
}
