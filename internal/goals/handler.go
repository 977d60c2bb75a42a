package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/analytics"
	"github.com/mkelcec/scalewatch/internal/store"
	"github.com/mkelcec/scalewatch/internal/telemetry/tracing"
	"github.com/mkelcec/scalewatch/pkg"
)

type goalsRepo interface {
	GetGoal(ctx context.Context) (analytics.Goal, error)
	SetGoal(ctx context.Context, goal analytics.Goal) error
	ClearGoal(ctx context.Context) error
	ListAnnotations(ctx context.Context) ([]store.Annotation, error)
	AddAnnotation(ctx context.Context, day time.Time, text string) (store.Annotation, error)
	DeleteAnnotation(ctx context.Context, id string) error
}

// statsRefresher recomputes derived stats after the goal changed; the
// required weekly rate and the projected time to goal depend on it.
type statsRefresher interface {
	Reload(ctx context.Context) error
}

type GoalRequest struct {
	Weight     *float64 `json:"weight"`
	Date       string   `json:"date"`
	TargetRate *float64 `json:"targetRate"`
}

type AnnotationRequest struct {
	Day  string `json:"day"`
	Text string `json:"text"`
}

type DeleteAnnotationResponse struct {
	DeletedID string `json:"deletedId"`
}

type Handler struct {
	repo      goalsRepo
	store     *store.Store
	refresher statsRefresher
}

func NewHandler(repo goalsRepo, appStore *store.Store, refresher statsRefresher) *Handler {
	return &Handler{
		repo:      repo,
		store:     appStore,
		refresher: refresher,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/goal", handler.HandleGetGoal).Methods("GET", "OPTIONS")
	router.HandleFunc("/goal", handler.HandleSetGoal).Methods("PUT", "OPTIONS")
	router.HandleFunc("/goal", handler.HandleClearGoal).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/annotations", handler.HandleListAnnotations).Methods("GET", "OPTIONS")
	router.HandleFunc("/annotations", handler.HandleAddAnnotation).Methods("POST", "OPTIONS")
	router.HandleFunc("/annotations/{id}", handler.HandleDeleteAnnotation).Methods("DELETE", "OPTIONS")
}

// SyncStore loads the persisted goal and annotations into the store, done
// once at startup before the first analytics run.
func (handler *Handler) SyncStore(ctx context.Context) error {
	goal, err := handler.repo.GetGoal(ctx)
	if err != nil {
		return fmt.Errorf("load goal: %w", err)
	}
	annotations, err := handler.repo.ListAnnotations(ctx)
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}

	handler.store.Dispatch(store.LoadGoal{Goal: goal})
	handler.store.Dispatch(store.SetAnnotations{Annotations: annotations})
	return nil
}

func (handler *Handler) HandleGetGoal(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.get")
	defer span.End()

	pkg.WriteJSONResponse(w, handler.store.GetState().Goal)
}

func (handler *Handler) HandleSetGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.set")
	defer span.End()

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set goal, unmarshal json params: %s", err)
		http.Error(w, "set goal failed", http.StatusBadRequest)
		return
	}

	goal := analytics.Goal{
		Weight:     req.Weight,
		TargetRate: req.TargetRate,
	}
	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			http.Error(w, "error, invalid goal date", http.StatusBadRequest)
			return
		}
		goal.Date = &date
	}
	if goal.Weight == nil && goal.Date == nil && goal.TargetRate == nil {
		http.Error(w, "error, goal completely empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.SetGoal(ctx, goal); err != nil {
		log.Errorf("failed to set goal: %s", err)
		http.Error(w, "set goal failed", http.StatusInternalServerError)
		return
	}

	handler.store.Dispatch(store.LoadGoal{Goal: goal})
	handler.reloadStats(ctx)

	pkg.WriteJSONResponse(w, goal)
}

func (handler *Handler) HandleClearGoal(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.clear")
	defer span.End()

	if err := handler.repo.ClearGoal(ctx); err != nil {
		log.Errorf("failed to clear goal: %s", err)
		http.Error(w, "clear goal failed", http.StatusInternalServerError)
		return
	}

	handler.store.Dispatch(store.LoadGoal{Goal: analytics.Goal{}})
	handler.reloadStats(ctx)

	pkg.WriteResponse(w, "", "goal cleared")
}

func (handler *Handler) HandleListAnnotations(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.annotations")
	defer span.End()

	annotations := handler.store.GetState().Annotations
	if annotations == nil {
		annotations = []store.Annotation{}
	}
	pkg.WriteJSONResponse(w, annotations)
}

func (handler *Handler) HandleAddAnnotation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.addAnnotation")
	defer span.End()

	var req AnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("add annotation, unmarshal json params: %s", err)
		http.Error(w, "add annotation failed", http.StatusBadRequest)
		return
	}

	day, err := time.Parse(time.DateOnly, req.Day)
	if err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "error, annotation text empty", http.StatusBadRequest)
		return
	}

	annotation, err := handler.repo.AddAnnotation(ctx, day, req.Text)
	if err != nil {
		log.Errorf("failed to add annotation for %s: %s", req.Day, err)
		http.Error(w, "add annotation failed", http.StatusInternalServerError)
		return
	}

	if err := handler.syncAnnotations(ctx); err != nil {
		log.Errorf("failed to sync annotations: %s", err)
		http.Error(w, "add annotation failed", http.StatusInternalServerError)
		return
	}

	annotationJson, err := json.Marshal(annotation)
	if err != nil {
		log.Errorf("failed to marshal annotation: %s", err)
		http.Error(w, "add annotation failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, "application/json", annotationJson)
}

func (handler *Handler) HandleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.deleteAnnotation")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.DeleteAnnotation(ctx, id); err != nil {
		if errors.Is(err, ErrAnnotationNotFound) {
			http.Error(w, "annotation not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete annotation %s: %s", id, err)
		http.Error(w, "delete annotation failed", http.StatusInternalServerError)
		return
	}

	if err := handler.syncAnnotations(ctx); err != nil {
		log.Errorf("failed to sync annotations: %s", err)
		http.Error(w, "delete annotation failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, DeleteAnnotationResponse{DeletedID: id})
}

func (handler *Handler) syncAnnotations(ctx context.Context) error {
	annotations, err := handler.repo.ListAnnotations(ctx)
	if err != nil {
		return err
	}
	handler.store.Dispatch(store.SetAnnotations{Annotations: annotations})
	return nil
}

func (handler *Handler) reloadStats(ctx context.Context) {
	if handler.refresher == nil {
		return
	}
	if err := handler.refresher.Reload(ctx); err != nil {
		log.Errorf("goals: stats reload after goal change: %s", err)
	}
}
