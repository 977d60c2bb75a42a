package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/store"
	"github.com/mkelcec/scalewatch/internal/telemetry/tracing"
	"github.com/mkelcec/scalewatch/pkg"
)

type WeightEntryRequest struct {
	Day    string  `json:"day"`
	Weight float64 `json:"weight"`
}

type CalorieEntryRequest struct {
	Day         string   `json:"day"`
	Intake      *float64 `json:"intake"`
	Expenditure *float64 `json:"expenditure"`
}

type RangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ThemeRequest struct {
	Theme string `json:"theme"`
}

type SortRequest struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}

type EntryResponse struct {
	Day string `json:"day"`
}

type Handler struct {
	service *Service
	store   *store.Store
	cache   *SnapshotCache
}

func NewHandler(service *Service, appStore *store.Store, cache *SnapshotCache) *Handler {
	handler := &Handler{
		service: service,
		store:   appStore,
		cache:   cache,
	}

	if cache != nil {
		// any committed dispatch makes the cached snapshot stale
		appStore.Subscribe(func(store.ChangeEvent) {
			cache.Invalidate(context.Background())
		})
	}

	return handler
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/state", handler.HandleGetState).Methods("GET", "OPTIONS")
	router.HandleFunc("/stats", handler.HandleGetStats).Methods("GET", "OPTIONS")
	router.HandleFunc("/refresh", handler.HandleRefresh).Methods("POST", "OPTIONS")
	router.HandleFunc("/range", handler.HandleSetRange).Methods("POST", "OPTIONS")
	router.HandleFunc("/theme", handler.HandleSetTheme).Methods("POST", "OPTIONS")
	router.HandleFunc("/series/{name}/toggle", handler.HandleToggleSeries).Methods("POST", "OPTIONS")
	router.HandleFunc("/sort", handler.HandleSetSort).Methods("POST", "OPTIONS")
	router.HandleFunc("/weight", handler.HandleLogWeight).Methods("POST", "OPTIONS")
	router.HandleFunc("/weight/{day}", handler.HandleDeleteWeight).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/calories", handler.HandleLogCalories).Methods("POST", "OPTIONS")
	router.HandleFunc("/calories/{day}", handler.HandleDeleteCalories).Methods("DELETE", "OPTIONS")
}

func (handler *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.state")
	defer span.End()

	if handler.cache != nil {
		if cached, err := handler.cache.Get(ctx); err != nil {
			log.Errorf("get state: snapshot cache read: %s", err)
		} else if cached != nil {
			pkg.WriteResponseBytes(w, "application/json", cached)
			return
		}
	}

	state := handler.store.GetState()
	stateJson, err := json.Marshal(state)
	if err != nil {
		log.Errorf("get state: marshal: %s", err)
		http.Error(w, "failed to get state", http.StatusInternalServerError)
		return
	}

	if handler.cache != nil {
		if err := handler.cache.Set(ctx, state); err != nil {
			log.Errorf("get state: snapshot cache write: %s", err)
		}
	}

	pkg.WriteResponseBytes(w, "application/json", stateJson)
}

func (handler *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.stats")
	defer span.End()

	state := handler.store.GetState()
	if state.DisplayStats == nil {
		http.Error(w, "stats not computed yet", http.StatusNotFound)
		return
	}
	pkg.WriteJSONResponse(w, state.DisplayStats)
}

func (handler *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.refresh")
	defer span.End()

	if err := handler.service.Reload(ctx); err != nil {
		log.Errorf("refresh dashboard: %s", err)
		http.Error(w, "refresh failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponse(w, "", "refreshed")
}

func (handler *Handler) HandleSetRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.setRange")
	defer span.End()

	var req RangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set range, unmarshal json params: %s", err)
		http.Error(w, "set range failed", http.StatusBadRequest)
		return
	}

	dateRange, err := parseRange(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.SetAnalysisRange(ctx, dateRange); err != nil {
		log.Errorf("set range: %s", err)
		http.Error(w, "set range failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponse(w, "", "range updated")
}

func (handler *Handler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.setTheme")
	defer span.End()

	var req ThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set theme, unmarshal json params: %s", err)
		http.Error(w, "set theme failed", http.StatusBadRequest)
		return
	}
	if req.Theme != "light" && req.Theme != "dark" {
		http.Error(w, "unknown theme", http.StatusBadRequest)
		return
	}

	handler.store.Dispatch(store.SetTheme{Theme: req.Theme})
	pkg.WriteResponse(w, "", "theme updated")
}

func (handler *Handler) HandleToggleSeries(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.toggleSeries")
	defer span.End()

	name := mux.Vars(r)["name"]
	if name == "" {
		http.Error(w, "error, series name empty", http.StatusBadRequest)
		return
	}

	handler.store.Dispatch(store.ToggleSeriesVisibility{Series: name})
	pkg.WriteJSONResponse(w, handler.store.GetState().SeriesVisibility)
}

func (handler *Handler) HandleSetSort(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.setSort")
	defer span.End()

	var req SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set sort, unmarshal json params: %s", err)
		http.Error(w, "set sort failed", http.StatusBadRequest)
		return
	}
	if req.Field == "" {
		http.Error(w, "error, sort field empty", http.StatusBadRequest)
		return
	}

	handler.store.Dispatch(store.SetSortOptions{Options: store.SortOptions{
		Field:     req.Field,
		Ascending: req.Ascending,
	}})
	pkg.WriteResponse(w, "", "sort updated")
}

func (handler *Handler) HandleLogWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.logWeight")
	defer span.End()

	var req WeightEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("log weight, unmarshal json params: %s", err)
		http.Error(w, "log weight failed", http.StatusBadRequest)
		return
	}

	day, err := time.Parse(time.DateOnly, req.Day)
	if err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}
	if req.Weight <= 0 {
		http.Error(w, "error, invalid weight", http.StatusBadRequest)
		return
	}

	if err := handler.service.LogWeight(ctx, day, req.Weight); err != nil {
		log.Errorf("failed to log weight for %s: %s", req.Day, err)
		http.Error(w, "log weight failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("weight entry logged: [%s] %.2f", req.Day, req.Weight)
	entryJson, err := json.Marshal(EntryResponse{Day: req.Day})
	if err != nil {
		log.Errorf("failed to marshal weight entry response: %s", err)
		http.Error(w, "log weight failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, "application/json", entryJson)
}

func (handler *Handler) HandleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.deleteWeight")
	defer span.End()

	day, err := time.Parse(time.DateOnly, mux.Vars(r)["day"])
	if err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}

	if err := handler.service.DeleteWeight(ctx, day); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete weight entry %s: %s", day.Format(time.DateOnly), err)
		http.Error(w, "delete weight failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, EntryResponse{Day: day.Format(time.DateOnly)})
}

func (handler *Handler) HandleLogCalories(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.logCalories")
	defer span.End()

	var req CalorieEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("log calories, unmarshal json params: %s", err)
		http.Error(w, "log calories failed", http.StatusBadRequest)
		return
	}

	day, err := time.Parse(time.DateOnly, req.Day)
	if err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}
	if req.Intake == nil && req.Expenditure == nil {
		http.Error(w, "error, intake and expenditure both empty", http.StatusBadRequest)
		return
	}

	if err := handler.service.LogCalories(ctx, day, req.Intake, req.Expenditure); err != nil {
		log.Errorf("failed to log calories for %s: %s", req.Day, err)
		http.Error(w, "log calories failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, EntryResponse{Day: req.Day})
}

func (handler *Handler) HandleDeleteCalories(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard.deleteCalories")
	defer span.End()

	day, err := time.Parse(time.DateOnly, mux.Vars(r)["day"])
	if err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}

	if err := handler.service.DeleteCalories(ctx, day); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete calorie entry %s: %s", day.Format(time.DateOnly), err)
		http.Error(w, "delete calories failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, EntryResponse{Day: day.Format(time.DateOnly)})
}

func parseRange(req RangeRequest) (store.DateRange, error) {
	var dateRange store.DateRange
	if req.From != "" {
		from, err := time.Parse(time.DateOnly, req.From)
		if err != nil {
			return store.DateRange{}, errors.New("error, invalid from date")
		}
		dateRange.From = from
	}
	if req.To != "" {
		to, err := time.Parse(time.DateOnly, req.To)
		if err != nil {
			return store.DateRange{}, errors.New("error, invalid to date")
		}
		dateRange.To = to
	}
	if !dateRange.From.IsZero() && !dateRange.To.IsZero() && dateRange.To.Before(dateRange.From) {
		return store.DateRange{}, errors.New("error, range ends before it starts")
	}
	return dateRange, nil
}
