package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Osdague92/fullstack-docker/domain"
	"github.com/Osdague92/fullstack-docker/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type repo = domain.Repository
type item = domain.Item

var (
	ErrInternal = domain.ErrInternal
	ErrBadInput = domain.ErrBadInput
	ErrNotFound = domain.ErrNotFound
)

// BasePath путь ресурса items.
const BasePath = "/api/items"

const requestIDHeader = "X-Request-ID"

// API приложения.
type API struct {
	router     *mux.Router
	repo       repo
	logger     zerolog.Logger
	validate   *validator.Validate
	metrics    *metrics.Metrics
	corsOrigin string
}

// Option настраивает API.
type Option func(*API)

// WithMetrics включает сбор метрик и маршрут /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(api *API) { api.metrics = m }
}

// WithCORSOrigin задаёт значение Access-Control-Allow-Origin.
func WithCORSOrigin(origin string) Option {
	return func(api *API) { api.corsOrigin = origin }
}

// Возвращает новый объект *API
func New(repo repo, logger zerolog.Logger, opts ...Option) *API {
	api := API{
		router:     mux.NewRouter(),
		repo:       repo,
		logger:     logger.With().Str("component", "api").Logger(),
		validate:   validator.New(),
		corsOrigin: "*",
	}
	for _, opt := range opts {
		opt(&api)
	}
	api.endpoints()

	return &api
}

// Router возвращает маршрутизатор запросов.
func (api *API) Router() *mux.Router {
	return api.router
}

func (api *API) endpoints() {
	api.router.Use(
		api.logRequestMiddleware,
		api.closerMiddleware,
		api.headersMiddleware,
	)
	if api.metrics != nil {
		api.router.Use(api.metrics.Middleware)
		api.router.Handle("/metrics", api.metrics.Handler()).Methods(http.MethodGet)
	}
	api.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		api.WriteJSONError(w, errors.New("route not found"), http.StatusNotFound)
	})
	// middleware для этих ответов не вызываются, заголовки ставим сами
	api.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		api.WriteJSONError(w, fmt.Errorf("method %s not allowed", r.Method), http.StatusMethodNotAllowed)
	})

	api.router.HandleFunc("/healthz", api.healthHandler()).Methods(http.MethodGet)

	items := api.router.PathPrefix(BasePath).Subrouter()
	for _, root := range []string{"", "/"} {
		items.HandleFunc(root, api.itemsHandlerList()).Methods(http.MethodGet, http.MethodOptions)
		items.HandleFunc(root, api.itemsHandlerCreate()).Methods(http.MethodPost, http.MethodOptions)
	}
	items.HandleFunc("/{id}", api.itemsHandlerGet()).Methods(http.MethodGet, http.MethodOptions)
	items.HandleFunc("/{id}", api.itemsHandlerReplace()).Methods(http.MethodPut, http.MethodOptions)
	items.HandleFunc("/{id}", api.itemsHandlerDelete()).Methods(http.MethodDelete, http.MethodOptions)
}

// headersMiddleware задает обычные заголовки и CORS для всех ответов,
// на preflight отвечает сразу.
func (api *API) headersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", api.corsOrigin)
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// closerMiddleware считывает и закрывает тело запроса
// для повторного использования TCP-соединения.
func (api *API) closerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	})
}

// logRequestMiddleware присваивает запросу id, кладет логгер
// в контекст и логирует результат.
func (api *API) logRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := api.logger.With().Str("request_id", id).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Interface("vars", mux.Vars(r)).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (api *API) WriteJSONError(w http.ResponseWriter, err error, code int) {
	w.WriteHeader(code)
	msg := map[string]string{"error": err.Error()}
	_ = json.NewEncoder(w).Encode(&msg)
}

func (api *API) WriteJSON(w http.ResponseWriter, data any, code int) {
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// storeFailed логирует ошибку хранилища и отвечает 500
// без подробностей.
func (api *API) storeFailed(w http.ResponseWriter, r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("store call failed")
	api.WriteJSONError(w, fmt.Errorf("%w: failed to %s", ErrInternal, op), http.StatusInternalServerError)
}

// record учитывает исход вызова хранилища в метриках.
func (api *API) record(op string, err error) {
	if api.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	api.metrics.RecordStoreOp(op, outcome)
}

// decodeInput разбирает тело запроса (JSON или форму) и проверяет,
// что оба поля заданы.
func (api *API) decodeInput(r *http.Request) (domain.ItemInput, error) {
	var in domain.ItemInput

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: bad form in request body", ErrBadInput)
		}
		in.Name = r.PostForm.Get("name")
		in.Description = r.PostForm.Get("description")
	} else {
		err := json.NewDecoder(r.Body).Decode(&in)
		if err != nil && !errors.Is(err, io.EOF) {
			return in, fmt.Errorf("%w: bad JSON string in request body", ErrBadInput)
		}
	}

	if err := api.validate.Struct(in); err != nil {
		return in, fmt.Errorf("%w: name and description are required", ErrBadInput)
	}
	return in, nil
}

// healthHandler проверяет доступность хранилища.
func (api *API) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := api.repo.Ping(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store ping failed")
			api.WriteJSONError(w, errors.New("store unavailable"), http.StatusServiceUnavailable)
			return
		}
		api.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

// itemsHandlerList возвращает список сущностей из БД.
func (api *API) itemsHandlerList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		items, err := api.repo.Items(r.Context())
		api.record("list", err)
		if err != nil {
			api.storeFailed(w, r, "list items", err)
			return
		}
		if items == nil {
			items = []item{}
		}
		api.WriteJSON(w, items, http.StatusOK)
	}
}

// itemsHandlerCreate добавляет сущность в БД.
func (api *API) itemsHandlerCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		in, err := api.decodeInput(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		created, err := api.repo.AddItem(r.Context(), in)
		api.record("create", err)
		if err != nil {
			api.storeFailed(w, r, "create item", err)
			return
		}

		api.WriteJSON(w, created, http.StatusCreated)
	}
}

// itemsHandlerGet получает сущность из БД по id.
func (api *API) itemsHandlerGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		it, err := api.repo.Item(r.Context(), id)
		api.record("get", err)
		if errors.Is(err, ErrNotFound) {
			api.WriteJSONError(w, ErrNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			api.storeFailed(w, r, "get item", err)
			return
		}

		api.WriteJSON(w, it, http.StatusOK)
	}
}

// itemsHandlerReplace перезаписывает оба поля сущности в БД.
func (api *API) itemsHandlerReplace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		in, err := api.decodeInput(r)
		if err != nil {
			api.WriteJSONError(w, err, http.StatusBadRequest)
			return
		}

		res, err := api.repo.ReplaceItem(r.Context(), id, in)
		if err == nil && !res.Matched {
			err = ErrNotFound
		}
		api.record("replace", err)
		if errors.Is(err, ErrNotFound) {
			api.WriteJSONError(w, ErrNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			api.storeFailed(w, r, "update item", err)
			return
		}

		msg := domain.MsgItemUpdated
		if !res.Modified {
			msg = domain.MsgItemNoChange
		}
		api.WriteJSON(w, domain.Message{Message: msg}, http.StatusOK)
	}
}

// itemsHandlerDelete удаляет сущность из БД.
func (api *API) itemsHandlerDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		err := api.repo.DeleteItem(r.Context(), id)
		api.record("delete", err)
		if errors.Is(err, ErrNotFound) {
			api.WriteJSONError(w, ErrNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			api.storeFailed(w, r, "delete item", err)
			return
		}

		api.WriteJSON(w, domain.Message{Message: domain.MsgItemDeleted}, http.StatusOK)
	}
}
