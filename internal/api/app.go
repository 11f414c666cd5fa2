package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/timada-org/taskflow/internal/core"
	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/client"
	"github.com/timada-org/taskflow/pkg/todo"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after request body")

type Publisher interface {
	Send(ctx context.Context, event *client.Event) error
}

type Options struct {
	// Backend is nil when no backend is configured; handlers then answer
	// with BackendUnavailable.
	Backend   store.Backend
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

type App struct {
	config    *core.Config
	backend   store.Backend
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
	server    *http.Server
}

func New(config *core.Config, options Options) *App {
	app := &App{
		config:    config,
		backend:   options.Backend,
		publisher: options.Publisher,
		logger:    options.Logger,
		now:       options.Now,
	}

	if app.logger == nil {
		app.logger = slog.Default()
	}

	if app.now == nil {
		app.now = time.Now
	}

	app.server = &http.Server{
		Addr:         config.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	return app
}

func (app *App) Handler() http.Handler {
	router := httprouter.New()
	router.POST("/api/todos", app.create())
	router.GET("/api/todos", app.list())
	router.GET("/healthz", app.health())

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.writeJSON(w, http.StatusNotFound, &errorResponse{Error: msgNotFound})
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.writeJSON(w, http.StatusMethodNotAllowed, &errorResponse{Error: msgMethodNotAllowed})
	})

	return app.requestID(app.accessLog(app.recoverer(router)))
}

// Listen blocks until the server stops. A stop caused by Shutdown is not an
// error.
func (app *App) Listen() error {
	app.logger.Info("listening", "addr", app.server.Addr, "backend", app.backend != nil)

	if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (app *App) Shutdown(ctx context.Context) error {
	return app.server.Shutdown(ctx)
}

// Close releases the backend and the publisher.
func (app *App) Close() {
	if app.backend != nil {
		if err := app.backend.Close(); err != nil {
			app.logger.Warn("closing backend", "err", err)
		}
	}

	if c, ok := app.publisher.(interface{ Close() }); ok {
		c.Close()
	}
}

type CreateInput struct {
	Title      string `json:"title"`
	Completed  *bool  `json:"completed"`
	OwnerEmail string `json:"owner_email"`
}

type CreateResponse struct {
	Message string    `json:"message"`
	Todo    todo.Todo `json:"todo"`
}

type ListResponse struct {
	Message string      `json:"message"`
	Todos   []todo.Todo `json:"todos"`
	Count   int         `json:"count"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (app *App) create() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

		var input CreateInput
		if err := decoder.Decode(&input); err != nil {
			app.fail(w, r, malformed(err))
			return
		}

		if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
			app.fail(w, r, malformed(errTrailingData))
			return
		}

		if err := todo.ValidateCreate(input.Title, input.OwnerEmail); err != nil {
			app.fail(w, r, invalid(err, msgRequiredFields))
			return
		}

		if app.backend == nil {
			app.fail(w, r, unavailable())
			return
		}

		completed := input.Completed != nil && *input.Completed
		row := todo.New(input.Title, input.OwnerEmail, completed, app.now())

		rows, err := app.backend.Insert(r.Context(), row)
		if err != nil {
			app.fail(w, r, backendError(msgCreateFailed, err))
			return
		}

		if len(rows) == 0 {
			app.fail(w, r, &Error{Kind: BackendError, Message: msgNoData})
			return
		}

		created := rows[0]
		app.publish(r, created)

		app.writeJSON(w, http.StatusCreated, &CreateResponse{
			Message: msgCreated,
			Todo:    created,
		})
	}
}

func (app *App) list() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		email := r.URL.Query().Get("owner_email")

		if email == "" {
			app.fail(w, r, &Error{Kind: InvalidInput, Message: msgRequiredParam})
			return
		}

		if !todo.ValidateEmail(email) {
			app.fail(w, r, &Error{Kind: InvalidInput, Message: msgInvalidEmail})
			return
		}

		if app.backend == nil {
			app.fail(w, r, unavailable())
			return
		}

		query := store.Where(todo.ColumnOwnerEmail, email).
			OrderBy(todo.ColumnCreatedAt, store.Descending)

		todos, err := app.backend.Select(r.Context(), query)
		if err != nil {
			app.fail(w, r, backendError(msgFetchFailed, err))
			return
		}

		if todos == nil {
			todos = []todo.Todo{}
		}

		app.writeJSON(w, http.StatusOK, &ListResponse{
			Message: msgRetrieved,
			Todos:   todos,
			Count:   len(todos),
		})
	}
}

func (app *App) health() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		app.writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"backend": app.backend != nil,
		})
	}
}

// publish announces a created todo. The todo already exists, so a broker
// failure is logged and the request still succeeds.
func (app *App) publish(r *http.Request, created todo.Todo) {
	if app.publisher == nil {
		return
	}

	err := app.publisher.Send(r.Context(), &client.Event{
		OwnerEmail: created.OwnerEmail,
		Name:       client.EventCreated,
		Data:       created,
	})
	if err != nil {
		app.requestLogger(r).Warn("publish event", "id", created.ID, "err", err)
	}
}

func (app *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	aerr := asError(err)

	logger := app.requestLogger(r)
	if aerr.Kind.Status() >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", aerr.Kind.String(), "err", aerr)
	} else {
		logger.Debug("request rejected", "kind", aerr.Kind.String(), "err", aerr)
	}

	app.writeJSON(w, aerr.Kind.Status(), &errorResponse{
		Error:   aerr.Message,
		Details: aerr.Details,
	})
}

func (app *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.Warn("write response", "err", err)
	}
}
