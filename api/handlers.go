package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"vibelist-api/domain"
	"vibelist-api/query"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store TaskStore, dir AccountDirectory, auth Authenticator, logger *log.Logger) {
	e.POST("/api/signup", signup(dir, auth))
	e.POST("/api/login", login(dir, auth))
	e.GET("/api/tasks", getTasks(store, auth, logger))
	e.GET("/api/tasks/stream", streamTasks(store, auth))
	e.POST("/api/tasks", createTask(store, auth))
	e.PATCH("/api/tasks/:id", updateTask(store, auth))
	e.POST("/api/tasks/:id/toggle", toggleTask(store, auth))
	e.DELETE("/api/tasks/completed", clearCompleted(store, auth))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth))
	e.GET("/healthz", healthz())
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Account accountPayload `json:"account"`
}

// accountPayload is the public projection of an account; the
// credential digest never leaves the server.
type accountPayload struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type tasksResponse struct {
	Tasks   []domain.Task `json:"tasks"`
	Summary query.Summary `json:"summary"`
}

type clearResponse struct {
	Removed int `json:"removed"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}
}

func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func signup(dir AccountDirectory, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req credentialsRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		account, err := dir.Register(c.Request().Context(), req.Email, req.Name, req.Password)
		if err != nil {
			return writeDomainError(c, err)
		}
		token, err := auth.Issue(account)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to issue session")
		}
		return c.JSON(http.StatusCreated, sessionResponse{Token: token, Account: publicAccount(account)})
	}
}

func login(dir AccountDirectory, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req credentialsRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		account, err := dir.Authenticate(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return writeDomainError(c, err)
		}
		token, err := auth.Issue(account)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to issue session")
		}
		return c.JSON(http.StatusOK, sessionResponse{Token: token, Account: publicAccount(account)})
	}
}

func getTasks(store TaskStore, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		sess, authErr := auth.SessionFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		spec, specErr := query.Spec{
			Status:   c.QueryParam("status"),
			Category: c.QueryParam("category"),
			Priority: c.QueryParam("priority"),
			Search:   c.QueryParam("search"),
			Sort:     c.QueryParam("sort"),
		}.Normalize()
		if specErr != nil {
			metrics.SetErrorStage("invalid_query")
			err = c.String(http.StatusBadRequest, specErr.Error())
			return err
		}

		queryStart := time.Now()
		tasks, loadErr := store.Load(ctx, sess)
		if loadErr != nil {
			metrics.ObserveQuery(time.Since(queryStart))
			metrics.SetErrorStage("storage")
			c.Logger().Error(loadErr)
			err = writeDomainError(c, loadErr)
			return err
		}
		view := query.Apply(tasks, spec)
		summary := query.Summarize(tasks, query.Today(time.Now()))
		metrics.ObserveQuery(time.Since(queryStart))
		metrics.SetTasksReturned(len(view))

		err = c.JSON(http.StatusOK, tasksResponse{Tasks: view, Summary: summary})
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(store TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := auth.SessionFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var draft domain.Draft
		if err := decodeBody(c, &draft); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := store.Create(c.Request().Context(), sess, draft)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func updateTask(store TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := auth.SessionFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch domain.Patch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		task, err := store.Update(c.Request().Context(), sess, c.Param("id"), patch)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func toggleTask(store TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := auth.SessionFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		task, err := store.ToggleDone(c.Request().Context(), sess, c.Param("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := auth.SessionFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := store.Delete(c.Request().Context(), sess, c.Param("id")); err != nil {
			return writeDomainError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func clearCompleted(store TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := auth.SessionFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		removed, err := store.ClearCompleted(c.Request().Context(), sess)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, clearResponse{Removed: removed})
	}
}

func publicAccount(account domain.Account) accountPayload {
	return accountPayload{
		Email:       account.Email,
		DisplayName: account.DisplayName,
		CreatedAt:   account.CreatedAt,
	}
}

// writeDomainError maps core error types to HTTP statuses.
func writeDomainError(c echo.Context, err error) error {
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.String(http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrDuplicateAccount):
		return c.String(http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.String(http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrTaskNotFound):
		return c.String(http.StatusNotFound, err.Error())
	}
	var perr domain.PersistenceError
	if errors.As(err, &perr) {
		c.Logger().Error(perr)
		return c.String(http.StatusBadGateway, "storage unavailable")
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}
