package api

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"vibelist-api/query"
)

const streamInterval = 5 * time.Second

// streamTasks pushes the account's collection and summary as
// server-sent events until the client disconnects. EventSource cannot
// set headers, so the session token may arrive as a query parameter.
func streamTasks(store TaskStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			if token := c.QueryParam("token"); token != "" {
				header = "Bearer " + token
			}
		}
		sess, err := auth.SessionFromAuthHeader(header)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
		c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
		c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
		c.Response().Header().Set("X-Accel-Buffering", "no")
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.String(http.StatusInternalServerError, "stream unsupported")
		}

		ctx := c.Request().Context()
		ticker := time.NewTicker(streamInterval)
		defer ticker.Stop()
		for {
			tasks, err := store.Load(ctx, sess)
			if err == nil {
				payload := tasksResponse{
					Tasks:   tasks,
					Summary: query.Summarize(tasks, query.Today(time.Now())),
				}
				data, _ := sonic.Marshal(payload)
				if _, err := c.Response().Write([]byte("data: ")); err != nil {
					return nil
				}
				if _, err := c.Response().Write(data); err != nil {
					return nil
				}
				if _, err := c.Response().Write([]byte("\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}
