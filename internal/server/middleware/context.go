// Package middleware carries the per-request application context: the
// clients every handler needs, constructed once at startup.
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/costs"
	"github.com/lantern-kg/lantern/pkg/flow"
	"github.com/lantern-kg/lantern/pkg/flowclass"
	"github.com/lantern-kg/lantern/pkg/graph"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/search"
)

// App bundles the shared clients. Queue may be nil when no broker is
// attached; enqueue attempts then fail softly.
type App struct {
	Flow        flow.Client
	Explorer    *graph.Explorer
	Searcher    *search.Searcher
	FlowClasses *flowclass.Manager
	Costs       *costs.Manager
	Library     *library.Library
	Activity    *activity.Registry
	Queue       *amqp091.Channel
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
