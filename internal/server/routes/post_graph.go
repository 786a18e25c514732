package routes

import (
	"net/http"

	"github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/pkg/graph"
	"github.com/lantern-kg/lantern/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BuildSubgraphHandler fetches the neighbourhood of one identifier and
// merges it into the graph carried by the request. The UI owns the
// graph; the server never keeps it between calls.
func BuildSubgraphHandler(c echo.Context) error {
	type buildSubgraphRequest struct {
		Focal      string          `json:"focal" validate:"required"`
		Collection string          `json:"collection"`
		Graph      *graph.Subgraph `json:"graph"`
	}

	type buildSubgraphResponse struct {
		Message string          `json:"message"`
		Graph   *graph.Subgraph `json:"graph,omitempty"`
	}

	data := new(buildSubgraphRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildSubgraphResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, buildSubgraphResponse{
			Message: "Invalid request body",
		})
	}

	base := graph.NewSubgraph()
	if data.Graph != nil {
		base = *data.Graph
	}

	explorer := c.(*middleware.AppContext).App.Explorer
	ctx := c.Request().Context()

	built, err := explorer.BuildSubgraph(ctx, data.Focal, base, data.Collection)
	if err != nil {
		logger.Error("Failed to build subgraph", "focal", data.Focal, "err", err)
		return c.JSON(http.StatusInternalServerError, buildSubgraphResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, buildSubgraphResponse{
		Message: "Subgraph built successfully",
		Graph:   &built,
	})
}

// ExpandSubgraphHandler follows one relationship from a node and merges
// the new neighbours into the carried graph.
func ExpandSubgraphHandler(c echo.Context) error {
	type expandSubgraphRequest struct {
		Node         string          `json:"node" validate:"required"`
		Relationship string          `json:"relationship" validate:"required"`
		Direction    string          `json:"direction" validate:"required"`
		Collection   string          `json:"collection"`
		Graph        *graph.Subgraph `json:"graph"`
	}

	type expandSubgraphResponse struct {
		Message string          `json:"message"`
		Graph   *graph.Subgraph `json:"graph,omitempty"`
	}

	data := new(expandSubgraphRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, expandSubgraphResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, expandSubgraphResponse{
			Message: "Invalid request body",
		})
	}

	direction, err := graph.ParseDirection(data.Direction)
	if err != nil {
		return c.JSON(http.StatusBadRequest, expandSubgraphResponse{
			Message: "Invalid direction",
		})
	}

	current := graph.NewSubgraph()
	if data.Graph != nil {
		current = *data.Graph
	}

	explorer := c.(*middleware.AppContext).App.Explorer
	ctx := c.Request().Context()

	expanded, err := explorer.ExpandByRelationship(ctx, data.Node, data.Relationship, direction, current, data.Collection)
	if err != nil {
		logger.Error("Failed to expand subgraph", "node", data.Node, "relationship", data.Relationship, "err", err)
		return c.JSON(http.StatusInternalServerError, expandSubgraphResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, expandSubgraphResponse{
		Message: "Subgraph expanded successfully",
		Graph:   &expanded,
	})
}
