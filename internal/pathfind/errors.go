package pathfind

import (
	"errors"
	"fmt"

	"github.com/samdwyer/towerpath/internal/world"
)

// Sentinel errors for graph construction and path search.
var (
	// ErrInvalidGraph indicates a nil or empty graph. Rebuild before retrying.
	ErrInvalidGraph = errors.New("pathfind: invalid graph")
	// ErrInvalidEndpoint indicates a start or finish position absent from the graph.
	ErrInvalidEndpoint = errors.New("pathfind: endpoint not in graph")
	// ErrLayerMismatch indicates the layer and tile property lists differ in length.
	ErrLayerMismatch = errors.New("pathfind: layer and tile property counts differ")
	// ErrInvalidLayer indicates a nil layer or tile properties with invalid costs.
	ErrInvalidLayer = errors.New("pathfind: invalid layer")
)

// Endpoint roles reported by EndpointError.
const (
	RoleStart  = "start"
	RoleFinish = "finish"
)

// EndpointError reports which endpoint of a search is missing from the graph.
type EndpointError struct {
	Role  string
	Point world.Point
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("pathfind: %s %v not in graph", e.Role, e.Point)
}

// Unwrap lets errors.Is match ErrInvalidEndpoint.
func (e *EndpointError) Unwrap() error {
	return ErrInvalidEndpoint
}

// IsStart returns true if the start position was the invalid endpoint.
func (e *EndpointError) IsStart() bool {
	return e.Role == RoleStart
}
