package models

// Action identifies which worker operation a request path selected.
type Action int

const (
	// ActionRoute correlates all locations and forwards the request downstream.
	ActionRoute Action = iota
	// ActionViaRoute is Route with OSRM-compatible CSV waypoint input.
	ActionViaRoute
	// ActionLocate snaps locations and answers the client directly.
	ActionLocate
	// ActionNearest is recognized but not handled yet.
	ActionNearest
	// ActionVersion is recognized but not handled yet.
	ActionVersion
)

// String returns the request path the action is dispatched from.
func (a Action) String() string {
	switch a {
	case ActionRoute:
		return "/route"
	case ActionViaRoute:
		return "/viaroute"
	case ActionLocate:
		return "/locate"
	case ActionNearest:
		return "/nearest"
	case ActionVersion:
		return "/version"
	default:
		return "unknown"
	}
}
