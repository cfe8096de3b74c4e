package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// isPath is the format of message paths, a package name followed by the
// operation name.
var isPath = regexp.MustCompile(`^[a-z0-9_]+/[a-z0-9_]+$`).MatchString

// Router dispatches messages to the handler registered for their path.
type Router struct {
	routes map[string]bequest.Handler
}

var _ bequest.Registry = (*Router)(nil)

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]bequest.Handler),
	}
}

// Handle registers the handler for the path of given message.
//
// Panics on an invalid path or a path registered twice, this is a
// programming error.
func (r *Router) Handle(m bequest.Msg, h bequest.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid message path %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Handler returns the handler registered for path.
func (r *Router) Handler(path string) (bequest.Handler, error) {
	h, ok := r.routes[path]
	if !ok {
		return nil, errors.Wrap(ErrNoSuchPath, path)
	}
	return h, nil
}
