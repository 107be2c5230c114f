package controller

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotController = errors.New("controller: value implements neither Controller nor Resource")

// Controller serves methods directly, one handler per HTTP method.
type Controller interface {
	Handler(m Method) (HandlerFunc, bool)
}

// Resource serves list and detail actions; the router picks the action from
// the method and whether the route identifies a single object.
type Resource interface {
	Action(a Action) (HandlerFunc, bool)
}

// Methods is a Controller backed by a method table.
type Methods map[Method]HandlerFunc

func (m Methods) Handler(method Method) (HandlerFunc, bool) {
	h, ok := m[method]
	return h, ok && h != nil
}

// Actions is a Resource backed by an action table.
type Actions map[Action]HandlerFunc

func (a Actions) Action(action Action) (HandlerFunc, bool) {
	h, ok := a[action]
	return h, ok && h != nil
}

// Action names a resource operation.
type Action string

const (
	List          Action = "list"
	Create        Action = "create"
	Retrieve      Action = "retrieve"
	Update        Action = "update"
	PartialUpdate Action = "partial_update"
	Destroy       Action = "destroy"
)

var (
	listActions   = map[Method]Action{Get: List, Post: Create}
	detailActions = map[Method]Action{Get: Retrieve, Put: Update, Patch: PartialUpdate, Delete: Destroy}
)

// ActionFor maps a method onto the resource action it dispatches to.
func ActionFor(m Method, detail bool) (Action, bool) {
	if detail {
		a, ok := detailActions[m]
		return a, ok
	}
	a, ok := listActions[m]
	return a, ok
}

// Registry maps controller names to Controller or Resource values. It is
// read-only once handed to the router.
type Registry map[string]any

// Register adds c under name after checking it implements a handler
// interface.
func (r Registry) Register(name string, c any) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("controller: name is required")
	}
	if !isHandler(c) {
		return fmt.Errorf("%w: %s (%T)", ErrNotController, name, c)
	}
	r[name] = c
	return nil
}

// Lookup returns the value registered under name.
func (r Registry) Lookup(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r[name]
	return c, ok
}

func isHandler(c any) bool {
	if c == nil {
		return false
	}
	switch c.(type) {
	case Controller, Resource:
		return true
	}
	return false
}
