package router

import (
	"sync"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/spec"
)

// Singleton builds a table at most once and hands the same table (or the
// same error) to every caller.
type Singleton struct {
	once  sync.Once
	build func() (*Table, error)
	table *Table
	err   error
}

// NewSingleton defers Build(schema, reg, opts...) to the first Table call.
func NewSingleton(schema *spec.Schema, reg controller.Registry, opts ...Option) *Singleton {
	return &Singleton{build: func() (*Table, error) { return Build(schema, reg, opts...) }}
}

// Table returns the built table.
func (s *Singleton) Table() (*Table, error) {
	s.once.Do(func() {
		s.table, s.err = s.build()
		s.build = nil
	})
	return s.table, s.err
}
