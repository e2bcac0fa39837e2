// Package directory resolves the clients and specialists a training session
// refers to. Account management lives elsewhere; the training service only
// reads from it.
package directory

import "context"

// Client is the learner a session belongs to.
type Client struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Age  int    `yaml:"age"`
}

// Specialist is the therapist supervising a session.
type Specialist struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Directory looks up clients and specialists. Lookups of unknown ids return
// an error wrapping models.ErrNotFound.
type Directory interface {
	Client(ctx context.Context, id string) (Client, error)
	Specialist(ctx context.Context, id string) (Specialist, error)
	Ping(ctx context.Context) error
}
