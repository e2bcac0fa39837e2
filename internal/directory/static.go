package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"speech-training-service/internal/models"
)

// StaticDirectory serves a fixed set of clients and specialists, typically
// loaded from a YAML file.
type StaticDirectory struct {
	clients     map[string]Client
	specialists map[string]Specialist
}

type directoryFile struct {
	Clients     []Client     `yaml:"clients"`
	Specialists []Specialist `yaml:"specialists"`
}

// NewStaticDirectory builds a directory from the given entries.
func NewStaticDirectory(clients []Client, specialists []Specialist) *StaticDirectory {
	d := &StaticDirectory{
		clients:     make(map[string]Client, len(clients)),
		specialists: make(map[string]Specialist, len(specialists)),
	}
	for _, c := range clients {
		d.clients[c.ID] = c
	}
	for _, s := range specialists {
		d.specialists[s.ID] = s
	}
	return d
}

// LoadStaticDirectory reads clients and specialists from a YAML file.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}

	var f directoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse directory file: %w", err)
	}
	for i, c := range f.Clients {
		if c.ID == "" {
			return nil, fmt.Errorf("parse directory file: client %d has no id", i)
		}
	}
	for i, s := range f.Specialists {
		if s.ID == "" {
			return nil, fmt.Errorf("parse directory file: specialist %d has no id", i)
		}
	}
	return NewStaticDirectory(f.Clients, f.Specialists), nil
}

// Client implements Directory.
func (d *StaticDirectory) Client(ctx context.Context, id string) (Client, error) {
	c, ok := d.clients[id]
	if !ok {
		return Client{}, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	return c, nil
}

// Specialist implements Directory.
func (d *StaticDirectory) Specialist(ctx context.Context, id string) (Specialist, error) {
	s, ok := d.specialists[id]
	if !ok {
		return Specialist{}, fmt.Errorf("specialist %s: %w", id, models.ErrNotFound)
	}
	return s, nil
}

// Ping implements Directory.
func (d *StaticDirectory) Ping(ctx context.Context) error { return nil }
