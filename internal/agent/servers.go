package agent

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ServerConfig describes one tool server attached to agents. Only the
// description reaches the planner prompt; connection details belong to
// whatever layer actually talks to the server.
type ServerConfig struct {
	// Name is the server's registry key.
	Name string `yaml:"name"`
	// Description is the human-readable summary shown to the planner.
	Description string `yaml:"description"`
}

// ServerRegistry holds server configurations keyed by name. It is
// read-only after construction.
type ServerRegistry struct {
	mu      sync.RWMutex
	servers map[string]ServerConfig
}

// NewServerRegistry creates a registry from the given configs. Duplicate
// names overwrite, last one wins.
func NewServerRegistry(servers []ServerConfig) *ServerRegistry {
	r := &ServerRegistry{servers: make(map[string]ServerConfig, len(servers))}
	for _, s := range servers {
		r.servers[s.Name] = s
	}
	return r
}

// LoadServerRegistry reads server configurations from a YAML file with a
// top-level "servers" list.
func LoadServerRegistry(path string) (*ServerRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read server config %s: %w", path, err)
	}

	var doc struct {
		Servers []ServerConfig `yaml:"servers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse server config %s: %w", path, err)
	}

	return NewServerRegistry(doc.Servers), nil
}

// GetServerConfig returns the config for a named server, or nil if the
// server is unknown.
func (r *ServerRegistry) GetServerConfig(name string) *ServerConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.servers[name]; ok {
		return &cfg
	}
	return nil
}

// Count returns the number of registered servers.
func (r *ServerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}
