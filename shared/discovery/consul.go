// Package discovery registers services with a Consul agent.
package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/hashicorp/consul/api"
)

type serviceAgent interface {
	ServiceRegister(service *api.AgentServiceRegistration) error
	ServiceDeregister(serviceID string) error
}

// Registry registers and deregisters service instances in Consul.
type Registry struct {
	agent serviceAgent
}

// Registration describes a single service instance.
type Registration struct {
	Name       string
	Address    string
	Port       int
	HealthPath string
	Tags       []string
}

// NewConsulRegistry creates a registry backed by the Consul agent at addr.
func NewConsulRegistry(addr string) (*Registry, error) {
	cfg := api.DefaultConfig()
	cfg.Address = addr

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &Registry{agent: client.Agent()}, nil
}

// Register adds the instance to Consul with an HTTP health check and returns its instance ID.
func (r *Registry) Register(reg Registration) (string, error) {
	if reg.Name == "" {
		return "", fmt.Errorf("service name is required")
	}

	instanceID := reg.Name + "-" + uuid.NewString()
	healthURL := "http://" + net.JoinHostPort(reg.Address, strconv.Itoa(reg.Port)) + reg.HealthPath

	err := r.agent.ServiceRegister(&api.AgentServiceRegistration{
		ID:      instanceID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           healthURL,
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to register service %s: %w", reg.Name, err)
	}

	return instanceID, nil
}

// Deregister removes the instance from Consul.
func (r *Registry) Deregister(instanceID string) error {
	if err := r.agent.ServiceDeregister(instanceID); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", instanceID, err)
	}

	return nil
}
