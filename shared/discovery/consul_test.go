package discovery

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	registered   []*api.AgentServiceRegistration
	deregistered []string
	err          error
}

func (f *fakeAgent) ServiceRegister(s *api.AgentServiceRegistration) error {
	if f.err != nil {
		return f.err
	}
	f.registered = append(f.registered, s)
	return nil
}

func (f *fakeAgent) ServiceDeregister(id string) error {
	if f.err != nil {
		return f.err
	}
	f.deregistered = append(f.deregistered, id)
	return nil
}

func TestRegistry_RegisterAndDeregister(t *testing.T) {
	agent := &fakeAgent{}
	r := &Registry{agent: agent}

	id, err := r.Register(Registration{Name: "user-service", Address: "10.0.0.5", Port: 8000, HealthPath: "/api/v1/health"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "user-service-"))

	require.Len(t, agent.registered, 1)
	reg := agent.registered[0]
	assert.Equal(t, id, reg.ID)
	assert.Equal(t, "user-service", reg.Name)
	assert.Equal(t, 8000, reg.Port)
	assert.Equal(t, "http://10.0.0.5:8000/api/v1/health", reg.Check.HTTP)

	require.NoError(t, r.Deregister(id))
	assert.Equal(t, []string{id}, agent.deregistered)
}

func TestRegistry_Errors(t *testing.T) {
	r := &Registry{agent: &fakeAgent{err: errors.New("agent unreachable")}}

	_, err := r.Register(Registration{})
	assert.EqualError(t, err, "service name is required")

	_, err = r.Register(Registration{Name: "user-service", Address: "localhost", Port: 8000})
	assert.ErrorContains(t, err, "agent unreachable")

	assert.ErrorContains(t, r.Deregister("x"), "agent unreachable")
}
