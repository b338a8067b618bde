package discovery

import (
	"fmt"
	"log"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// Options carries everything Consul needs to know about this instance.
type Options struct {
	ConsulAddress  string
	ServiceID      string
	ServiceName    string
	ServiceAddress string
	ServicePort    string
	HealthPath     string
}

type ServiceRegistry struct {
	client *api.Client
	opts   Options
}

func NewServiceRegistry(opts Options) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = opts.ConsulAddress

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %v", err)
	}
	return &ServiceRegistry{client: client, opts: opts}, nil
}

func (sr *ServiceRegistry) Register() error {
	port, _ := strconv.Atoi(sr.opts.ServicePort)

	registration := &api.AgentServiceRegistration{
		ID:      sr.opts.ServiceID,
		Name:    sr.opts.ServiceName,
		Port:    port,
		Address: sr.opts.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s%s", sr.opts.ServiceAddress, sr.opts.ServicePort, sr.opts.HealthPath),
			Interval: "10s",
			Timeout:  "5s",
		},
		Tags: []string{"aptitude", "adaptive", "http"},
		Meta: map[string]string{
			"protocol": "http",
		},
	}

	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service with Consul: %v", err)
	}
	log.Printf("[Discovery] Registered %s (%s) with Consul", sr.opts.ServiceName, sr.opts.ServiceID)
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	if err := sr.client.Agent().ServiceDeregister(sr.opts.ServiceID); err != nil {
		log.Printf("[Discovery] Error deregistering service: %v", err)
		return err
	}
	return nil
}

// FindService looks up healthy instances of a service by name.
func (sr *ServiceRegistry) FindService(serviceName string) ([]*api.ServiceEntry, error) {
	services, _, err := sr.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to find service %s: %v", serviceName, err)
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("no healthy instances of service %s found", serviceName)
	}
	return services, nil
}

// GetServiceAddress returns "host:port" for one healthy instance.
func (sr *ServiceRegistry) GetServiceAddress(serviceName string) (string, error) {
	services, err := sr.FindService(serviceName)
	if err != nil {
		return "", err
	}
	service := services[0].Service
	return fmt.Sprintf("%s:%d", service.Address, service.Port), nil
}
