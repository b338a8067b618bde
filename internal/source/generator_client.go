package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"aptitude-service/pkg/discovery"
)

// GeneratorClient asks the LLM question-generation service to write fresh
// questions into the bank. The upstream address is resolved through Consul
// when a registry is available, with a configured URL as fallback.
type GeneratorClient struct {
	serviceName string
	baseURL     string
	registry    *discovery.ServiceRegistry
	httpClient  *http.Client
}

func NewGeneratorClient(serviceName, baseURL string, registry *discovery.ServiceRegistry) *GeneratorClient {
	return &GeneratorClient{
		serviceName: serviceName,
		baseURL:     baseURL,
		registry:    registry,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	GradeLevel int    `json:"grade_level,omitempty"`
	Difficulty int    `json:"difficulty"`
	Subtag     string `json:"subtag,omitempty"`
	Phase      string `json:"phase,omitempty"`
	Count      int    `json:"count"`
}

// RequestBatch asks the generator for count new questions matching the
// criteria. The generator persists them into the shared bank itself; this
// call only reports whether generation was accepted.
func (c *GeneratorClient) RequestBatch(ctx context.Context, criteria Criteria, count int) error {
	base := c.resolveBaseURL()
	if base == "" {
		return fmt.Errorf("question generator address not configured")
	}

	body, err := json.Marshal(generateRequest{
		GradeLevel: criteria.GradeLevel,
		Difficulty: criteria.Difficulty,
		Subtag:     criteria.Subtag,
		Phase:      criteria.Phase,
		Count:      count,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/internal/questions/generate", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("question generator returned %d", resp.StatusCode)
	}
	return nil
}

func (c *GeneratorClient) resolveBaseURL() string {
	if c.registry != nil && c.serviceName != "" {
		if addr, err := c.registry.GetServiceAddress(c.serviceName); err == nil {
			return "http://" + addr
		} else {
			log.Printf("[GeneratorClient] consul lookup for %s failed: %v, using fallback URL", c.serviceName, err)
		}
	}
	return c.baseURL
}
