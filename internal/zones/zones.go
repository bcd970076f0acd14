package zones

import (
	"encoding/json"
	"fmt"

	"github.com/sjinay21/CrowdShieldAI/internal/models"
)

// Configuration holds the named density zones for a camera. It is fixed at
// construction and never mutated afterwards.
type Configuration struct {
	zones map[string]models.Zone
}

// New creates a zone configuration from the given named rectangles.
func New(zones map[string]models.Zone) *Configuration {
	copied := make(map[string]models.Zone, len(zones))
	for name, z := range zones {
		copied[name] = z
	}
	return &Configuration{zones: copied}
}

// Default returns the reference zone layout for a 1280x720 frame: entrance,
// center and exit. Callers targeting other resolutions must supply their own
// layout; no rescaling is performed.
func Default() *Configuration {
	return New(map[string]models.Zone{
		"entrance": {X: 0, Y: 0, Width: 200, Height: 150},
		"center":   {X: 200, Y: 150, Width: 400, Height: 300},
		"exit":     {X: 600, Y: 0, Width: 200, Height: 150},
	})
}

// Parse builds a configuration from a JSON object mapping zone names to
// rectangles, e.g. {"entrance":{"x":0,"y":0,"w":200,"h":150}}.
func Parse(raw string) (*Configuration, error) {
	var zones map[string]models.Zone
	if err := json.Unmarshal([]byte(raw), &zones); err != nil {
		return nil, fmt.Errorf("invalid zone configuration: %w", err)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("zone configuration is empty")
	}
	return New(zones), nil
}

// Zones returns a copy of the configured zones keyed by name, so callers
// cannot mutate the configuration through it.
func (c *Configuration) Zones() map[string]models.Zone {
	copied := make(map[string]models.Zone, len(c.zones))
	for name, z := range c.zones {
		copied[name] = z
	}
	return copied
}
