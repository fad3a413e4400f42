package replay

import (
	"context"
	"fmt"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/models"
	"github.com/b0stwickvibes/auto-flow-v1/pkg/services"
)

// BrowserService exposes a Driver as the "browser" workflow capability, so
// graphs compiled from captures execute through the standard registry.
type BrowserService struct {
	driver Driver
}

// NewBrowserFactory wraps an already-open driver into a service factory.
func NewBrowserFactory(driver Driver) services.Factory {
	return &browserFactory{driver: driver}
}

type browserFactory struct {
	driver Driver
}

func (*browserFactory) ID() string { return "browser" }

func (f *browserFactory) Create(_ map[string]any) (services.Service, error) {
	return &BrowserService{driver: f.driver}, nil
}

func (*BrowserService) Initialize(_ context.Context) error { return nil }

func (*BrowserService) Fetch(_ context.Context, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (s *BrowserService) Execute(ctx context.Context, operation string, params map[string]any, _ *models.ExecutionContext) (any, error) {
	locator, _ := params["locator"].(string)

	var (
		target string
		err    error
	)

	switch operation {
	case "click":
		target = locator
		err = s.driver.Click(ctx, locator)
	case "fill":
		value, _ := params["value"].(string)
		target = locator
		err = s.driver.Fill(ctx, locator, value)
	case "press":
		key, _ := params["key"].(string)
		target = key
		err = s.driver.Press(ctx, key)
	case "navigate":
		url, _ := params["url"].(string)
		target = url
		err = s.driver.Navigate(ctx, url)
	case "scroll":
		x, _ := toFloat(params["x"])
		y, _ := toFloat(params["y"])
		err = s.driver.Scroll(ctx, x, y)
	default:
		return nil, fmt.Errorf("browser capability has no operation %q", operation)
	}

	if err != nil {
		return nil, err
	}

	return map[string]any{"operation": operation, "target": target}, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
