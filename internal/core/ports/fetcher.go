package ports

import (
	"context"
	"net/http"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Fetcher performs network requests on behalf of intercepted requests.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch sends req to the network and captures the full response.
	//
	// A response with any status, including 4xx and 5xx, is returned without error.
	// An error means no response was obtained (network unreachable, timeout).
	Fetch(ctx context.Context, req *http.Request) (*domain.Response, error)
}
