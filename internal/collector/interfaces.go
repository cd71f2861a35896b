package collector

import (
	"context"
	"errors"

	"github.com/aleister1102/jscollector/internal/models"
)

var (
	// ErrPersistence wraps failures of the settings backend.
	ErrPersistence = errors.New("persistence failed")
	// ErrScopeCheck wraps failures of the scope predicate.
	ErrScopeCheck = errors.New("scope check failed")
)

// ScopeChecker decides whether a URL belongs to the engagement. An error is
// treated as out of scope.
type ScopeChecker interface {
	IsURLAllowed(rawURL string) (bool, error)
}

// ScopeFunc adapts a plain function to ScopeChecker.
type ScopeFunc func(rawURL string) (bool, error)

func (f ScopeFunc) IsURLAllowed(rawURL string) (bool, error) {
	return f(rawURL)
}

// AllowAll puts every URL in scope.
var AllowAll ScopeChecker = ScopeFunc(func(string) (bool, error) { return true, nil })

// Persister stores the collected set between sessions.
type Persister interface {
	SaveSetting(key, value string) error
	LoadSetting(key string) (string, error)
}

// Observer receives change events from the store's dispatcher goroutine.
type Observer interface {
	Notify(ctx context.Context, event models.ChangeEvent) error
}
