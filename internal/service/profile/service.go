package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ecakir/sofra-cli/internal/config"
	"github.com/ecakir/sofra-cli/internal/domain"
)

var (
	// ErrDefaultProfileNotFound indicates config has no default profile.
	ErrDefaultProfileNotFound = errors.New("no default profile found")
	// ErrProfileNotFound indicates requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)

// Loader provides config payloads.
type Loader interface {
	Load(ctx context.Context) (domain.Config, error)
}

// Finder resolves profile selections.
type Finder interface {
	Find(ctx context.Context, profileName string) (domain.Profile, error)
}

// Resolver resolves profile names.
type Resolver struct {
	loader Loader
}

// NewResolver creates a profile resolver.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader}
}

// Find resolves explicit profile names or defaults.
func (r *Resolver) Find(ctx context.Context, profileName string) (domain.Profile, error) {
	cfg, err := r.loader.Load(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	if strings.TrimSpace(profileName) == "" {
		for _, profile := range cfg.Profiles {
			if profile.IsDefault {
				return profile, nil
			}
		}
		return domain.Profile{}, ErrDefaultProfileNotFound
	}

	want := strings.ToLower(strings.TrimSpace(profileName))
	for _, profile := range cfg.Profiles {
		if strings.ToLower(profile.Name) == want {
			return profile, nil
		}
	}
	available := make([]string, 0, len(cfg.Profiles))
	for _, profile := range cfg.Profiles {
		available = append(available, profile.Name)
	}
	return domain.Profile{}, fmt.Errorf("%w: %s (available: %s)", ErrProfileNotFound, want, strings.Join(available, ", "))
}

// Tokens adapts a profile to a credential provider: it supplies the bearer
// token of one resolved profile on demand. A missing config or profile
// reads as "no credential", not as an error.
type Tokens struct {
	resolver    Finder
	profileName string
	override    string
}

// NewTokens creates a credential provider for one profile selection. A
// non-empty override wins over the stored profile token.
func NewTokens(resolver Finder, profileName string, override string) *Tokens {
	return &Tokens{resolver: resolver, profileName: profileName, override: override}
}

// Token returns the current bearer credential, or empty when absent.
func (t *Tokens) Token(ctx context.Context) (string, error) {
	if token := strings.TrimSpace(t.override); token != "" {
		return token, nil
	}
	if t.resolver == nil {
		return "", nil
	}
	profile, err := t.resolver.Find(ctx, t.profileName)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) ||
			errors.Is(err, ErrDefaultProfileNotFound) ||
			errors.Is(err, ErrProfileNotFound) {
			return "", nil
		}
		return "", err
	}
	return profile.Token, nil
}
