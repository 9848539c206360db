package services

import (
	"fmt"
	"log"
	"sync"

	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/utils"
	authorizer "github.com/localnerve/authorizer-go"
)

// SessionUser is the authenticated caller of an owner-scoped endpoint
type SessionUser struct {
	ID    string
	Email string
}

// Authorizer validates session cookies against the Authorizer service.
// The SDK client is created lazily on first use.
type Authorizer struct {
	cfg *config.Config

	once    sync.Once
	client  *authorizer.AuthorizerClient
	initErr error
}

// NewAuthorizer returns an Authorizer for the configured service
func NewAuthorizer(cfg *config.Config) *Authorizer {
	return &Authorizer{cfg: cfg}
}

func (a *Authorizer) init() error {
	a.once.Do(func() {
		// Ping the Authorizer service first
		if err := utils.PingAuthorizer(a.cfg.AuthzURL); err != nil {
			a.initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		log.Printf("Initializing Authorizer: authorizerURL=%s, clientID=%s", a.cfg.AuthzURL, a.cfg.AuthzClientID)

		client, err := authorizer.NewAuthorizerClient(a.cfg.AuthzClientID, a.cfg.AuthzURL, a.cfg.AuthzURL, nil)
		if err != nil {
			a.initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
		a.client = client
	})
	return a.initErr
}

// ValidateSession validates a session cookie for the given roles
func (a *Authorizer) ValidateSession(cookie string, roles []string) (*SessionUser, error) {
	if err := a.init(); err != nil {
		return nil, err
	}

	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := a.client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, fmt.Errorf("session is not valid")
	}

	return &SessionUser{ID: res.User.ID, Email: res.User.Email}, nil
}
