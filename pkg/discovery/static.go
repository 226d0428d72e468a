package discovery

import "context"

// StaticDiscovery implements Discovery using credentials known up front
type StaticDiscovery struct {
	creds Credentials
}

// NewStaticDiscovery creates a discovery that always resolves to the given port and token
func NewStaticDiscovery(port, token string) *StaticDiscovery {
	return &StaticDiscovery{
		creds: Credentials{Port: port, Token: token},
	}
}

// Resolve returns the configured credentials after validating them
func (s *StaticDiscovery) Resolve(ctx context.Context) (Credentials, error) {
	if err := s.creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return s.creds, nil
}
