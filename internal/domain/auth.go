package domain

// AuthContext is the request-scoped identity attached by the auth resolver.
// It is a closed union: the only implementations are AgentAuth and
// ObserverAuth, and call sites type-switch on the concrete variant instead
// of probing a shared role field.
type AuthContext interface {
	// SessionToken returns the bearer token the request authenticated with.
	SessionToken() string

	sealedAuthContext()
}

// AgentAuth is the auth context for a request made by an agent.
type AgentAuth struct {
	AgentID string
	Token   string
}

func (a AgentAuth) SessionToken() string { return a.Token }
func (AgentAuth) sealedAuthContext()     {}

// ObserverAuth is the auth context for a request made by an observer.
type ObserverAuth struct {
	ObserverID string
	Token      string
}

func (o ObserverAuth) SessionToken() string { return o.Token }
func (ObserverAuth) sealedAuthContext()     {}
