package delegation

import "fmt"

// Kind distinguishes how a principal participates in delegation.
type Kind int

const (
	// KindDirect is a first-party caller acting on its own behalf.
	KindDirect Kind = iota + 1
	// KindDelegated is a principal acting under a delegation token.
	KindDelegated
	// KindService is an automated service identity.
	KindService
	// KindSystem is the runtime itself.
	KindSystem
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindDelegated:
		return "delegated"
	case KindService:
		return "service"
	case KindSystem:
		return "system"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Principal is an (agent, tenant, kind) identity triple. It is a value
// type: compared by equality and never mutated after construction.
type Principal struct {
	Agent  string
	Tenant string
	Kind   Kind
}

// NewPrincipal creates a direct principal.
func NewPrincipal(agent, tenant string) Principal {
	return Principal{Agent: agent, Tenant: tenant, Kind: KindDirect}
}

// DelegatedPrincipal creates a principal that acts under delegated rights.
func DelegatedPrincipal(agent, tenant string) Principal {
	return Principal{Agent: agent, Tenant: tenant, Kind: KindDelegated}
}

// ServicePrincipal creates an automated service identity.
func ServicePrincipal(agent, tenant string) Principal {
	return Principal{Agent: agent, Tenant: tenant, Kind: KindService}
}

// SystemPrincipal creates the runtime's own identity for a tenant.
func SystemPrincipal(tenant string) Principal {
	return Principal{Agent: "system", Tenant: tenant, Kind: KindSystem}
}

// String returns "agent@tenant (kind)" for logs and errors.
func (p Principal) String() string {
	return fmt.Sprintf("%s@%s (%s)", p.Agent, p.Tenant, p.Kind)
}

// IsZero reports whether the principal is the zero value.
func (p Principal) IsZero() bool {
	return p.Agent == "" && p.Tenant == "" && p.Kind == 0
}
