package certificate

import "fmt"

// Decision is the verdict of an external policy engine. The pipeline
// consumes decisions; it never produces them.
type Decision int

const (
	// DecisionAllow permits the invocation as claimed.
	DecisionAllow Decision = iota + 1
	// DecisionDeny blocks the invocation; Reason says why.
	DecisionDeny
	// DecisionRewrite would alter the invocation before dispatch. The
	// pipeline treats it as a failure: a rewritten invocation must be
	// re-submitted and re-certified from scratch.
	DecisionRewrite
	// DecisionRedirect would route the invocation elsewhere. Treated
	// like Rewrite.
	DecisionRedirect
)

// String returns the wire name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	case DecisionRewrite:
		return "rewrite"
	case DecisionRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// PolicyResult is one policy engine's verdict on an invocation.
type PolicyResult struct {
	Decision Decision
	Reason   string
}

// Allow is a shorthand PolicyResult for permitted invocations.
func Allow() PolicyResult {
	return PolicyResult{Decision: DecisionAllow}
}

// Deny is a shorthand PolicyResult carrying a denial reason.
func Deny(reason string) PolicyResult {
	return PolicyResult{Decision: DecisionDeny, Reason: reason}
}
