package core

import "strings"

// Environment represents the deployment environment of the tutor service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// IsProduction reports whether the environment corresponds to production.
func (e Environment) IsProduction() bool {
	return e == Production
}

// IsDevelopment reports whether verbose console logging should be enabled.
func (e Environment) IsDevelopment() bool {
	return e == Development || e == Testing
}

// ParseEnvironment normalises the provided value into one of the known environments.
// Unknown values fall back to Development so the server can still start.
func ParseEnvironment(v string) Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(v))) {
	case Production:
		return Production
	case Staging:
		return Staging
	case Testing:
		return Testing
	default:
		return Development
	}
}
