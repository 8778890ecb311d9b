package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/shared/logger"
)

// modelText grants (role, action, execute|approve). g is role inheritance and
// g2 routes a maker role to the role that checks its requests.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _
g2 = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == r.obj || p.obj == "*") && r.act == p.act
`

const (
	ActExecute = "execute"
	ActApprove = "approve"
)

type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewEnforcer builds an enforcer whose policy lives in the casbin_rule table.
func NewEnforcer(db *gorm.DB, log logger.Interface) (*Enforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

// NewMemoryEnforcer builds an enforcer with no backing store.
func NewMemoryEnforcer(log logger.Interface) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

func (e *Enforcer) Enforce(role string, action string, act string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(role, action, act)
	if err != nil {
		e.logger.Errorw("permission check failed", "error", err, "role", role, "action", action, "act", act)
		return false, fmt.Errorf("permission check failed: %w", err)
	}

	return allowed, nil
}

func (e *Enforcer) AddPolicy(role string, action string, act string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(role, action, act); err != nil {
		e.logger.Errorw("failed to add policy", "error", err)
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return nil
}

func (e *Enforcer) RemovePolicy(role string, action string, act string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.RemovePolicy(role, action, act); err != nil {
		e.logger.Errorw("failed to remove policy", "error", err)
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return nil
}

// AddRoleInheritance makes role inherit every grant of parent.
func (e *Enforcer) AddRoleInheritance(role string, parent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddNamedGroupingPolicy("g", role, parent); err != nil {
		return fmt.Errorf("failed to add role inheritance: %w", err)
	}
	return nil
}

// SetApproverRole routes requests raised by makerRole to approverRole.
func (e *Enforcer) SetApproverRole(makerRole string, approverRole string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.enforcer.GetFilteredNamedGroupingPolicy("g2", 0, makerRole)
	if err != nil {
		return fmt.Errorf("failed to read approver routing: %w", err)
	}
	for _, rule := range existing {
		if _, err := e.enforcer.RemoveNamedGroupingPolicy("g2", rule); err != nil {
			return fmt.Errorf("failed to replace approver routing: %w", err)
		}
	}
	if _, err := e.enforcer.AddNamedGroupingPolicy("g2", makerRole, approverRole); err != nil {
		return fmt.Errorf("failed to add approver routing: %w", err)
	}
	return nil
}

// ApproverRole returns the role that checks makerRole's requests, or "".
func (e *Enforcer) ApproverRole(makerRole string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules, err := e.enforcer.GetFilteredNamedGroupingPolicy("g2", 0, makerRole)
	if err != nil {
		return "", fmt.Errorf("failed to read approver routing: %w", err)
	}
	if len(rules) == 0 || len(rules[0]) < 2 {
		return "", nil
	}
	return rules[0][1], nil
}

// ImpliedRoles returns role followed by every role it inherits.
func (e *Enforcer) ImpliedRoles(role string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	inherited, err := e.enforcer.GetImplicitRolesForUser(role)
	if err != nil {
		return nil, fmt.Errorf("failed to get implied roles: %w", err)
	}
	return append([]string{role}, inherited...), nil
}

func (e *Enforcer) LoadPolicy() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}

	e.logger.Info("policy reloaded successfully")
	return nil
}
