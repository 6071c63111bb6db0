package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

const (
	objectOrders    = "orders"
	actionAccessAny = "access_any"
)

// Authorizer decides whether an actor may act on an order it does not own.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if _, err := e.AddPolicy(RoleAdmin, objectOrders, actionAccessAny); err != nil {
		return nil, fmt.Errorf("add policy: %w", err)
	}
	return &Authorizer{enforcer: e}, nil
}

func (a *Authorizer) CanAccessOrder(actor Actor, ownerID string) bool {
	if actor.UserID != "" && actor.UserID == ownerID {
		return true
	}
	if a == nil || a.enforcer == nil || actor.Role == "" {
		return false
	}
	ok, err := a.enforcer.Enforce(actor.Role, objectOrders, actionAccessAny)
	return err == nil && ok
}
