package rbac

import (
	"testing"

	"leavedesk/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/stretchr/testify/assert"
)

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	modelText := `[request_definition]
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

	m, err := model.NewModelFromString(modelText)
	assert.NoError(t, err)

	e, err := casbin.NewEnforcer(m)
	assert.NoError(t, err)

	return e
}

func newTestService(t *testing.T) Service {
	t.Helper()

	svc, err := NewService(newTestEnforcer(t))
	assert.NoError(t, err)
	return svc
}

func TestRBACService_Enforce(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name     string
		role     string
		resource string
		action   string
		allowed  bool
	}{
		{"employee creates own request", RoleEmployee, "leave-request", "create", true},
		{"employee reads own requests", RoleEmployee, "leave-request", "read", true},
		{"employee cancels own request", RoleEmployee, "leave-request", "cancel", true},
		{"employee cannot approve", RoleEmployee, "leave-request", "approve", false},
		{"employee cannot read all", RoleEmployee, "leave-request", "read-all", false},
		{"employee cannot manage leave types", RoleEmployee, "leave-type", "manage", false},
		{"employee cannot provision allocations", RoleEmployee, "allocation", "provision", false},
		{"admin approves", RoleAdmin, "leave-request", "approve", true},
		{"admin reads all", RoleAdmin, "leave-request", "read-all", true},
		{"admin manages leave types", RoleAdmin, "leave-type", "manage", true},
		{"admin provisions allocations", RoleAdmin, "allocation", "provision", true},
		{"admin inherits employee permissions", RoleAdmin, "leave-request", "create", true},
		{"unknown role is denied", "contractor", "leave-request", "read", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := svc.Enforce(domain.EnforceRequest{
				EmployeeID: "emp-1",
				Role:       tc.role,
				Resource:   tc.resource,
				Action:     tc.action,
			})

			assert.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}
