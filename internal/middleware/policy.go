package middleware

import (
	"slices"
	"sort"

	"charity-admin/internal/common/models"
)

var (
	adminOnly     = []models.Role{models.RoleAdmin}
	adminAndStaff = []models.Role{models.RoleAdmin, models.RoleStaff}
)

// defaultRules maps every guarded action to the roles allowed to perform it.
// Reads only need a valid token and are not listed.
var defaultRules = map[string][]models.Role{
	"users.list": adminOnly,
	"users.role": adminOnly,
	"audit.list": adminOnly,

	"activity.stream": adminAndStaff,

	"members.create": adminAndStaff,
	"members.update": adminAndStaff,
	"members.photo":  adminAndStaff,
	"members.delete": adminOnly,

	"payments.create":  adminAndStaff,
	"payments.update":  adminAndStaff,
	"payments.receipt": adminAndStaff,
	"payments.delete":  adminOnly,

	"expenses.create":  adminAndStaff,
	"expenses.update":  adminAndStaff,
	"expenses.receipt": adminAndStaff,
	"expenses.delete":  adminOnly,
	"expenses.approve": adminOnly,
	"expenses.reject":  adminOnly,

	"vehicles.create":   adminAndStaff,
	"vehicles.update":   adminAndStaff,
	"vehicles.status":   adminAndStaff,
	"vehicles.document": adminAndStaff,
	"vehicles.delete":   adminOnly,

	"trips.create":   adminAndStaff,
	"trips.update":   adminAndStaff,
	"trips.complete": adminAndStaff,
	"trips.cancel":   adminAndStaff,
	"trips.delete":   adminOnly,

	"maintenance.create":   adminAndStaff,
	"maintenance.update":   adminAndStaff,
	"maintenance.complete": adminAndStaff,
	"maintenance.document": adminAndStaff,
	"maintenance.delete":   adminOnly,

	"reports.financial": adminAndStaff,
	"reports.members":   adminAndStaff,
	"reports.vehicles":  adminAndStaff,
	"reports.export":    adminOnly,

	"cron.manage": adminOnly,
}

// Policy is the single place role checks are decided.
type Policy struct {
	rules map[string][]models.Role
}

func NewPolicy() *Policy {
	return &Policy{rules: defaultRules}
}

func (p *Policy) Has(key string) bool {
	_, ok := p.rules[key]
	return ok
}

// Allows denies unknown keys.
func (p *Policy) Allows(key string, role models.Role) bool {
	return slices.Contains(p.rules[key], role)
}

// Keys lists every rule, sorted.
func (p *Policy) Keys() []string {
	keys := make([]string, 0, len(p.rules))
	for k := range p.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
