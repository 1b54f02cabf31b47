package auth

import (
	"github.com/apvaldes/healthcenter/internal/models"
)

// CanManage is the single authorization predicate for CMS write operations:
// staff and admins may create, update and delete content; everyone else is
// read-only. Every CRUD handler consults this one function rather than
// encoding role checks inline.
func CanManage(actor *models.User) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RoleStaff || actor.Role == models.RoleAdmin
}
