package auth

import (
	"testing"

	"github.com/apvaldes/healthcenter/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanManage(t *testing.T) {
	assert.False(t, CanManage(nil))
	assert.False(t, CanManage(&models.User{Role: models.RoleMember}))
	assert.False(t, CanManage(&models.User{Role: "something-else"}))
	assert.True(t, CanManage(&models.User{Role: models.RoleStaff}))
	assert.True(t, CanManage(&models.User{Role: models.RoleAdmin}))
}
