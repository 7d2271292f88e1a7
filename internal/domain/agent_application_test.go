package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplicationAge(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today", ApplicationAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Today", ApplicationAge(now.Add(time.Minute), now))
	assert.Equal(t, "Yesterday", ApplicationAge(now.Add(-25*time.Hour), now))
	assert.Equal(t, "3 days ago", ApplicationAge(now.Add(-72*time.Hour), now))
	assert.Equal(t, "2 days ago", ApplicationAge(now.Add(-71*time.Hour), now))
}

func TestApplicationStatus(t *testing.T) {
	assert.True(t, ApplicationStatusPending.Valid())
	assert.False(t, ApplicationStatus("all").Valid())
	assert.False(t, ApplicationStatusPending.IsTerminal())
	assert.True(t, ApplicationStatusApproved.IsTerminal())
	assert.True(t, ApplicationStatusRejected.IsTerminal())
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "sam", (&User{Username: "sam", Email: "sam@x.com"}).DisplayName())
	assert.Equal(t, "sam@x.com", (&User{Email: "sam@x.com"}).DisplayName())
	var nilUser *User
	assert.Equal(t, "", nilUser.DisplayName())
}
