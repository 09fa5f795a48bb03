package service

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderAutherResolvesHeaders(t *testing.T) {
	auther := NewHeaderAuther()

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("X-Dashboard-Subject", "user-42")
	r.Header.Set("X-Dashboard-Permissions", "dashboard:view, metrics:view ,alerts:receive")

	id, err := auther.Resolve(r)
	require.NoError(t, err)

	assert.Equal(t, "user-42", id.Subject)
	assert.Equal(t, []string{"dashboard:view", "metrics:view", "alerts:receive"}, id.Permissions)
}

func TestHeaderAutherFallsBackToQuery(t *testing.T) {
	auther := NewHeaderAuther()

	r := httptest.NewRequest("GET", "/ws?subject=user-7&permissions=dashboard:view", nil)

	id, err := auther.Resolve(r)
	require.NoError(t, err)

	assert.Equal(t, "user-7", id.Subject)
	assert.Equal(t, []string{"dashboard:view"}, id.Permissions)
}

func TestHeaderAutherRequiresSubject(t *testing.T) {
	auther := NewHeaderAuther()

	_, err := auther.Resolve(httptest.NewRequest("GET", "/ws", nil))
	assert.ErrorContains(t, err, "missing subject")
}

func TestHeaderAutherEmptyPermissions(t *testing.T) {
	auther := NewHeaderAuther()

	r := httptest.NewRequest("GET", "/ws?subject=user-7", nil)

	id, err := auther.Resolve(r)
	require.NoError(t, err)
	assert.Empty(t, id.Permissions)
}
