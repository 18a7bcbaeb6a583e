package tools

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golovatskygroup/sonarqube-mcp/internal/testutil"
)

func TestListProjects(t *testing.T) {
	fake := testutil.NewFakeSonar(t, map[string]testutil.Route{
		pathProjectsSearch: {Body: `{
			"paging":{"pageIndex":1,"pageSize":100,"total":3},
			"components":[
				{"key":"a","name":"Alpha","visibility":"public","qualifier":"TRK"},
				{"key":"b","name":"Beta"},
				"junk",
				{"key":"c","name":"Gamma","visibility":"private"}
			]}`},
	})
	h := newTestHandler(t, fake.URL, "tok")

	res := callTool(t, h, "list_projects", `{}`)
	require.False(t, res.IsError)
	assert.JSONEq(t, `{
		"total": 3,
		"projects": [
			{"key":"a","name":"Alpha","visibility":"public"},
			{"key":"b","name":"Beta","visibility":null},
			{"key":"c","name":"Gamma","visibility":"private"}
		]}`, res.Text())
}

func TestListProjectsEmpty(t *testing.T) {
	fake := testutil.NewFakeSonar(t, map[string]testutil.Route{
		pathProjectsSearch: {Body: `{}`},
	})
	h := newTestHandler(t, fake.URL, "tok")

	assert.JSONEq(t, `{"total":0,"projects":[]}`, callTool(t, h, "list_projects", `{}`).Text())
}

func TestListProjectsErrors(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, "🚫 Access denied: Token doesn't have permission to list projects. Check roles."},
		{http.StatusUnauthorized, "🔐 Unauthorized: Invalid or expired token."},
		{http.StatusInternalServerError, "HTTP error: 500 - Internal Server Error"},
	}
	for _, tc := range cases {
		fake := testutil.NewFakeSonar(t, map[string]testutil.Route{
			pathProjectsSearch: {Status: tc.status, Body: `{}`},
		})
		h := newTestHandler(t, fake.URL, "tok")

		res := callTool(t, h, "list_projects", `{}`)
		assert.True(t, res.IsError)
		assert.Equal(t, tc.want, decodeResult(t, res)["error"])
	}
}

func TestListProjectsConnectionRefused(t *testing.T) {
	h := newTestHandler(t, closedURL(t), "tok")

	msg, _ := decodeResult(t, callTool(t, h, "list_projects", `{}`))["error"].(string)
	assert.Contains(t, msg, "Failed to list projects: connection error")
}

func TestListProjectsNonObjectResponse(t *testing.T) {
	fake := testutil.NewFakeSonar(t, map[string]testutil.Route{
		pathProjectsSearch: {Body: `[{"key":"a"}]`},
	})
	h := newTestHandler(t, fake.URL, "tok")

	res := callTool(t, h, "list_projects", `{}`)
	assert.True(t, res.IsError)
	assert.Equal(t, errNotObject.Error(), decodeResult(t, res)["error"])
}
