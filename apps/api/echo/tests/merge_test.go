package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

func mergeBody(t *testing.T, sourceYear int, sourceClass string, hostYear int, hostClass string) []byte {
	t.Helper()
	return marshalObj(t, map[string]interface{}{
		"source_year":  sourceYear,
		"source_class": sourceClass,
		"host_year":    hostYear,
		"host_class":   hostClass,
	})
}

func Test_mergeApi_create(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Admin", "admin@test.sch", "s3cr3tpwd", user.RoleAdmin, true)
	parent := e.createUser(t, "Parent", "parent@test.sch", "s3cr3tpwd", user.RoleParent, true)
	adminToken := e.getToken(t, admin)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/merges",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/merges", token: e.getToken(t, parent),
			body:     mergeBody(t, 7, "blue", 7, "green"),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Self merge rejected", method: http.MethodPost, path: "/v1/merges", token: adminToken,
			body:     mergeBody(t, 7, "blue", 7, "blue"),
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: "a class cannot be merged into itself"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.do(t, tt))
		})
	}

	t.Run("Create", func(t *testing.T) {
		tt := httpTest{method: http.MethodPost, path: "/v1/merges", token: adminToken, body: mergeBody(t, 7, "blue", 7, "green")}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var m merge.ClassMerge
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
		assert.Equal(t, core.ClassKey{Year: 7, Class: "blue"}, m.Source)
		assert.Equal(t, core.ClassKey{Year: 7, Class: "green"}, m.Host)
	})

	t.Run("Conflicting source", func(t *testing.T) {
		// even with a different host, the source is already merged
		tt := httpTest{
			method: http.MethodPost, path: "/v1/merges", token: adminToken,
			body:     mergeBody(t, 7, "blue", 8, "red"),
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: "class is already merged into another class"}),
		}
		checkCodeAndData(t, tt, e.do(t, tt))
	})
}

func Test_mergeApi_destroy(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Admin", "admin@test.sch", "s3cr3tpwd", user.RoleAdmin, true)
	token := e.getToken(t, admin)

	m, err := e.merges.Create(merge.NewMerge{
		Source: core.ClassKey{Year: 7, Class: "blue"},
		Host:   core.ClassKey{Year: 7, Class: "green"},
	})
	require.NoError(t, err)

	t.Run("Destroy", func(t *testing.T) {
		tt := httpTest{method: http.MethodDelete, path: "/v1/merges/" + m.ID, token: token, wantCode: http.StatusNoContent}
		checkCodeAndData(t, tt, e.do(t, tt))

		all, err := e.merges.All()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Destroy unknown is a no-op", func(t *testing.T) {
		tt := httpTest{method: http.MethodDelete, path: "/v1/merges/" + m.ID, token: token, wantCode: http.StatusNoContent}
		checkCodeAndData(t, tt, e.do(t, tt))
	})
}

func Test_mergeApi_query(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Admin", "admin@test.sch", "s3cr3tpwd", user.RoleAdmin, true)
	token := e.getToken(t, admin)

	m1, err := e.merges.Create(merge.NewMerge{
		Source: core.ClassKey{Year: 7, Class: "blue"},
		Host:   core.ClassKey{Year: 7, Class: "green"},
	})
	require.NoError(t, err)
	m2, err := e.merges.Create(merge.NewMerge{
		Source: core.ClassKey{Year: 8, Class: "red"},
		Host:   core.ClassKey{Year: 7, Class: "green"},
	})
	require.NoError(t, err)

	tt := httpTest{path: "/v1/merges", token: token, wantData: marshalObj(t, []merge.ClassMerge{m1, m2})}
	checkCodeAndData(t, tt, e.do(t, tt))
}
