package tests

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopptechy/student-pickup-live-2025/core/student"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
	emailsvc "github.com/Kopptechy/student-pickup-live-2025/services/email"
)

func Test_userApi_login(t *testing.T) {
	e := setup(t)
	e.createUser(t, "Parent", "parent@test.sch", "s3cr3tpwd", user.RoleParent, true)
	e.createUser(t, "Pending", "pending@test.sch", "s3cr3tpwd", user.RoleParent, false)

	tests := []httpTest{
		{
			name: "Bad credentials", method: http.MethodPost, path: "/v1/users/login",
			body:     marshalObj(t, map[string]string{"email": "parent@test.sch", "password": "wrong"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marshalObj(t, map[string]string{"email": "who@test.sch", "password": "s3cr3tpwd"}),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Unapproved account", method: http.MethodPost, path: "/v1/users/login",
			body:     marshalObj(t, map[string]string{"email": "pending@test.sch", "password": "s3cr3tpwd"}),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "account pending approval"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.do(t, tt))
		})
	}

	t.Run("Login", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/login",
			body: marshalObj(t, map[string]string{"email": "Parent@Test.sch ", "password": "s3cr3tpwd"}),
		}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		// the token works against an authed endpoint
		me := httpTest{path: "/v1/users/me", token: resp.Token}
		mrec := e.do(t, me)
		assert.Equal(t, http.StatusOK, mrec.Code, mrec.Body.String())
	})
}

func Test_userApi_signupAndApprove(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Admin", "admin@test.sch", "s3cr3tpwd", user.RoleAdmin, true)
	adminToken := e.getToken(t, admin)

	fam, err := e.families.Create("The Lovelaces")
	require.NoError(t, err)

	t.Run("Bad family code", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/signup",
			body: marshalObj(t, map[string]string{
				"name": "Ada", "email": "ada@test.sch", "password": "s3cr3tpwd", "familyCode": "000000",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"familyCode": "invalid family code"}),
		}
		checkCodeAndData(t, tt, e.do(t, tt))
	})

	var signedUp user.User
	t.Run("Signup", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/signup",
			body: marshalObj(t, map[string]string{
				"name": "Ada", "email": "ada@test.sch", "password": "s3cr3tpwd", "familyCode": fam.Code,
			}),
		}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signedUp))
		assert.False(t, signedUp.IsApproved)
		assert.Equal(t, fam.ID, signedUp.FamilyID)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/signup",
			body: marshalObj(t, map[string]string{
				"name": "Ada Again", "email": "ada@test.sch", "password": "s3cr3tpwd", "familyCode": fam.Code,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "a user with this email already exists"}),
		}
		checkCodeAndData(t, tt, e.do(t, tt))
	})

	t.Run("Login before approval fails", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/login",
			body:     marshalObj(t, map[string]string{"email": "ada@test.sch", "password": "s3cr3tpwd"}),
			wantCode: http.StatusForbidden,
		}
		checkCodeAndData(t, tt, e.do(t, tt))
	})

	t.Run("Pending list and approve", func(t *testing.T) {
		tt := httpTest{path: "/v1/users/pending", token: adminToken, wantData: marshalObj(t, []user.User{signedUp})}
		checkCodeAndData(t, tt, e.do(t, tt))

		app := httpTest{method: http.MethodPost, path: "/v1/users/" + signedUp.ID + "/approve", token: adminToken}
		rec := e.do(t, app)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		login := httpTest{
			method: http.MethodPost, path: "/v1/users/login",
			body: marshalObj(t, map[string]string{"email": "ada@test.sch", "password": "s3cr3tpwd"}),
		}
		lrec := e.do(t, login)
		assert.Equal(t, http.StatusOK, lrec.Code, lrec.Body.String())
	})
}

func Test_userApi_inviteFlow(t *testing.T) {
	e := setup(t)
	admin := e.createUser(t, "Admin", "admin@test.sch", "s3cr3tpwd", user.RoleAdmin, true)
	adminToken := e.getToken(t, admin)

	s, err := e.students.Create(student.NewStudent{Name: "Ada Jr", Year: 7, Class: "blue"})
	require.NoError(t, err)

	var invite user.Invite
	t.Run("Invite batch", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/invites", token: adminToken,
			body: marshalObj(t, map[string]interface{}{
				"familyName": "The Lovelaces",
				"studentIds": []string{s.ID},
				"parents": []map[string]string{
					{"name": "Ada", "email": "ada@test.sch", "role": "parent"},
				},
			}),
		}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Invites []user.Invite `json:"invites"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Invites, 1)
		invite = resp.Invites[0]
		assert.Regexp(t, regexp.MustCompile(`^[A-Z2-9]{6}$`), invite.Code)
		assert.Equal(t, []string{s.ID}, invite.StudentIDs)

		// the invite went out by email
		var found bool
		for _, msg := range emailsvc.SentMessages {
			for _, to := range msg.To {
				if to.Address == "ada@test.sch" {
					found = true
					assert.Contains(t, msg.BodyStr, invite.Code)
				}
			}
		}
		assert.True(t, found, "expected an invite email to ada@test.sch")
	})

	t.Run("Validate invite", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/invites/validate",
			body: marshalObj(t, map[string]string{"code": invite.Code}),
		}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Invite   user.Invite       `json:"invite"`
			Students []student.Student `json:"students"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, invite.Code, resp.Invite.Code)
		require.Len(t, resp.Students, 1)
		assert.Equal(t, s.ID, resp.Students[0].ID)
	})

	t.Run("Complete signup", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/invites/complete",
			body: marshalObj(t, map[string]string{"code": invite.Code, "password": "s3cr3tpwd"}),
		}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
		assert.True(t, usr.IsApproved) // invited accounts skip manual approval
		assert.Equal(t, "ada@test.sch", usr.Email)
	})

	t.Run("Invite is one-shot", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/users/invites/complete",
			body:     marshalObj(t, map[string]string{"code": invite.Code, "password": "an0therpwd"}),
			wantCode: http.StatusGone,
			wantData: marshalObj(t, httpErr{Error: "invite already used"}),
		}
		checkCodeAndData(t, tt, e.do(t, tt))
	})
}
