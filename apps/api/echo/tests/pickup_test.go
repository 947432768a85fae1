package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
)

func Test_pickupApi_create(t *testing.T) {
	e := setup(t)
	staff := e.createUser(t, "Staff", "staff@test.sch", "s3cr3tpwd", "parent", true)
	token := e.getToken(t, staff)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/pickups",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken),
		},
		{
			name: "Validation: empty body", method: http.MethodPost, path: "/v1/pickups", token: token,
			body:     marshalObj(t, map[string]interface{}{}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"student_name": "this field is required",
				"year":         "this field is required",
				"class":        "this field is required",
			}),
		},
		{
			name: "Validation: bad year", method: http.MethodPost, path: "/v1/pickups", token: token,
			body:     marshalObj(t, map[string]interface{}{"student_name": "Ada", "year": 99, "class": "blue"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Validation: bad class name", method: http.MethodPost, path: "/v1/pickups", token: token,
			body:     marshalObj(t, map[string]interface{}{"student_name": "Ada", "year": 7, "class": "blue!"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"class": "only letters, digits, spaces and dashes are allowed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.do(t, tt))
		})
	}

	t.Run("Create", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/pickups", token: token,
			body: marshalObj(t, map[string]interface{}{"student_name": "Ada Lovelace", "year": 7, "class": "Blue"}),
		}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var p pickup.Pickup
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Ada Lovelace", p.StudentName)
		assert.Equal(t, "blue", p.Class) // class names are normalized
		assert.Equal(t, pickup.StatusPending, p.Status)
	})
}

func Test_pickupApi_queryPending(t *testing.T) {
	e := setup(t)
	staff := e.createUser(t, "Staff", "staff@test.sch", "s3cr3tpwd", "parent", true)
	token := e.getToken(t, staff)

	p1, err := e.pickups.Create(pickup.NewPickup{StudentName: "First", Year: 7, Class: "blue"})
	require.NoError(t, err)
	p2, err := e.pickups.Create(pickup.NewPickup{StudentName: "Second", Year: 7, Class: "blue"})
	require.NoError(t, err)
	other, err := e.pickups.Create(pickup.NewPickup{StudentName: "Other", Year: 8, Class: "red"})
	require.NoError(t, err)

	acked, err := e.pickups.Create(pickup.NewPickup{StudentName: "Done", Year: 7, Class: "blue"})
	require.NoError(t, err)
	_, err = e.pickups.Acknowledge(acked.ID)
	require.NoError(t, err)

	t.Run("All pending", func(t *testing.T) {
		tt := httpTest{path: "/v1/pickups/pending", token: token, wantData: marshalObj(t, []pickup.Pickup{p1, p2, other})}
		checkCodeAndData(t, tt, e.do(t, tt))
	})
	t.Run("By class", func(t *testing.T) {
		tt := httpTest{path: "/v1/pickups/pending?year=7&class=blue", token: token, wantData: marshalObj(t, []pickup.Pickup{p1, p2})}
		checkCodeAndData(t, tt, e.do(t, tt))
	})
	t.Run("Unknown class is empty", func(t *testing.T) {
		tt := httpTest{path: "/v1/pickups/pending?year=13&class=nope", token: token, wantData: marshalObj(t, []pickup.Pickup{})}
		checkCodeAndData(t, tt, e.do(t, tt))
	})
}

func Test_pickupApi_acknowledge(t *testing.T) {
	e := setup(t)
	staff := e.createUser(t, "Staff", "staff@test.sch", "s3cr3tpwd", "parent", true)
	token := e.getToken(t, staff)

	p, err := e.pickups.Create(pickup.NewPickup{StudentName: "Ada", Year: 7, Class: "blue"})
	require.NoError(t, err)

	t.Run("Unknown pickup", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/pickups/nope/ack", token: token,
			wantCode: http.StatusNotFound,
		}
		checkCodeAndData(t, tt, e.do(t, tt))
	})

	var first pickup.Pickup
	t.Run("Acknowledge", func(t *testing.T) {
		tt := httpTest{method: http.MethodPost, path: "/v1/pickups/" + p.ID + "/ack", token: token}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
		assert.Equal(t, pickup.StatusAcknowledged, first.Status)
		assert.False(t, first.AckedAt.IsZero())
	})

	t.Run("Acknowledge again is idempotent", func(t *testing.T) {
		tt := httpTest{method: http.MethodPost, path: "/v1/pickups/" + p.ID + "/ack", token: token}
		rec := e.do(t, tt)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var again pickup.Pickup
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
		assert.Equal(t, first.AckedAt, again.AckedAt) // the original ack time sticks
	})
}
