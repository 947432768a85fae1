package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Kopptechy/student-pickup-live-2025/apps/api/echo"
	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/family"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
	"github.com/Kopptechy/student-pickup-live-2025/core/realtime"
	"github.com/Kopptechy/student-pickup-live-2025/core/student"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
	emailsvc "github.com/Kopptechy/student-pickup-live-2025/services/email"
	logsvc "github.com/Kopptechy/student-pickup-live-2025/services/logger"
	"github.com/Kopptechy/student-pickup-live-2025/storage/database/dummy"
)

const displayToken = "test-display-token"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type env struct {
	conf        *core.Config
	server      echoapi.Server
	registry    *realtime.Registry
	broadcaster *realtime.Broadcaster

	pickups  *pickup.Service
	merges   *merge.Service
	students *student.Service
	families *family.Service
	users    *user.Service

	usrRepo user.Repository
}

func setup(t *testing.T) *env {
	t.Helper()

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Display.Token = displayToken

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)

	db, err := dummydb.Open()
	require.NoError(t, err)
	pickupRepo := dummydb.NewPickupRepository(db)
	mergeRepo := dummydb.NewMergeRepository(db)
	studentRepo := dummydb.NewStudentRepository(db)
	familyRepo := dummydb.NewFamilyRepository(db)
	usrRepo := dummydb.NewUserRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	mergeSvc := merge.NewService(mergeRepo)
	registry := realtime.NewRegistry(conf.Display.SendBuffer)
	broadcaster := realtime.NewBroadcaster(registry, mergeSvc, logger)
	pickupSvc := pickup.NewService(pickupRepo, broadcaster)
	studentSvc := student.NewService(studentRepo)
	familySvc := family.NewService(familyRepo, studentRepo)
	userSvc := user.NewService(usrRepo, familySvc, studentRepo, mailSvc, conf)

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     userSvc,
		StudentSvc:  studentSvc,
		FamilySvc:   familySvc,
		PickupSvc:   pickupSvc,
		MergeSvc:    mergeSvc,
		Registry:    registry,
		Broadcaster: broadcaster,
		Validate:    validate,
		Translator:  translator,
	})

	return &env{
		conf:        conf,
		server:      server,
		registry:    registry,
		broadcaster: broadcaster,
		pickups:     pickupSvc,
		merges:      mergeSvc,
		students:    studentSvc,
		families:    familySvc,
		users:       userSvc,
		usrRepo:     usrRepo,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (e *env) createUser(t *testing.T, name, email, pwd, role string, approved bool) user.User {
	t.Helper()
	usr := user.User{
		ID:         uuid.New().String(),
		Name:       name,
		Email:      email,
		Role:       role,
		IsApproved: approved,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, usr.SetPassword(pwd))
	usr, err := e.usrRepo.CreateUser(usr)
	require.NoError(t, err)
	return usr
}

func (e *env) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(e.conf, echoapi.GetUserClaims(e.conf, usr))
	require.NoError(t, err)
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func (e *env) do(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	e.server.ServeHTTP(rec, req)
	return rec
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("%s: code = %d, want %d; body = %s", tt.name, rec.Code, wantCode, rec.Body.String())
		return
	}
	if tt.wantData == nil {
		return
	}
	require.JSONEq(t, string(tt.wantData), rec.Body.String(), tt.name)
}
