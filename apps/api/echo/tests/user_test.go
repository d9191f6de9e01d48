package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/gongbuapp/gongbu/apps/api/echo"
	"github.com/gongbuapp/gongbu/core/user"
	testutil "github.com/gongbuapp/gongbu/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Jiho", "jiho01", "jiho@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)
	testutil.CreateUser(t, usrRepo, "Gone", "gone01", "gone@test.kr", "", "s3cr3tpwd",
		[]string{user.RoleStudent}, false)

	tests := []httpTest{
		{name: "empty body", wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"})},
		{name: "unknown user", body: marshallObj(t, LoginRequest{Username: "whodis", Password: "s3cr3tpwd"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: marshallObj(t, LoginRequest{Username: usr.Username, Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated account", body: marshallObj(t, LoginRequest{Username: "gone01", Password: "s3cr3tpwd"}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("login ok", func(t *testing.T) {
		body := marshallObj(t, LoginRequest{Username: usr.Email, Password: "s3cr3tpwd"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Token == "" {
			t.Error("token is empty")
		}
	})
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.kr", "", "s3cr3tpwd",
		user.AllRoles, true)
	student := testutil.CreateUser(t, usrRepo, "Jiho", "jiho01", "jiho@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)

	newUsr := user.NewUser{
		Name:            "Mina",
		Username:        "mina02",
		Email:           "mina@test.kr",
		School:          "Daesung High",
		Password:        "s3cr3tpwd",
		PasswordConfirm: "s3cr3tpwd",
		Roles:           []string{user.RoleStudent},
	}

	tests := []httpTest{
		{name: "no token", body: marshallObj(t, newUsr),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "student forbidden", token: getToken(t, student), body: marshallObj(t, newUsr),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "password mismatch", token: getToken(t, admin),
			body: marshallObj(t, user.NewUser{Name: "X", Username: "xoxo01", Email: "x@test.kr", Password: "one1234", PasswordConfirm: "two1234"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"})},
		{name: "duplicate email", token: getToken(t, admin),
			body: marshallObj(t, user.NewUser{Name: "Dup", Username: "dup123", Email: student.Email, Password: "s3cr3tpwd", PasswordConfirm: "s3cr3tpwd"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "a user with this email already exists"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("register ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, admin), marshallObj(t, newUsr))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var created user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if created.Username != newUsr.Username || created.School != newUsr.School || !created.IsActive {
			t.Errorf("created = %+v; want %+v active", created, newUsr)
		}
	})
}

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.kr", "", "s3cr3tpwd",
		user.AllRoles, true)
	jiho := testutil.CreateUser(t, usrRepo, "Jiho", "jiho01", "jiho@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)
	mina := testutil.CreateUser(t, usrRepo, "Mina", "mina02", "mina@test.kr", "Daesung High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "no token", path: "/v1/users/" + jiho.ID,
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "own profile", path: "/v1/users/" + jiho.ID, token: getToken(t, jiho),
			wantCode: http.StatusOK, wantData: marshallObj(t, jiho)},
		{name: "admin reads anyone", path: "/v1/users/" + mina.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marshallObj(t, mina)},
		{name: "peers are hidden", path: "/v1/users/" + mina.ID, token: getToken(t, jiho),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})},
		{name: "unknown id", path: "/v1/users/nope", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
