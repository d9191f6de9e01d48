package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gongbuapp/gongbu/core/session"
	"github.com/gongbuapp/gongbu/core/user"
	testutil "github.com/gongbuapp/gongbu/tests"
)

func Test_sessionApi_log(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Jiho", "jiho01", "jiho@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Mr Kim", "mrkim1", "kim@test.kr", "", "s3cr3tpwd",
		[]string{user.RoleTeacher}, true)

	tests := []httpTest{
		{name: "no token", body: marshallObj(t, session.NewSession{PercentComplete: 50}),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "teacher forbidden", token: getToken(t, teacher), body: marshallObj(t, session.NewSession{PercentComplete: 50}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "percent out of range", token: getToken(t, student),
			body:     marshallObj(t, session.NewSession{PercentComplete: 150}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"percent_complete": "percent_complete must be 100 or less"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("log ok", func(t *testing.T) {
		body := marshallObj(t, session.NewSession{PercentComplete: 80, Reflection: "  " + reflection + "  "})
		req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", getToken(t, student), body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var sess session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if sess.ID == "" || sess.UserID != student.ID {
			t.Errorf("sess = %+v; want an ID and userID %s", sess, student.ID)
		}
		if sess.ReflectionText() != reflection {
			t.Errorf("reflection = %q; want trimmed %q", sess.ReflectionText(), reflection)
		}
		if sess.PercentComplete != 80 {
			t.Errorf("percentComplete = %d; want 80", sess.PercentComplete)
		}
	})
}

func Test_sessionApi_query(t *testing.T) {
	app := setup(t)

	jiho := testutil.CreateUser(t, usrRepo, "Jiho", "jiho01", "jiho@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)
	mina := testutil.CreateUser(t, usrRepo, "Mina", "mina02", "mina@test.kr", "Daesung High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)

	// one session this week, one from last month
	recent := testutil.CreateSession(t, sessRepo, jiho.ID, 90, reflection, now.AddDate(0, 0, -1))
	testutil.CreateSession(t, sessRepo, jiho.ID, 40, "", now.AddDate(0, -1, 0))
	testutil.CreateSession(t, sessRepo, mina.ID, 70, reflection, now)

	t.Run("own history only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions", getToken(t, jiho))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var sessions []session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("len(sessions) = %d; want 2", len(sessions))
		}
		for _, sess := range sessions {
			if sess.UserID != jiho.ID {
				t.Errorf("leaked session of user %s", sess.UserID)
			}
		}
	})

	t.Run("windowed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions?window=week", getToken(t, jiho))
		app.ServeHTTP(rec, req)

		var sessions []session.Session
		if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(sessions) != 1 || sessions[0].ID != recent.ID {
			t.Errorf("sessions = %+v; want only %s", sessions, recent.ID)
		}
	})

	t.Run("bad window", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"window": "must be one of: all, week, month"}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/sessions?window=fortnight", getToken(t, jiho))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_sessionApi_destroy(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.kr", "", "s3cr3tpwd",
		user.AllRoles, true)
	jiho := testutil.CreateUser(t, usrRepo, "Jiho", "jiho01", "jiho@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)
	sess := testutil.CreateSession(t, sessRepo, jiho.ID, 90, reflection, now)

	tests := []httpTest{
		{name: "student forbidden", path: "/v1/sessions/" + sess.ID, token: getToken(t, jiho),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "unknown id", path: "/v1/sessions/nope", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/sessions/"+sess.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		req, rec = newAuthRequest(http.MethodDelete, "/v1/sessions/"+sess.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("second delete code = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})
}
