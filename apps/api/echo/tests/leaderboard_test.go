package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gongbuapp/gongbu/core/leaderboard"
	"github.com/gongbuapp/gongbu/core/scoring"
	"github.com/gongbuapp/gongbu/core/user"
	testutil "github.com/gongbuapp/gongbu/tests"
)

// seedLearner logs one reflective session per day for n consecutive days
// ending today.
func seedLearner(t *testing.T, name, uname, school string, activeDays int) user.User {
	t.Helper()
	usr := testutil.CreateUser(t, usrRepo, name, uname, uname+"@test.kr", school, "s3cr3tpwd",
		[]string{user.RoleStudent}, true, now.Add(-40*24*time.Hour))
	for i := 0; i < activeDays; i++ {
		testutil.CreateSession(t, sessRepo, usr.ID, 80, reflection, now.AddDate(0, 0, -i))
	}
	return usr
}

func Test_leaderboardApi_board(t *testing.T) {
	app := setup(t)

	jiho := seedLearner(t, "Jiho", "jiho01", "Hanbit High", 10)
	mina := seedLearner(t, "Mina", "mina02", "Daesung High", 5)
	// never studied; must not appear
	testutil.CreateUser(t, usrRepo, "Idle", "idle01", "idle@test.kr", "Hanbit High", "s3cr3tpwd",
		[]string{user.RoleStudent}, true)

	t.Run("no token", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/leaderboard")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("all time", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaderboard", getToken(t, jiho))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var entries []leaderboard.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("len(entries) = %d; want 2", len(entries))
		}
		if entries[0].UserID != jiho.ID || entries[0].Rank != 1 {
			t.Errorf("entries[0] = %+v; want %s at rank 1", entries[0], jiho.ID)
		}
		if entries[1].UserID != mina.ID || entries[1].Rank != 2 {
			t.Errorf("entries[1] = %+v; want %s at rank 2", entries[1], mina.ID)
		}
	})

	t.Run("top truncates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaderboard?top=1", getToken(t, jiho))
		app.ServeHTTP(rec, req)

		var entries []leaderboard.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(entries) != 1 || entries[0].UserID != jiho.ID {
			t.Errorf("entries = %+v; want only %s", entries, jiho.ID)
		}
	})

	t.Run("bad window", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"window": "must be one of: all, week, month"}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaderboard?window=year", getToken(t, jiho))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("bad top", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"top": "must be a positive integer"}),
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/leaderboard?top=-3", getToken(t, jiho))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_leaderboardApi_schoolBoards(t *testing.T) {
	app := setup(t)

	jiho := seedLearner(t, "Jiho", "jiho01", "Hanbit High", 10)
	seedLearner(t, "Mina", "mina02", "Daesung High", 5)
	seedLearner(t, "Hana", "hana03", "Hanbit High", 3)

	req, rec := newAuthRequest(http.MethodGet, "/v1/leaderboard/schools", getToken(t, jiho))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var boards []leaderboard.SchoolBoard
	if err := json.Unmarshal(rec.Body.Bytes(), &boards); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("len(boards) = %d; want 2", len(boards))
	}
	if boards[0].School != "Hanbit High" || len(boards[0].Entries) != 2 {
		t.Errorf("boards[0] = %+v; want Hanbit High with 2 entries", boards[0])
	}
	if boards[0].Entries[0].SchoolRank != 1 || boards[0].Entries[1].SchoolRank != 2 {
		t.Errorf("school ranks = %+v; want 1, 2", boards[0].Entries)
	}
}

func Test_leaderboardApi_userScore(t *testing.T) {
	app := setup(t)

	jiho := seedLearner(t, "Jiho", "jiho01", "Hanbit High", 3)
	mina := seedLearner(t, "Mina", "mina02", "Daesung High", 5)
	teacher := testutil.CreateUser(t, usrRepo, "Mr Kim", "mrkim1", "kim@test.kr", "", "s3cr3tpwd",
		[]string{user.RoleTeacher}, true)

	t.Run("own breakdown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+jiho.ID+"/score", getToken(t, jiho))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var scores scoring.Breakdown
		if err := json.Unmarshal(rec.Body.Bytes(), &scores); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if scores.Engagement != 10 { // 3 sessions of a 30 target
			t.Errorf("engagement = %d; want 10", scores.Engagement)
		}
		if scores.Score == 0 {
			t.Error("score should not be zero")
		}
	})

	t.Run("peer forbidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+mina.ID+"/score", getToken(t, jiho))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("teacher reads anyone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+mina.ID+"/score", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %d; want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/nope/score", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
