// Package leaderboard ranks learners by engagement score, globally and within
// their school.
package leaderboard

import (
	"sort"

	"github.com/gongbuapp/gongbu/core/scoring"
	"github.com/gongbuapp/gongbu/core/session"
	"github.com/gongbuapp/gongbu/core/user"
)

// DefaultTopN bounds leaderboard output when the caller does not say otherwise.
const DefaultTopN = 5

// Learner pairs a user with the session snapshot they are scored over.
type Learner struct {
	User     user.User
	Sessions []session.Session
}

type Entry struct {
	UserID     string            `json:"user_id"`
	Name       string            `json:"name"`
	School     string            `json:"school,omitempty"`
	Scores     scoring.Breakdown `json:"score_data"`
	Rank       int               `json:"rank"`
	SchoolRank int               `json:"school_rank,omitempty"`
}

// Rank scores every learner and returns the ranked board, truncated to topN
// (topN <= 0 means DefaultTopN).
//
// Learners scoring 0 are dropped entirely: no qualifying activity, no spot on
// the board. Ties keep the callers' original learner order (stable sort), so a
// fixed input always yields identical ranks. SchoolRank is assigned within
// each school group before truncation, using the same ordering.
func Rank(scorer *scoring.Scorer, learners []Learner, topN int) []Entry {
	if topN <= 0 {
		topN = DefaultTopN
	}

	entries := make([]Entry, 0, len(learners))
	for _, l := range learners {
		scores := scorer.Compute(l.Sessions)
		if scores.Score == 0 {
			continue
		}
		entries = append(entries, Entry{
			UserID: l.User.ID,
			Name:   l.User.Name,
			School: l.User.School,
			Scores: scores,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Scores.Score > entries[j].Scores.Score
	})

	schoolCounts := make(map[string]int)
	for i := range entries {
		entries[i].Rank = i + 1
		if school := entries[i].School; school != "" {
			schoolCounts[school]++
			entries[i].SchoolRank = schoolCounts[school]
		}
	}

	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// SchoolBoard groups ranked entries per school.
type SchoolBoard struct {
	School  string  `json:"school"`
	Entries []Entry `json:"entries"`
}

// GroupBySchool splits ranked entries into per-school boards, ordered by each
// school's best global rank. Entries without a school are skipped.
func GroupBySchool(entries []Entry) []SchoolBoard {
	index := make(map[string]int)
	boards := make([]SchoolBoard, 0)
	for _, e := range entries {
		if e.School == "" {
			continue
		}
		i, ok := index[e.School]
		if !ok {
			i = len(boards)
			index[e.School] = i
			boards = append(boards, SchoolBoard{School: e.School})
		}
		boards[i].Entries = append(boards[i].Entries, e)
	}
	return boards
}
