// Package scoring computes a learner's engagement score from raw study-session
// history. The score deliberately ignores self-reported completion rates so
// that struggling learners are rewarded for showing up and reflecting, not for
// succeeding.
package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gongbuapp/gongbu/core"
	"github.com/gongbuapp/gongbu/core/session"
)

// Breakdown is the computed engagement score and its four components,
// each 0-100.
type Breakdown struct {
	Consistency int `json:"consistency"`
	Quality     int `json:"quality"`
	Engagement  int `json:"engagement"`
	Streak      int `json:"streak"`
	Score       int `json:"score"`
}

// per-session reflection quality thresholds
const (
	qualityMinLen     = 20 // runes; Hangul reflections would triple-count in bytes
	qualityLongLen    = 50
	qualityLenPoints  = 40
	qualityLongPoints = 30
	qualityKeywordPts = 30
	qualityMax        = 100
	componentMax      = 100.0
)

// Scorer turns a session history into a Breakdown. It is pure and safe for
// concurrent use; construct once and share.
type Scorer struct {
	conf     core.ScoringConfig
	keywords []string
}

func NewScorer(conf core.ScoringConfig) *Scorer {
	if conf.ConsistencyWeight == 0 && conf.QualityWeight == 0 && conf.EngagementWeight == 0 && conf.StreakWeight == 0 {
		conf.ConsistencyWeight = 0.40
		conf.QualityWeight = 0.35
		conf.EngagementWeight = 0.15
		conf.StreakWeight = 0.10
	}
	if conf.TargetActiveDays <= 0 {
		conf.TargetActiveDays = 30
	}
	if conf.TargetSessionCount <= 0 {
		conf.TargetSessionCount = 30
	}
	if conf.TargetStreakDays <= 0 {
		conf.TargetStreakDays = 7
	}
	if conf.ReflectionKeywords == nil {
		conf.ReflectionKeywords = core.DefaultReflectionKeywords
	}

	keywords := make([]string, 0, len(conf.ReflectionKeywords))
	for _, kw := range conf.ReflectionKeywords {
		if kw = core.CleanString(kw, true /* lower */); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &Scorer{conf: conf, keywords: keywords}
}

// Compute scores a single learner's sessions. Input order is irrelevant and
// the slice is never mutated. An empty history yields the zero Breakdown.
//
// Each component is normalized to [0,100] before weighting; the final score is
// rounded once over the unrounded weighted sum, while the displayed components
// are rounded independently (rounding the sum of pre-rounded components would
// compound the error).
func (s *Scorer) Compute(sessions []session.Session) Breakdown {
	if len(sessions) == 0 {
		return Breakdown{}
	}

	days := activeDays(sessions)

	consistency := cappedRatio(len(days), s.conf.TargetActiveDays)
	quality := s.reflectionQuality(sessions)
	engagement := cappedRatio(len(sessions), s.conf.TargetSessionCount)
	streak := cappedRatio(currentStreak(days), s.conf.TargetStreakDays)

	score := s.conf.ConsistencyWeight*consistency +
		s.conf.QualityWeight*quality +
		s.conf.EngagementWeight*engagement +
		s.conf.StreakWeight*streak

	return Breakdown{
		Consistency: round(consistency),
		Quality:     round(quality),
		Engagement:  round(engagement),
		Streak:      round(streak),
		Score:       round(score),
	}
}

// reflectionQuality averages per-session quality over sessions that carry a
// non-empty reflection. Sessions without one are excluded from numerator and
// denominator both; they never drag the average down as zeros.
func (s *Scorer) reflectionQuality(sessions []session.Session) float64 {
	var total, count int
	for _, sess := range sessions {
		text := sess.ReflectionText()
		if text == "" {
			continue
		}
		total += s.sessionQuality(text)
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func (s *Scorer) sessionQuality(text string) int {
	var q int
	if n := len([]rune(text)); n >= qualityMinLen {
		q += qualityLenPoints
		if n >= qualityLongLen {
			q += qualityLongPoints
		}
	}
	if s.containsKeyword(text) {
		q += qualityKeywordPts
	}
	if q > qualityMax {
		q = qualityMax
	}
	return q
}

func (s *Scorer) containsKeyword(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range s.keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// activeDays returns the distinct calendar dates (local to each timestamp)
// with at least one session, most recent first. Dates are normalized to UTC
// midnights so consecutive days are always exactly 24h apart.
func activeDays(sessions []session.Session) []time.Time {
	seen := make(map[time.Time]struct{}, len(sessions))
	for _, sess := range sessions {
		y, m, d := sess.CreatedAt.Date()
		seen[time.Date(y, m, d, 0, 0, 0, 0, time.UTC)] = struct{}{}
	}
	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// currentStreak counts the consecutive-day run ending at the most recent
// active date. A single gap breaks it; earlier (possibly longer) runs do not
// count.
func currentStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}

func cappedRatio(n, target int) float64 {
	r := float64(n) / float64(target) * componentMax
	if r > componentMax {
		return componentMax
	}
	return r
}

func round(f float64) int {
	return int(math.Round(f))
}
