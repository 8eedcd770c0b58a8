// services/scoring.go
package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

type scoringStore interface {
	GetChallenge(id string) (*model.Challenge, error)
	GetProgress(userID, contentID, contentKind string) (*model.Progress, error)
	SaveProgress(progress *model.Progress) error
}

// xpAwarder credits XP gains to the user aggregate.
type xpAwarder interface {
	AwardXP(userID string, delta int) error
}

// ScoringService grades challenge submissions, converts the percentage
// score into a graduated XP award and keeps the Progress record current.
type ScoringService struct {
	context.DefaultService

	store       scoringStore
	oracle      ScoringOracle
	progressSvc xpAwarder
	cacheSvc    *TTLCacheService
}

const SCORING_SVC = "scoring_svc"

// passThreshold marks a submission completed. Fixed so completion always
// lines up with the 70+ bands of the XP step table.
const passThreshold = 70

func (svc ScoringService) Id() string {
	return SCORING_SVC
}

func (svc *ScoringService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ScoringService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.oracle = svc.Service(ORACLE_SVC).(*OracleService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.cacheSvc = svc.Service(CACHE_SVC).(*TTLCacheService)
	return nil
}

// xpAward is the score-to-reward step table. Boundaries are inclusive at
// the low end of each band.
func xpAward(score, baseReward int) int {
	switch {
	case score >= 90:
		return int(math.Round(float64(baseReward) * 1.5))
	case score >= 80:
		return int(math.Round(float64(baseReward) * 1.2))
	case score >= 70:
		return baseReward
	case score >= 50:
		return int(math.Round(float64(baseReward) * 0.5))
	default:
		return 0
	}
}

// SubmitChallenge grades answers against the stored solution, awards XP and
// upserts the (user, challenge) Progress row. Every submission counts as an
// attempt, whatever its outcome.
func (svc *ScoringService) SubmitChallenge(userID string, req dto.SubmitChallengeRequest) (*dto.SubmitChallengeResponse, error) {
	challenge, err := svc.store.GetChallenge(req.ChallengeID)
	if err != nil {
		return nil, err
	}

	progress, err := svc.store.GetProgress(userID, challenge.ID, shared.KindChallenge)
	if err != nil {
		if !shared.IsKind(err, shared.ErrNotFound) {
			return nil, err
		}
		progress = &model.Progress{
			UserID:      userID,
			ContentID:   challenge.ID,
			ContentKind: shared.KindChallenge,
			Status:      shared.ProgressNotStarted,
		}
	}

	if challenge.MaxAttempts > 0 && progress.Attempts >= challenge.MaxAttempts {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("attempts %d of %d used", progress.Attempts, challenge.MaxAttempts),
			"Attempt limit reached for this challenge")
	}

	var questions []model.Question
	if err := json.Unmarshal(challenge.Questions, &questions); err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to parse challenge questions")
	}
	if len(questions) == 0 {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("challenge %s has no questions", challenge.ID),
			"Challenge has no questions")
	}

	correctCount := 0
	degraded := false
	for _, question := range questions {
		answer, submitted := req.Answers[question.Index]
		if !submitted {
			continue
		}

		correct, usedFallback := svc.isAnswerCorrect(question, answer)
		if usedFallback {
			degraded = true
		}
		if correct {
			correctCount++
		}
	}

	score := int(math.Round(100 * float64(correctCount) / float64(len(questions))))
	awarded := xpAward(score, challenge.XPReward)
	passed := score >= passThreshold

	progress.Attempts++
	progress.LastScore = &score
	progress.CompletionPct = score
	if passed {
		progress.Status = shared.ProgressCompleted
		progress.CompletionPct = 100
	} else {
		progress.Status = shared.ProgressInProgress
	}

	// XP per content item never decreases; only the gain over the best
	// previous run feeds the user aggregate.
	xpDelta := 0
	if awarded > progress.XPEarned {
		xpDelta = awarded - progress.XPEarned
		progress.XPEarned = awarded
	}

	if err := svc.store.SaveProgress(progress); err != nil {
		return nil, err
	}

	if xpDelta > 0 {
		if err := svc.progressSvc.AwardXP(userID, xpDelta); err != nil {
			// The submission already counted; losing the aggregate bump is
			// recoverable on the next award, so report and continue.
			log.WithError(err).WithField("user_id", userID).Error("Failed to apply XP award to user aggregate")
		}
	}

	svc.cacheSvc.Invalidate("progress:"+userID, "xp:"+userID, "stats")

	submissionsTotal.Inc()
	xpAwardedTotal.Add(float64(xpDelta))

	resp := &dto.SubmitChallengeResponse{
		Score:           score,
		CorrectCount:    correctCount,
		TotalQuestions:  len(questions),
		XPAwarded:       awarded,
		Passed:          passed,
		ProgressStatus:  progress.Status,
		Attempts:        progress.Attempts,
		DegradedGrading: degraded,
	}
	if challenge.MaxAttempts > 0 {
		remaining := challenge.MaxAttempts - progress.Attempts
		if remaining < 0 {
			remaining = 0
		}
		resp.AttemptsRemaining = &remaining
	}

	return resp, nil
}

// isAnswerCorrect grades one question. The second return reports whether
// the open-text degraded fallback was used instead of the oracle.
func (svc *ScoringService) isAnswerCorrect(question model.Question, answer interface{}) (bool, bool) {
	switch question.Type {
	case shared.QuestionTypeSingleChoice:
		return stringsEqualFold(question.Answer, answer), false

	case shared.QuestionTypeMultipleChoice:
		return stringSetsEqual(question.Answer, answer), false

	case shared.QuestionTypeDragDrop:
		// Item->zone mappings compare structurally; json.Marshal emits map
		// keys sorted, so byte equality is set equality.
		correctJSON, err1 := json.Marshal(question.Answer)
		answerJSON, err2 := json.Marshal(answer)
		if err1 != nil || err2 != nil {
			return false, false
		}
		return string(correctJSON) == string(answerJSON), false

	case shared.QuestionTypeOpenText:
		answerStr, ok := answer.(string)
		if !ok {
			return false, false
		}

		oracleScore, err := svc.oracle.ScoreAnswer(question.Prompt, answerStr, question.Reference, question.Rubric)
		if err == nil {
			return oracleScore >= 70, false
		}

		log.WithError(err).Warn("Scoring oracle failed, falling back to containment check")
		return textContainment(answerStr, question.Reference), true
	}

	return false, false
}

func stringsEqualFold(expected, actual interface{}) bool {
	expectedStr, ok1 := expected.(string)
	actualStr, ok2 := actual.(string)
	if ok1 && ok2 {
		return strings.EqualFold(strings.TrimSpace(expectedStr), strings.TrimSpace(actualStr))
	}
	return expected == actual
}

func stringSetsEqual(expected, actual interface{}) bool {
	expectedSet := toStringSet(expected)
	actualSet := toStringSet(actual)
	if expectedSet == nil || actualSet == nil || len(expectedSet) != len(actualSet) {
		return false
	}
	for item := range expectedSet {
		if _, ok := actualSet[item]; !ok {
			return false
		}
	}
	return true
}

func toStringSet(v interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	switch items := v.(type) {
	case []string:
		for _, item := range items {
			set[strings.ToLower(strings.TrimSpace(item))] = struct{}{}
		}
	case []interface{}:
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
		}
	default:
		return nil
	}
	return set
}

// textContainment is the degraded open-text signal: case-insensitive
// substring containment in either direction.
func textContainment(answer, reference string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	r := strings.ToLower(strings.TrimSpace(reference))
	if a == "" || r == "" {
		return false
	}
	return strings.Contains(a, r) || strings.Contains(r, a)
}
