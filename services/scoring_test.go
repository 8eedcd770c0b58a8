package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScoringStore struct {
	challenge *model.Challenge
	progress  map[string]*model.Progress
	saved     []*model.Progress
}

func (f *fakeScoringStore) GetChallenge(id string) (*model.Challenge, error) {
	if f.challenge == nil || f.challenge.ID != id {
		return nil, shared.NewNotFoundError(fmt.Errorf("challenge %s", id), "Record not found")
	}
	return f.challenge, nil
}

func (f *fakeScoringStore) GetProgress(userID, contentID, contentKind string) (*model.Progress, error) {
	if p, ok := f.progress[contentID]; ok {
		return p, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("no progress"), "Record not found")
}

func (f *fakeScoringStore) SaveProgress(progress *model.Progress) error {
	if f.progress == nil {
		f.progress = make(map[string]*model.Progress)
	}
	f.progress[progress.ContentID] = progress
	f.saved = append(f.saved, progress)
	return nil
}

type fakeOracle struct {
	score int
	err   error
	calls int
}

func (f *fakeOracle) ScoreAnswer(question, answer, reference, rubric string) (int, error) {
	f.calls++
	return f.score, f.err
}

type fakeAwarder struct {
	awards []int
}

func (f *fakeAwarder) AwardXP(userID string, delta int) error {
	f.awards = append(f.awards, delta)
	return nil
}

func singleChoiceQuestions(t *testing.T, n int) json.RawMessage {
	t.Helper()
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, model.Question{
			Index:   i,
			Type:    shared.QuestionTypeSingleChoice,
			Prompt:  fmt.Sprintf("q%d", i),
			Options: []string{"right", "wrong"},
			Answer:  "right",
		})
	}
	raw, err := json.Marshal(questions)
	require.NoError(t, err)
	return raw
}

func newScoringFixture(t *testing.T, challenge *model.Challenge) (*ScoringService, *fakeScoringStore, *fakeAwarder, *fakeOracle) {
	t.Helper()
	store := &fakeScoringStore{challenge: challenge, progress: make(map[string]*model.Progress)}
	awarder := &fakeAwarder{}
	oracle := &fakeOracle{score: 100}
	svc := &ScoringService{
		store:       store,
		oracle:      oracle,
		progressSvc: awarder,
		cacheSvc:    newTestCache(nil),
	}
	return svc, store, awarder, oracle
}

// answers that get k of n single-choice questions right
func partialAnswers(n, correct int) map[int]interface{} {
	answers := make(map[int]interface{}, n)
	for i := 0; i < n; i++ {
		if i < correct {
			answers[i] = "right"
		} else {
			answers[i] = "wrong"
		}
	}
	return answers
}

func TestXPAward_StepTable(t *testing.T) {
	cases := []struct {
		score, reward, want int
	}{
		{100, 20, 30},
		{90, 20, 30},
		{89, 20, 24},
		{80, 20, 24},
		{79, 20, 20},
		{70, 20, 20},
		{69, 20, 10},
		{50, 20, 10},
		{49, 20, 0},
		{0, 20, 0},
		{95, 15, 23}, // 22.5 rounds up
		{85, 25, 30},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, xpAward(tc.score, tc.reward), "score=%d reward=%d", tc.score, tc.reward)
	}
}

func TestSubmitChallenge_PassAwardsXPAndCompletes(t *testing.T) {
	challenge := &model.Challenge{
		ID:        "ch1",
		Status:    shared.StatusPublished,
		Questions: singleChoiceQuestions(t, 10),
		XPReward:  20,
	}
	svc, store, awarder, _ := newScoringFixture(t, challenge)

	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1",
		Answers:     partialAnswers(10, 9),
	})
	require.NoError(t, err)

	assert.Equal(t, 90, resp.Score)
	assert.Equal(t, 9, resp.CorrectCount)
	assert.Equal(t, 10, resp.TotalQuestions)
	assert.Equal(t, 30, resp.XPAwarded)
	assert.True(t, resp.Passed)
	assert.Equal(t, shared.ProgressCompleted, resp.ProgressStatus)
	assert.Equal(t, 1, resp.Attempts)
	assert.Nil(t, resp.AttemptsRemaining)

	saved := store.progress["ch1"]
	require.NotNil(t, saved)
	assert.Equal(t, 30, saved.XPEarned)
	assert.Equal(t, 100, saved.CompletionPct)
	assert.Equal(t, []int{30}, awarder.awards)
}

func TestSubmitChallenge_ThresholdBandCompletes(t *testing.T) {
	challenge := &model.Challenge{
		ID:        "ch1",
		Status:    shared.StatusPublished,
		Questions: singleChoiceQuestions(t, 4),
		XPReward:  20,
	}
	svc, store, awarder, _ := newScoringFixture(t, challenge)

	// 3 of 4 lands at 75, inside the base-reward band.
	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1",
		Answers:     partialAnswers(4, 3),
	})
	require.NoError(t, err)

	assert.Equal(t, 75, resp.Score)
	assert.Equal(t, 20, resp.XPAwarded)
	assert.True(t, resp.Passed)
	assert.Equal(t, shared.ProgressCompleted, resp.ProgressStatus)

	saved := store.progress["ch1"]
	require.NotNil(t, saved)
	assert.Equal(t, 100, saved.CompletionPct)
	assert.Equal(t, []int{20}, awarder.awards)
}

func TestSubmitChallenge_FailStaysInProgress(t *testing.T) {
	challenge := &model.Challenge{
		ID:        "ch1",
		Status:    shared.StatusPublished,
		Questions: singleChoiceQuestions(t, 10),
		XPReward:  20,
	}
	svc, store, awarder, _ := newScoringFixture(t, challenge)

	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1",
		Answers:     partialAnswers(10, 4),
	})
	require.NoError(t, err)

	assert.Equal(t, 40, resp.Score)
	assert.Equal(t, 0, resp.XPAwarded)
	assert.False(t, resp.Passed)
	assert.Equal(t, shared.ProgressInProgress, resp.ProgressStatus)

	assert.Equal(t, 0, store.progress["ch1"].XPEarned)
	assert.Empty(t, awarder.awards)
}

func TestSubmitChallenge_XPEarnedNeverDecreases(t *testing.T) {
	challenge := &model.Challenge{
		ID:        "ch1",
		Status:    shared.StatusPublished,
		Questions: singleChoiceQuestions(t, 10),
		XPReward:  20,
	}
	svc, store, awarder, _ := newScoringFixture(t, challenge)

	_, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1", Answers: partialAnswers(10, 9),
	})
	require.NoError(t, err)

	// a worse retake keeps the earlier XP and awards nothing new
	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1", Answers: partialAnswers(10, 5),
	})
	require.NoError(t, err)

	assert.Equal(t, 50, resp.Score)
	assert.Equal(t, 30, store.progress["ch1"].XPEarned)
	assert.Equal(t, 2, store.progress["ch1"].Attempts)
	assert.Equal(t, []int{30}, awarder.awards)
}

func TestSubmitChallenge_AttemptLimit(t *testing.T) {
	challenge := &model.Challenge{
		ID:          "ch1",
		Status:      shared.StatusPublished,
		Questions:   singleChoiceQuestions(t, 2),
		XPReward:    20,
		MaxAttempts: 2,
	}
	svc, _, _, _ := newScoringFixture(t, challenge)

	for i := 0; i < 2; i++ {
		resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
			ChallengeID: "ch1", Answers: partialAnswers(2, 0),
		})
		require.NoError(t, err)
		require.NotNil(t, resp.AttemptsRemaining)
		assert.Equal(t, 1-i, *resp.AttemptsRemaining)
	}

	_, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1", Answers: partialAnswers(2, 2),
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
}

func TestSubmitChallenge_MissingAnswersCountIncorrect(t *testing.T) {
	challenge := &model.Challenge{
		ID:        "ch1",
		Status:    shared.StatusPublished,
		Questions: singleChoiceQuestions(t, 4),
		XPReward:  20,
	}
	svc, _, _, _ := newScoringFixture(t, challenge)

	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1",
		Answers:     map[int]interface{}{0: "right"},
	})
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Score)
	assert.Equal(t, 1, resp.CorrectCount)
}

func TestSubmitChallenge_MixedQuestionTypes(t *testing.T) {
	questions := []model.Question{
		{Index: 0, Type: shared.QuestionTypeSingleChoice, Options: []string{"a", "b"}, Answer: "a"},
		{Index: 1, Type: shared.QuestionTypeMultipleChoice, Options: []string{"a", "b", "c"}, Answer: []string{"a", "c"}},
		{Index: 2, Type: shared.QuestionTypeDragDrop, Answer: map[string]interface{}{"item1": "zone1", "item2": "zone2"}},
		{Index: 3, Type: shared.QuestionTypeOpenText, Reference: "photosynthesis"},
	}
	raw, err := json.Marshal(questions)
	require.NoError(t, err)

	challenge := &model.Challenge{
		ID: "ch1", Status: shared.StatusPublished, Questions: raw, XPReward: 40,
	}
	svc, _, _, oracle := newScoringFixture(t, challenge)
	oracle.score = 80

	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1",
		Answers: map[int]interface{}{
			0: "a",
			1: []interface{}{"c", "a"}, // order must not matter
			2: map[string]interface{}{"item2": "zone2", "item1": "zone1"},
			3: "the process is photosynthesis",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 100, resp.Score)
	assert.False(t, resp.DegradedGrading)
	assert.Equal(t, 1, oracle.calls)
}

func TestSubmitChallenge_OracleFallbackContainment(t *testing.T) {
	questions := []model.Question{
		{Index: 0, Type: shared.QuestionTypeOpenText, Reference: "Photosynthesis"},
		{Index: 1, Type: shared.QuestionTypeOpenText, Reference: "mitochondria"},
	}
	raw, err := json.Marshal(questions)
	require.NoError(t, err)

	challenge := &model.Challenge{
		ID: "ch1", Status: shared.StatusPublished, Questions: raw, XPReward: 10,
	}
	svc, _, _, oracle := newScoringFixture(t, challenge)
	oracle.err = errors.New("oracle down")

	resp, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "ch1",
		Answers: map[int]interface{}{
			0: "plants use PHOTOSYNTHESIS to make sugar",
			1: "the nucleus",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, resp.Score)
	assert.True(t, resp.DegradedGrading)
}

func TestSubmitChallenge_UnknownChallenge(t *testing.T) {
	svc, _, _, _ := newScoringFixture(t, nil)

	_, err := svc.SubmitChallenge("u1", dto.SubmitChallengeRequest{
		ChallengeID: "missing", Answers: map[int]interface{}{},
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrNotFound))
}

func TestStringSetsEqual(t *testing.T) {
	assert.True(t, stringSetsEqual([]string{"a", "b"}, []interface{}{"B", " a"}))
	assert.False(t, stringSetsEqual([]string{"a", "b"}, []interface{}{"a"}))
	assert.False(t, stringSetsEqual([]string{"a"}, []interface{}{"a", "b"}))
	assert.False(t, stringSetsEqual([]string{"a"}, "a"))
	assert.False(t, stringSetsEqual([]string{"a"}, []interface{}{1}))
}

func TestTextContainment(t *testing.T) {
	assert.True(t, textContainment("The answer is GRAVITY", "gravity"))
	assert.True(t, textContainment("osmo", "osmosis is the mechanism")) // either direction
	assert.False(t, textContainment("", "gravity"))
	assert.False(t, textContainment("gravity", ""))
	assert.False(t, textContainment("magnetism", "gravity"))
}
