// services/oracle.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

// ScoringOracle grades a free-text answer against a reference answer and
// rubric, returning 0-100. Implementations must be treated as fallible; the
// scoring engine has a degraded path for when they are down.
type ScoringOracle interface {
	ScoreAnswer(question, answer, reference, rubric string) (int, error)
}

// OracleService is the HTTP client for the hosted scoring oracle.
type OracleService struct {
	context.DefaultService

	httpClient *http.Client
	apiURL     string
}

const ORACLE_SVC = "oracle_svc"

func (svc OracleService) Id() string {
	return ORACLE_SVC
}

func (svc *OracleService) Configure(ctx *context.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}
	svc.apiURL = os.Getenv("SCORING_ORACLE_URL")
	if svc.apiURL == "" {
		svc.apiURL = "http://localhost:9090/v1/score"
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *OracleService) Start() error {
	return nil
}

type oracleRequest struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Reference string `json:"reference"`
	Rubric    string `json:"rubric"`
}

type oracleResponse struct {
	Score int `json:"score"`
}

func (svc *OracleService) ScoreAnswer(question, answer, reference, rubric string) (int, error) {
	body, err := json.Marshal(oracleRequest{
		Question:  question,
		Answer:    answer,
		Reference: reference,
		Rubric:    rubric,
	})
	if err != nil {
		return 0, shared.NewUpstreamError(err, "Failed to encode oracle request")
	}

	resp, err := svc.httpClient.Post(svc.apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Warn("Scoring oracle unreachable")
		return 0, shared.NewUpstreamError(err, "Scoring oracle unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("oracle returned status %d", resp.StatusCode)
		log.WithField("status", resp.StatusCode).Warn("Scoring oracle returned non-200 status")
		return 0, shared.NewUpstreamError(err, "Scoring oracle rejected the request")
	}

	var result oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, shared.NewUpstreamError(err, "Failed to decode oracle response")
	}

	if result.Score < 0 || result.Score > 100 {
		return 0, shared.NewUpstreamError(
			fmt.Errorf("oracle score %d out of range", result.Score),
			"Scoring oracle returned an out-of-range score")
	}

	return result.Score, nil
}
