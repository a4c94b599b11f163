package store

import (
	"database/sql"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// CandidateReview is a persisted Candidate Review row (§3): the human and AI
// decision lanes recorded against one candidate in one reviewable context.
type CandidateReview struct {
	ID             int64
	CandidateID    string
	ContextType    model.ContextKind
	ContextID      string
	HumanDecision  string
	HumanDecidedAt string
	AIDecision     string
	AIDecidedAt    string
	AIModelID      string
}

// UpsertHumanDecision records a human accept/reject decision against a
// candidate's review row, creating the row if this is the first decision of
// either lane recorded for (candidate_id, context_type, context_id).
func (s *Store) UpsertHumanDecision(candidateID string, contextType model.ContextKind, contextID, decision, decidedAt string) error {
	_, err := s.db.Exec(`INSERT INTO candidate_reviews (candidate_id, context_type, context_id, human_decision, human_decided_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(candidate_id, context_type, context_id) DO UPDATE SET
			human_decision=excluded.human_decision, human_decided_at=excluded.human_decided_at`,
		candidateID, string(contextType), contextID, decision, decidedAt)
	return err
}

// UpsertAIDecision records an AI lane decision against a candidate's review
// row, independently of the human lane (spec.md §3: the two lanes coexist on
// the same row, each with its own timestamp and, for the AI lane, model id).
func (s *Store) UpsertAIDecision(candidateID string, contextType model.ContextKind, contextID, decision, decidedAt, modelID string) error {
	_, err := s.db.Exec(`INSERT INTO candidate_reviews (candidate_id, context_type, context_id, ai_decision, ai_decided_at, ai_model_id)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(candidate_id, context_type, context_id) DO UPDATE SET
			ai_decision=excluded.ai_decision, ai_decided_at=excluded.ai_decided_at, ai_model_id=excluded.ai_model_id`,
		candidateID, string(contextType), contextID, decision, decidedAt, modelID)
	return err
}

// CandidateReviewByKey fetches the review row for one candidate in one
// context, or ok=false if neither lane has recorded a decision yet.
func (s *Store) CandidateReviewByKey(candidateID string, contextType model.ContextKind, contextID string) (CandidateReview, bool, error) {
	var r CandidateReview
	var humanDecision, humanDecidedAt, aiDecision, aiDecidedAt, aiModelID sql.NullString
	err := s.db.QueryRow(`SELECT id, candidate_id, context_type, context_id, human_decision, human_decided_at,
		ai_decision, ai_decided_at, ai_model_id FROM candidate_reviews
		WHERE candidate_id=? AND context_type=? AND context_id=?`,
		candidateID, string(contextType), contextID).Scan(
		&r.ID, &r.CandidateID, (*string)(&r.ContextType), &r.ContextID,
		&humanDecision, &humanDecidedAt, &aiDecision, &aiDecidedAt, &aiModelID)
	if err == sql.ErrNoRows {
		return CandidateReview{}, false, nil
	}
	if err != nil {
		return CandidateReview{}, false, err
	}
	r.HumanDecision = humanDecision.String
	r.HumanDecidedAt = humanDecidedAt.String
	r.AIDecision = aiDecision.String
	r.AIDecidedAt = aiDecidedAt.String
	r.AIModelID = aiModelID.String
	return r, true, nil
}
