package domain

import "time"

type UserID string

// FlowName tags a guided multi-turn interaction that owns a session
// until it completes or is cancelled.
type FlowName string

const FlowPlaceSubmission FlowName = "place_submission"

// Stage is one state within a flow's state machine.
type Stage string

const (
	StageLocation    Stage = "location"
	StageName        Stage = "name"
	StageCategory    Stage = "category"
	StageAddress     Stage = "address"
	StageContact     Stage = "contact"
	StageHours       Stage = "hours"
	StageChainStatus Stage = "chain_status"
	StageAttributes  Stage = "attributes"
	StagePhotos      Stage = "photos"
	StageConfirm     Stage = "confirm"
)

// submissionStages is the canonical stage order of the place-submission flow.
var submissionStages = []Stage{
	StageLocation,
	StageName,
	StageCategory,
	StageAddress,
	StageContact,
	StageHours,
	StageChainStatus,
	StageAttributes,
	StagePhotos,
	StageConfirm,
}

// SubmissionStages returns the canonical stage order, first stage first.
func SubmissionStages() []Stage {
	out := make([]Stage, len(submissionStages))
	copy(out, submissionStages)
	return out
}

// Next returns the stage after s in the canonical order. ok is false
// when s is the last stage or not part of the flow.
func (s Stage) Next() (next Stage, ok bool) {
	for i, st := range submissionStages {
		if st == s && i+1 < len(submissionStages) {
			return submissionStages[i+1], true
		}
	}
	return "", false
}

// Before reports whether s comes strictly before other in the canonical order.
func (s Stage) Before(other Stage) bool {
	si, oi := -1, -1
	for i, st := range submissionStages {
		if st == s {
			si = i
		}
		if st == other {
			oi = i
		}
	}
	return si >= 0 && oi >= 0 && si < oi
}

type Timestamp = time.Time
