package caseModel

import (
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

type CaseAction string

const (
	ActionStartAnalysis    CaseAction = "start_analysis"
	ActionCompleteAnalysis CaseAction = "complete_analysis"
	ActionMarkResponded    CaseAction = "mark_responded"
	ActionArchive          CaseAction = "archive"
	ActionReopen           CaseAction = "reopen"
)

// transitions is the full edge set of the case lifecycle. Anything not in
// this table is an invalid transition - there are no wildcard edges, so e.g.
// archive is rejected while a case is still analyzing.
var transitions = map[CaseStatus]map[CaseAction]CaseStatus{
	StatusDraft: {
		ActionStartAnalysis: StatusAnalyzing,
		ActionArchive:       StatusArchived,
	},
	StatusAnalyzing: {
		ActionCompleteAnalysis: StatusReview,
	},
	StatusReview: {
		ActionMarkResponded: StatusResponded,
		ActionArchive:       StatusArchived,
	},
	StatusResponded: {
		ActionArchive: StatusArchived,
	},
	StatusArchived: {
		ActionReopen: StatusDraft,
	},
}

// Apply resolves one action against the transition table. It is pure: the
// caller persists the returned status.
func Apply(current CaseStatus, action CaseAction) (CaseStatus, error) {
	if next, ok := transitions[current][action]; ok {
		return next, nil
	}
	return current, &errs.InvalidTransition{From: string(current), Action: string(action)}
}

// Can reports whether the action is permitted without applying it.
func Can(current CaseStatus, action CaseAction) bool {
	_, ok := transitions[current][action]
	return ok
}
