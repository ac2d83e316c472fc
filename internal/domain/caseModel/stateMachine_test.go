package caseModel

import (
	"errors"
	"testing"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

func TestApplyValidEdges(t *testing.T) {
	cases := []struct {
		from   CaseStatus
		action CaseAction
		want   CaseStatus
	}{
		{StatusDraft, ActionStartAnalysis, StatusAnalyzing},
		{StatusDraft, ActionArchive, StatusArchived},
		{StatusAnalyzing, ActionCompleteAnalysis, StatusReview},
		{StatusReview, ActionMarkResponded, StatusResponded},
		{StatusReview, ActionArchive, StatusArchived},
		{StatusResponded, ActionArchive, StatusArchived},
		{StatusArchived, ActionReopen, StatusDraft},
	}
	for _, tc := range cases {
		got, err := Apply(tc.from, tc.action)
		if err != nil {
			t.Errorf("Apply(%s, %s) returned error: %v", tc.from, tc.action, err)
		}
		if got != tc.want {
			t.Errorf("Apply(%s, %s) = %s, want %s", tc.from, tc.action, got, tc.want)
		}
	}
}

func TestApplyRejectsInvalidEdges(t *testing.T) {
	cases := []struct {
		from   CaseStatus
		action CaseAction
	}{
		{StatusDraft, ActionCompleteAnalysis},
		{StatusDraft, ActionMarkResponded},
		{StatusDraft, ActionReopen},
		{StatusAnalyzing, ActionStartAnalysis},
		{StatusAnalyzing, ActionArchive},
		{StatusAnalyzing, ActionMarkResponded},
		{StatusReview, ActionStartAnalysis},
		{StatusResponded, ActionMarkResponded},
		{StatusArchived, ActionArchive},
		{StatusArchived, ActionStartAnalysis},
	}
	for _, tc := range cases {
		got, err := Apply(tc.from, tc.action)
		if err == nil {
			t.Errorf("Apply(%s, %s) should have been rejected", tc.from, tc.action)
			continue
		}
		var invalid *errs.InvalidTransition
		if !errors.As(err, &invalid) {
			t.Errorf("Apply(%s, %s) error type = %T", tc.from, tc.action, err)
			continue
		}
		if invalid.From != string(tc.from) || invalid.Action != string(tc.action) {
			t.Errorf("error carries from=%s action=%s, want %s/%s",
				invalid.From, invalid.Action, tc.from, tc.action)
		}
		if got != tc.from {
			t.Errorf("rejected Apply(%s, %s) changed status to %s", tc.from, tc.action, got)
		}
	}
}

func TestCanMirrorsApply(t *testing.T) {
	statuses := []CaseStatus{StatusDraft, StatusAnalyzing, StatusReview, StatusResponded, StatusArchived}
	actions := []CaseAction{ActionStartAnalysis, ActionCompleteAnalysis, ActionMarkResponded, ActionArchive, ActionReopen}
	for _, s := range statuses {
		for _, a := range actions {
			_, err := Apply(s, a)
			if Can(s, a) != (err == nil) {
				t.Errorf("Can(%s, %s) disagrees with Apply", s, a)
			}
		}
	}
}
