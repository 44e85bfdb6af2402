package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/tierboard/internal/contract"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/period"
	"github.com/alexanderramin/tierboard/internal/testutil"
	"github.com/alexanderramin/tierboard/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// August falls in Q2 of an April-start fiscal year.
var midQ2 = time.Date(2025, time.August, 15, 12, 0, 0, 0, time.UTC)

func progressFixture() *testutil.FakeTracker {
	return testutil.NewFakeTracker(
		testutil.NewTestItem("Close Q2 deals", testutil.WithID(7), testutil.WithDoneRatio(20),
			testutil.WithAllowedStatuses(
				domain.Status{ID: 2, Name: "In Progress"},
				domain.Status{ID: 5, Name: "Closed", IsClosed: true},
			)),
	)
}

func TestSetPeriodProgress_MapsBackToYearlyRatio(t *testing.T) {
	ft := progressFixture()
	svc := NewProgressService(ft, period.DefaultCalendar())

	req := contract.NewSetProgressRequest(7, domain.PeriodQ2, 50)
	req.Now = &midQ2
	req.Notes = "halfway through Q2"
	resp, err := svc.SetPeriodProgress(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 38, resp.DoneRatio)
	assert.Equal(t, 20, resp.PreviousRatio)
	require.Len(t, ft.Updates, 1)
	assert.Equal(t, 38, *ft.Updates[0].Update.DoneRatio)
	assert.Equal(t, "halfway through Q2", *ft.Updates[0].Update.Notes)
	assert.Nil(t, ft.Updates[0].Update.StatusID)

	stored, _ := ft.Item(7)
	assert.Equal(t, 38, stored.DoneRatio)
}

func TestSetPeriodProgress_ClosedWindowRejected(t *testing.T) {
	ft := progressFixture()
	svc := NewProgressService(ft, period.DefaultCalendar())

	req := contract.NewSetProgressRequest(7, domain.PeriodQ1, 100)
	req.Now = &midQ2
	_, err := svc.SetPeriodProgress(context.Background(), req)

	var pe *contract.ProgressError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, contract.ProgressErrPeriodClosed, pe.Code)
	assert.Contains(t, pe.Message, "2025-04-01")
	assert.Empty(t, ft.Updates)

	req.IgnoreWindow = true
	resp, err := svc.SetPeriodProgress(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 25, resp.DoneRatio)
}

func TestSetPeriodProgress_YearlyAndCumulativePeriods(t *testing.T) {
	svc := NewProgressService(progressFixture(), period.DefaultCalendar())

	cases := []struct {
		tag   domain.PeriodTag
		value int
		want  int
	}{
		{domain.PeriodYearly, 64, 64},
		{domain.PeriodHalf, 50, 25},
		{domain.PeriodThreeQ, 100, 75},
	}
	for _, tc := range cases {
		req := contract.NewSetProgressRequest(7, tc.tag, tc.value)
		req.Now = &midQ2
		resp, err := svc.SetPeriodProgress(context.Background(), req)
		require.NoError(t, err, "tag=%s", tc.tag)
		assert.Equal(t, tc.want, resp.DoneRatio, "tag=%s", tc.tag)
	}
}

func TestSetPeriodProgress_Validation(t *testing.T) {
	svc := NewProgressService(progressFixture(), period.DefaultCalendar())

	cases := []struct {
		name string
		req  contract.SetProgressRequest
		code contract.ProgressErrorCode
	}{
		{"value above range", contract.NewSetProgressRequest(7, domain.PeriodQ2, 101), contract.ProgressErrInvalidValue},
		{"negative value", contract.NewSetProgressRequest(7, domain.PeriodQ2, -1), contract.ProgressErrInvalidValue},
		{"unknown period", contract.NewSetProgressRequest(7, "Q9", 10), contract.ProgressErrInvalidPeriod},
	}
	for _, tc := range cases {
		tc.req.Now = &midQ2
		_, err := svc.SetPeriodProgress(context.Background(), tc.req)
		var pe *contract.ProgressError
		require.ErrorAs(t, err, &pe, tc.name)
		assert.Equal(t, tc.code, pe.Code, tc.name)
	}
}

func TestSetPeriodProgress_StatusMustBeAllowed(t *testing.T) {
	ft := progressFixture()
	svc := NewProgressService(ft, period.DefaultCalendar())

	bad := 9
	req := contract.NewSetProgressRequest(7, domain.PeriodQ2, 100)
	req.Now = &midQ2
	req.StatusID = &bad
	_, err := svc.SetPeriodProgress(context.Background(), req)
	var pe *contract.ProgressError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, contract.ProgressErrInvalidStatus, pe.Code)

	closed := 5
	req.StatusID = &closed
	resp, err := svc.SetPeriodProgress(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 50, resp.DoneRatio)
	stored, _ := ft.Item(7)
	assert.True(t, stored.Status.IsClosed)
}

func TestSetPeriodProgress_MissingItem(t *testing.T) {
	svc := NewProgressService(testutil.NewFakeTracker(), period.DefaultCalendar())

	req := contract.NewSetProgressRequest(404, domain.PeriodQ2, 10)
	req.Now = &midQ2
	_, err := svc.SetPeriodProgress(context.Background(), req)
	assert.ErrorIs(t, err, tracker.ErrNotFound)
}
