package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllSteps(t *testing.T) {
	var trace []string
	step := func(name string) func(context.Context) error {
		return func(context.Context) error { trace = append(trace, name); return nil }
	}
	err := New("ok").
		Add("a", step("a"), step("undo-a")).
		Add("b", step("b"), nil).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, trace)
}

func TestRun_CompensatesInReverse(t *testing.T) {
	boom := errors.New("boom")
	var trace []string
	rec := func(name string, err error) func(context.Context) error {
		return func(context.Context) error { trace = append(trace, name); return err }
	}

	err := New("create-user").
		Add("identity", rec("identity", nil), rec("undo-identity", nil)).
		Add("claims", rec("claims", nil), nil).
		Add("document", rec("document", nil), rec("undo-document", errors.New("store down"))).
		Add("email", rec("email", boom), rec("undo-email", nil)).
		Run(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "email", FailedStep(err))
	assert.Equal(t, []string{"identity", "claims", "document", "email", "undo-document", "undo-identity"}, trace)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, []string{"document"}, serr.Unreconciled)
}

func TestRun_CompensationIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compensatedWith error
	err := New("cancel").
		Add("a", func(context.Context) error { return nil }, func(c context.Context) error {
			compensatedWith = c.Err()
			return nil
		}).
		Add("b", func(context.Context) error { cancel(); return context.Canceled }, nil).
		Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, compensatedWith)
}

func TestFailedStep_NonSaga(t *testing.T) {
	assert.Equal(t, "", FailedStep(errors.New("x")))
}
