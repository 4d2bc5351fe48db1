package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInstrumentation_RequiresServiceName(t *testing.T) {
	_, err := NewInstrumentation("")
	require.Error(t, err)
}

func TestNewInstrumentation_BuildsInstruments(t *testing.T) {
	inst, err := NewInstrumentation("classification-worker")
	require.NoError(t, err)
	require.NotNil(t, inst)
}

func TestRecordOutcome_SuccessAndFailure(t *testing.T) {
	inst, err := NewInstrumentation("ingestion-worker")
	require.NoError(t, err)

	ctx, span := inst.StartSpan(context.Background(), "ingest_term")
	inst.RecordOutcome(ctx, span, 0.125, nil)
	span.End()

	ctx2, span2 := inst.StartSpan(context.Background(), "ingest_term")
	inst.RecordOutcome(ctx2, span2, 0.2, errors.New("provider timeout"))
	span2.End()

	assert.NotNil(t, inst)
}
