package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/store"
)

type fakeScheduleStore struct {
	store.Store

	due      []store.ReportSchedule
	enqueued []uuid.UUID
	runsByID map[uuid.UUID]*store.ReportRun
	advanced map[uuid.UUID]time.Time
}

func (f *fakeScheduleStore) DueReportSchedules(ctx context.Context, now time.Time) ([]store.ReportSchedule, error) {
	return f.due, nil
}

func (f *fakeScheduleStore) EnqueueReportRunForSchedule(ctx context.Context, schedule *store.ReportSchedule, slot time.Time) (*store.ReportRun, bool, error) {
	f.enqueued = append(f.enqueued, schedule.ID)
	run := &store.ReportRun{ID: uuid.New(), TemplateID: schedule.TemplateID, ScheduleID: &schedule.ID}
	if f.runsByID == nil {
		f.runsByID = make(map[uuid.UUID]*store.ReportRun)
	}
	f.runsByID[schedule.ID] = run
	return run, true, nil
}

func (f *fakeScheduleStore) AdvanceScheduleNextRun(ctx context.Context, scheduleID uuid.UUID, nextRunAt time.Time) error {
	if f.advanced == nil {
		f.advanced = make(map[uuid.UUID]time.Time)
	}
	f.advanced[scheduleID] = nextRunAt
	return nil
}

type fakeDispatch struct{ sent []string }

func (f *fakeDispatch) Send(ctx context.Context, body string) error {
	f.sent = append(f.sent, body)
	return nil
}

func TestScheduler_EnqueuesAndAdvancesEachDueSchedule(t *testing.T) {
	schedule := store.ReportSchedule{
		ID: uuid.New(), TemplateID: uuid.New(), Frequency: store.FrequencyDaily,
		TimeLocal: "09:00", Timezone: "America/Bogota", Enabled: true,
	}
	f := &fakeScheduleStore{due: []store.ReportSchedule{schedule}}
	dispatch := &fakeDispatch{}
	sched := NewScheduler(f, dispatch, zap.NewNop())

	enqueued, err := sched.Sweep(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, enqueued)
	assert.Equal(t, []uuid.UUID{schedule.ID}, f.enqueued)
	assert.Len(t, dispatch.sent, 1)
	_, advancedOK := f.advanced[schedule.ID]
	assert.True(t, advancedOK)
}

func TestComputeNextRunAt_DailyRollsToNextDay(t *testing.T) {
	loc, _ := time.LoadLocation("America/Bogota")
	schedule := &store.ReportSchedule{Frequency: store.FrequencyDaily, TimeLocal: "09:00", Timezone: "America/Bogota"}
	after := time.Date(2026, 7, 31, 10, 0, 0, 0, loc)

	next, err := computeNextRunAt(schedule, after)

	require.NoError(t, err)
	assert.Equal(t, 1, next.In(loc).Day())
	assert.Equal(t, time.August, next.In(loc).Month())
	assert.Equal(t, 9, next.In(loc).Hour())
}

func TestComputeNextRunAt_WeeklyRequiresDayOfWeek(t *testing.T) {
	schedule := &store.ReportSchedule{Frequency: store.FrequencyWeekly, TimeLocal: "09:00", Timezone: "UTC"}

	_, err := computeNextRunAt(schedule, time.Now())

	assert.Error(t, err)
}

func TestComputeNextRunAt_WeeklyPicksTargetWeekday(t *testing.T) {
	monday := 1
	schedule := &store.ReportSchedule{Frequency: store.FrequencyWeekly, DayOfWeek: &monday, TimeLocal: "09:00", Timezone: "UTC"}
	after := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) // a Friday

	next, err := computeNextRunAt(schedule, after)

	require.NoError(t, err)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.True(t, next.After(after))
}
