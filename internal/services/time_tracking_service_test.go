package services

import (
	"sync"
	"time"

	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func (suite *ServiceTestSuite) TestStartStop_125Seconds() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)
	start := suite.clock.Now

	session, err := suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.True(session.IsActive)
	suite.True(start.Equal(session.StartTime))

	suite.clock.Advance(125 * time.Second)
	stopped, err := suite.time.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.False(stopped.IsActive)
	suite.Equal(int64(125), stopped.Duration)

	history, err := suite.time.History(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(int64(125), history[0].Duration)
	suite.Equal("00:02:05", history[0].FormattedDuration)
	suite.Require().NotNil(history[0].EndTime)
	suite.Equal(int64(125), int64(history[0].EndTime.Sub(history[0].StartTime)/time.Second))

	suite.Equal(int64(125), suite.reloadTask(task.ID).TimeTracked)
}

func (suite *ServiceTestSuite) TestStart_Authorization() {
	task := testutil.CreateTask(suite.T(), suite.db, "Shared", suite.alice.ID, suite.open(), 1, suite.bob.ID)

	_, err := suite.time.Start(suite.ctx, task.ID, suite.carol.ID)
	suite.ErrorIs(err, ErrTaskAccessDenied)

	_, err = suite.time.Start(suite.ctx, 9999, suite.alice.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.time.Start(suite.ctx, task.ID, suite.bob.ID)
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestStart_AlreadyActiveInTask() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)

	_, err := suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)

	_, err = suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrSessionAlreadyActive)
}

func (suite *ServiceTestSuite) TestStart_ActiveElsewhereNamesTask() {
	first := testutil.CreateTask(suite.T(), suite.db, "First", suite.alice.ID, suite.open(), 1)
	second := testutil.CreateTask(suite.T(), suite.db, "Second", suite.alice.ID, suite.open(), 2)

	_, err := suite.time.Start(suite.ctx, first.ID, suite.alice.ID)
	suite.Require().NoError(err)

	_, err = suite.time.Start(suite.ctx, second.ID, suite.alice.ID)
	suite.assertCode(apierrors.ErrCodeConflict, err)
	suite.Contains(err.Error(), "First")

	apiErr, ok := err.(*apierrors.APIError)
	suite.Require().True(ok)
	details, ok := apiErr.Details.(ActiveSessionConflict)
	suite.Require().True(ok)
	suite.Equal(first.ID, details.TaskID)
	suite.Equal("First", details.TaskTitle)
}

func (suite *ServiceTestSuite) TestStart_ConcurrentStartsOneWins() {
	tasks := []*models.Task{
		testutil.CreateTask(suite.T(), suite.db, "One", suite.alice.ID, suite.open(), 1),
		testutil.CreateTask(suite.T(), suite.db, "Two", suite.alice.ID, suite.open(), 2),
		testutil.CreateTask(suite.T(), suite.db, "Three", suite.alice.ID, suite.open(), 3),
		testutil.CreateTask(suite.T(), suite.db, "Four", suite.alice.ID, suite.open(), 4),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(tasks)*2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.time.Start(suite.ctx, tasks[i%len(tasks)].ID, suite.alice.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.Equal(apierrors.ErrCodeConflict, apierrors.CodeOf(err), err.Error())
	}
	suite.Equal(1, succeeded)

	var active int64
	suite.db.Model(&models.Session{}).Where("user_id = ? AND is_active = ?", suite.alice.ID, true).Count(&active)
	suite.Equal(int64(1), active)
}

func (suite *ServiceTestSuite) TestStop_NoActiveSession() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)

	_, err := suite.time.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrNoActiveSession)

	_, err = suite.time.Stop(suite.ctx, 9999, suite.alice.ID)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *ServiceTestSuite) TestStop_ClockBehindStartIsZero() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)

	_, err := suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)

	suite.clock.Advance(-time.Minute)
	stopped, err := suite.time.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Zero(stopped.Duration)
	suite.False(stopped.EndTime.Before(stopped.StartTime))
}

func (suite *ServiceTestSuite) TestStatus() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1, suite.bob.ID)

	status, err := suite.time.Status(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.False(status.IsActive)
	suite.Nil(status.ActiveSession)

	_, err = suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(60 * time.Second)
	_, err = suite.time.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)

	_, err = suite.time.Start(suite.ctx, task.ID, suite.bob.ID)
	suite.Require().NoError(err)
	_, err = suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(15 * time.Second)

	status, err = suite.time.Status(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.True(status.IsActive)
	suite.Require().NotNil(status.ActiveSession)
	suite.Equal(int64(15), status.CurrentDuration)
	suite.Equal(int64(60), status.TaskTimeTracked)
	suite.Equal(int64(75), status.UserTotal)

	_, err = suite.time.Status(suite.ctx, task.ID, suite.carol.ID)
	suite.ErrorIs(err, ErrTaskAccessDenied)
}

func (suite *ServiceTestSuite) TestHistory_LiveDurationForActive() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)

	_, err := suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(10 * time.Second)
	_, err = suite.time.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)

	suite.clock.Advance(time.Hour)
	_, err = suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(3725 * time.Second)

	history, err := suite.time.History(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 2)
	suite.False(history[0].IsActive)
	suite.Equal("00:00:10", history[0].FormattedDuration)
	suite.True(history[1].IsActive)
	suite.Nil(history[1].EndTime)
	suite.Equal(int64(3725), history[1].Duration)
	suite.Equal("01:02:05", history[1].FormattedDuration)

	// Live durations are not persisted.
	suite.Equal(int64(10), suite.reloadTask(task.ID).TimeTracked)
}

func (suite *ServiceTestSuite) TestListActive() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)

	active, err := suite.time.ListActive(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Empty(active)

	_, err = suite.time.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(42 * time.Second)

	active, err = suite.time.ListActive(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(active, 1)
	suite.Equal(task.ID, active[0].TaskID)
	suite.Equal("Focus", active[0].TaskTitle)
	suite.Equal(int64(42), active[0].Duration)
}

func (suite *ServiceTestSuite) TestDashboard_LiveTotalsAdvance() {
	tracked := testutil.CreateTask(suite.T(), suite.db, "Tracked", suite.alice.ID, suite.open(), 1, suite.bob.ID)
	idle := testutil.CreateTask(suite.T(), suite.db, "Idle", suite.alice.ID, &suite.defaults[3], 1)
	testutil.CreateTask(suite.T(), suite.db, "Not mine", suite.bob.ID, suite.open(), 2)

	_, err := suite.time.Start(suite.ctx, tracked.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(100 * time.Second)
	_, err = suite.time.Stop(suite.ctx, tracked.ID, suite.alice.ID)
	suite.Require().NoError(err)
	_, err = suite.time.Start(suite.ctx, tracked.ID, suite.bob.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(20 * time.Second)

	dashboard, err := suite.time.Dashboard(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Equal(2, dashboard.TaskCount)
	suite.Equal(1, dashboard.ActiveSessions)
	suite.Equal([]StatusCount{{Status: "Done", Count: 1}, {Status: "Open", Count: 1}}, dashboard.StatusCounts)
	suite.Equal(int64(120), dashboard.TotalSeconds)

	totals := map[uint64]DashboardTask{}
	for _, t := range dashboard.Tasks {
		totals[t.TaskID] = t
	}
	suite.Equal(int64(120), totals[tracked.ID].TotalSeconds)
	suite.True(totals[tracked.ID].IsActive)
	suite.Equal(int64(0), totals[idle.ID].TotalSeconds)

	suite.clock.Advance(time.Second)
	later, err := suite.time.Dashboard(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Equal(dashboard.TotalSeconds+1, later.TotalSeconds)
}
