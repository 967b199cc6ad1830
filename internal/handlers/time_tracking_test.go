package handlers

import (
	"net/http"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func (suite *HandlerTestSuite) TestStartStopTracking() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1024)

	c, w := suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/start", nil, suite.alice.ID)
	suite.time.StartTracking(withID(c, task.ID))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var started dto.SessionDTO
	suite.decode(w, &started)
	suite.True(started.IsActive)
	suite.Nil(started.EndTime)
	suite.True(suite.clock.Now.Equal(started.StartTime))
	suite.Zero(started.Duration)
	suite.Equal("00:00:00", started.FormattedDuration)

	suite.clock.Advance(125 * time.Second)

	c, w = suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/stop", nil, suite.alice.ID)
	suite.time.StopTracking(withID(c, task.ID))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var stopped dto.SessionDTO
	suite.decode(w, &stopped)
	suite.False(stopped.IsActive)
	suite.Equal(int64(125), stopped.Duration)
	suite.Equal("00:02:05", stopped.FormattedDuration)
	suite.Require().NotNil(stopped.EndTime)
	suite.True(suite.clock.Now.Equal(*stopped.EndTime))
}

func (suite *HandlerTestSuite) TestStartTracking_ConflictNamesOtherTask() {
	first := testutil.CreateTask(suite.T(), suite.db, "First", suite.alice.ID, suite.open(), 1024)
	second := testutil.CreateTask(suite.T(), suite.db, "Second", suite.alice.ID, suite.open(), 2048)

	c, w := suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/start", nil, suite.alice.ID)
	suite.time.StartTracking(withID(c, first.ID))
	suite.Require().Equal(http.StatusCreated, w.Code)

	c, w = suite.createAuthContext(http.MethodPost, "/api/tasks/2/time/start", nil, suite.alice.ID)
	suite.time.StartTracking(withID(c, second.ID))
	suite.Equal(http.StatusConflict, w.Code)

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			TaskID    uint64 `json:"task_id"`
			TaskTitle string `json:"task_title"`
		} `json:"details"`
	}
	suite.decode(w, &body)
	suite.Equal(apierrors.ErrCodeConflict, body.Code)
	suite.Equal(first.ID, body.Details.TaskID)
	suite.Equal("First", body.Details.TaskTitle)
	suite.Contains(body.Message, "First")
}

func (suite *HandlerTestSuite) TestStopTracking_NoSession() {
	task := testutil.CreateTask(suite.T(), suite.db, "Idle", suite.alice.ID, suite.open(), 1024)

	c, w := suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/stop", nil, suite.alice.ID)
	suite.time.StopTracking(withID(c, task.ID))

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestStartTracking_Stranger() {
	task := testutil.CreateTask(suite.T(), suite.db, "Private", suite.alice.ID, suite.open(), 1024)

	c, w := suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/start", nil, suite.bob.ID)
	suite.time.StartTracking(withID(c, task.ID))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestGetStatusAndActive() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1024)

	c, w := suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/start", nil, suite.alice.ID)
	suite.time.StartTracking(withID(c, task.ID))
	suite.Require().Equal(http.StatusCreated, w.Code)
	suite.clock.Advance(30 * time.Second)

	c, w = suite.createAuthContext(http.MethodGet, "/api/tasks/1/time/status", nil, suite.alice.ID)
	suite.time.GetStatus(withID(c, task.ID))
	suite.Require().Equal(http.StatusOK, w.Code)

	var status dto.TrackingStatusDTO
	suite.decode(w, &status)
	suite.True(status.IsActive)
	suite.Equal(int64(30), status.CurrentDuration)

	c, w = suite.createAuthContext(http.MethodGet, "/api/time/active", nil, suite.alice.ID)
	suite.time.ListActive(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var active struct {
		Sessions []dto.ActiveSessionDTO `json:"sessions"`
	}
	suite.decode(w, &active)
	suite.Require().Len(active.Sessions, 1)
	suite.Equal("Focus", active.Sessions[0].TaskTitle)
}

func (suite *HandlerTestSuite) TestGetHistory() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1024)

	for i := 0; i < 2; i++ {
		c, w := suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/start", nil, suite.alice.ID)
		suite.time.StartTracking(withID(c, task.ID))
		suite.Require().Equal(http.StatusCreated, w.Code)
		suite.clock.Advance(time.Minute)

		c, w = suite.createAuthContext(http.MethodPost, "/api/tasks/1/time/stop", nil, suite.alice.ID)
		suite.time.StopTracking(withID(c, task.ID))
		suite.Require().Equal(http.StatusOK, w.Code)
	}

	c, w := suite.createAuthContext(http.MethodGet, "/api/tasks/1/time/history", nil, suite.alice.ID)
	suite.time.GetHistory(withID(c, task.ID))
	suite.Require().Equal(http.StatusOK, w.Code)

	var history struct {
		Sessions []dto.SessionDTO `json:"sessions"`
	}
	suite.decode(w, &history)
	suite.Len(history.Sessions, 2)
}

func (suite *HandlerTestSuite) TestGetDashboard() {
	testutil.CreateTask(suite.T(), suite.db, "One", suite.alice.ID, suite.open(), 1024)
	testutil.CreateTask(suite.T(), suite.db, "Two", suite.alice.ID, suite.inProgress(), 1024)

	c, w := suite.createAuthContext(http.MethodGet, "/api/dashboard", nil, suite.alice.ID)
	suite.time.GetDashboard(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var dashboard dto.DashboardResponse
	suite.decode(w, &dashboard)
	suite.Equal(2, dashboard.TaskCount)
	suite.Len(dashboard.StatusCounts, 2)
	suite.Zero(dashboard.ActiveSessions)
}
