package services

import (
	"context"
	"errors"
	"time"

	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
	"gorm.io/gorm"
)

// flakyTaskRepo fails SyncTimeTracked while failures remain.
type flakyTaskRepo struct {
	repository.TaskRepository
	failures int
}

func (r *flakyTaskRepo) SyncTimeTracked(ctx context.Context, id uint64) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("store hiccup")
	}
	return r.TaskRepository.SyncTimeTracked(ctx, id)
}

// staleSessionRepo answers the checks Start runs before inserting as if the
// requester had no active session, like a reader racing a concurrent start.
type staleSessionRepo struct {
	repository.SessionRepository
	staleLists int
}

func (r *staleSessionRepo) FindActive(ctx context.Context, taskID, userID uint64) (*models.Session, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *staleSessionRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]models.Session, error) {
	if r.staleLists > 0 {
		r.staleLists--
		return nil, nil
	}
	return r.SessionRepository.ListActiveByUser(ctx, userID)
}

func (suite *ServiceTestSuite) TestStop_FailedCreditIsRecoveredOnRetry() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)
	tasks := &flakyTaskRepo{TaskRepository: repository.NewTaskRepository(suite.db), failures: 1}
	service := NewTimeTrackingService(tasks, repository.NewSessionRepository(suite.db))
	service.SetClock(suite.clock.Read)

	_, err := service.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(125 * time.Second)

	_, err = service.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "store hiccup")

	// The session is closed; the retried stop has nothing to close but
	// still settles the task total.
	_, err = service.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrNoActiveSession)
	suite.Equal(int64(125), suite.reloadTask(task.ID).TimeTracked)

	_, err = service.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrNoActiveSession)
	suite.Equal(int64(125), suite.reloadTask(task.ID).TimeTracked)

	_, err = service.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(5 * time.Second)
	_, err = service.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(130), suite.reloadTask(task.ID).TimeTracked)
}

func (suite *ServiceTestSuite) TestStart_NextSessionRecoversFailedCredit() {
	task := testutil.CreateTask(suite.T(), suite.db, "Focus", suite.alice.ID, suite.open(), 1)
	tasks := &flakyTaskRepo{TaskRepository: repository.NewTaskRepository(suite.db), failures: 1}
	service := NewTimeTrackingService(tasks, repository.NewSessionRepository(suite.db))
	service.SetClock(suite.clock.Read)

	_, err := service.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(time.Minute)
	_, err = service.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().Error(err)
	suite.Zero(suite.reloadTask(task.ID).TimeTracked)

	_, err = service.Start(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.clock.Advance(30 * time.Second)
	_, err = service.Stop(suite.ctx, task.ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(90), suite.reloadTask(task.ID).TimeTracked)
}

func (suite *ServiceTestSuite) TestStart_InsertRejectionNamesHoldingTask() {
	first := testutil.CreateTask(suite.T(), suite.db, "First", suite.alice.ID, suite.open(), 1)
	second := testutil.CreateTask(suite.T(), suite.db, "Second", suite.alice.ID, suite.open(), 2)
	held, err := suite.time.Start(suite.ctx, first.ID, suite.alice.ID)
	suite.Require().NoError(err)

	sessions := &staleSessionRepo{SessionRepository: repository.NewSessionRepository(suite.db), staleLists: 1}
	service := NewTimeTrackingService(repository.NewTaskRepository(suite.db), sessions)
	service.SetClock(suite.clock.Read)

	_, err = service.Start(suite.ctx, second.ID, suite.alice.ID)
	suite.assertCode(apierrors.ErrCodeConflict, err)
	apiErr, ok := err.(*apierrors.APIError)
	suite.Require().True(ok)
	details, ok := apiErr.Details.(ActiveSessionConflict)
	suite.Require().True(ok)
	suite.Equal(first.ID, details.TaskID)
	suite.Equal("First", details.TaskTitle)
	suite.Equal(held.ID, details.SessionID)

	// Rejected on the task it already tracks.
	sessions.staleLists = 1
	_, err = service.Start(suite.ctx, first.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrSessionAlreadyActive)

	var active int64
	suite.db.Model(&models.Session{}).Where("user_id = ? AND is_active = ?", suite.alice.ID, true).Count(&active)
	suite.Equal(int64(1), active)
}
