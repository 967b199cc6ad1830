package services

import (
	"time"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
	"github.com/yukikurage/kanban-board-api/internal/utils"
)

func (suite *ServiceTestSuite) TestBoard_ColumnsAndLabels() {
	mine := testutil.CreateContainer(suite.T(), suite.db, "Mine", suite.alice.ID)
	overdue := testutil.CreateTask(suite.T(), suite.db, "Overdue", suite.alice.ID, suite.open(), 2, suite.bob.ID)
	upcoming := testutil.CreateTask(suite.T(), suite.db, "Upcoming", suite.alice.ID, suite.open(), 1)
	undated := testutil.CreateTask(suite.T(), suite.db, "Undated", suite.alice.ID, mine, 1)

	past := suite.clock.Now.Add(-48 * time.Hour)
	future := suite.clock.Now.Add(72 * time.Hour)
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("id = ?", overdue.ID).Update("due_date", past).Error)
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("id = ?", upcoming.ID).Update("due_date", future).Error)

	columns, err := suite.board.Board(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(columns, 5)
	suite.Equal("Open", columns[0].Container.Title)
	suite.Equal(mine.ID, columns[4].Container.ID)

	open := columns[0].Tasks
	suite.Require().Len(open, 2)
	suite.Equal(upcoming.ID, open[0].Task.ID)
	suite.Equal(future.Format(constants.DueDateLayout), open[0].DueDateLabel)
	suite.Equal(overdue.ID, open[1].Task.ID)
	suite.Equal(constants.OverduePrefix+past.Format(constants.DueDateLayout), open[1].DueDateLabel)

	suite.Require().Len(open[1].Assignees, 1)
	badge := open[1].Assignees[0]
	suite.Equal(suite.bob.ID, badge.UserID)
	suite.Equal("bob", badge.Name)
	suite.Equal(utils.AssigneeColor("bob"), badge.Color)

	suite.Require().Len(columns[4].Tasks, 1)
	suite.Equal(undated.ID, columns[4].Tasks[0].Task.ID)
	suite.Equal(constants.NoDueDateLabel, columns[4].Tasks[0].DueDateLabel)

	for _, column := range columns[1:4] {
		suite.Empty(column.Tasks)
	}
}

func (suite *ServiceTestSuite) TestBoard_TiesBrokenByID() {
	first := testutil.CreateTask(suite.T(), suite.db, "First", suite.alice.ID, suite.open(), 1)
	second := testutil.CreateTask(suite.T(), suite.db, "Second", suite.alice.ID, suite.open(), 1)

	suite.Equal([]uint64{first.ID, second.ID}, suite.boardOrder(suite.open().ID))
}

func (suite *ServiceTestSuite) TestBoard_AssignedTaskInForeignContainer() {
	theirs := testutil.CreateContainer(suite.T(), suite.db, "Bob's column", suite.bob.ID)
	task := testutil.CreateTask(suite.T(), suite.db, "Help bob", suite.bob.ID, theirs, 1, suite.alice.ID)

	columns, err := suite.board.Board(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(columns, 5)
	suite.Equal(theirs.ID, columns[4].Container.ID)
	suite.Require().Len(columns[4].Tasks, 1)
	suite.Equal(task.ID, columns[4].Tasks[0].Task.ID)
}

func (suite *ServiceTestSuite) TestBoard_NoWrites() {
	task := testutil.CreateTask(suite.T(), suite.db, "Still", suite.alice.ID, suite.open(), 3)
	before := suite.reloadTask(task.ID)

	_, err := suite.board.Board(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)

	after := suite.reloadTask(task.ID)
	suite.Equal(before.SortIndex, after.SortIndex)
	suite.True(before.UpdatedAt.Equal(after.UpdatedAt))
}
