package handlers

import (
	"net/http"

	"github.com/yukikurage/kanban-board-api/internal/dto"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func (suite *HandlerTestSuite) TestGetBoard() {
	second := testutil.CreateTask(suite.T(), suite.db, "Second", suite.alice.ID, suite.open(), 2048)
	first := testutil.CreateTask(suite.T(), suite.db, "First", suite.alice.ID, suite.open(), 1024, suite.bob.ID)

	c, w := suite.createAuthContext(http.MethodGet, "/api/board", nil, suite.alice.ID)
	suite.board.GetBoard(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var board dto.BoardResponse
	suite.decode(w, &board)
	suite.Require().Len(board.Columns, 4)

	open := board.Columns[0]
	suite.Equal("Open", open.Container.Title)
	suite.Require().Len(open.Tasks, 2)
	suite.Equal(first.ID, open.Tasks[0].ID)
	suite.Equal(second.ID, open.Tasks[1].ID)
	suite.Equal("No due date", open.Tasks[0].DueDateLabel)
	suite.Require().Len(open.Tasks[0].Assignees, 1)
	suite.Equal(suite.bob.ID, open.Tasks[0].Assignees[0].UserID)
	suite.NotEmpty(open.Tasks[0].Assignees[0].Color)

	suite.Empty(board.Columns[1].Tasks)
}
