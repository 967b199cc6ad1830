package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func (suite *HandlerTestSuite) TestListContainers_DefaultsThenOwn() {
	testutil.CreateContainer(suite.T(), suite.db, "Backlog", suite.alice.ID)
	testutil.CreateContainer(suite.T(), suite.db, "Someday", suite.bob.ID)

	c, w := suite.createAuthContext(http.MethodGet, "/api/containers", nil, suite.alice.ID)
	suite.containers.ListContainers(c)

	suite.Equal(http.StatusOK, w.Code)

	var response struct {
		Containers []dto.ContainerDTO `json:"containers"`
	}
	suite.decode(w, &response)
	suite.Require().Len(response.Containers, 5)
	suite.True(response.Containers[0].IsDefault)
	suite.Equal("Backlog", response.Containers[4].Title)
}

func (suite *HandlerTestSuite) TestCreateContainer_Success() {
	c, w := suite.createAuthContext(http.MethodPost, "/api/containers", gin.H{"title": "Backlog", "color": "#123ABC"}, suite.alice.ID)
	suite.containers.CreateContainer(c)

	suite.Equal(http.StatusCreated, w.Code)

	var response dto.ContainerDTO
	suite.decode(w, &response)
	suite.Equal("Backlog", response.Title)
	suite.Equal("#123ABC", response.Color)
	suite.False(response.IsDefault)
	suite.Require().NotNil(response.OwnerID)
	suite.Equal(suite.alice.ID, *response.OwnerID)
}

func (suite *HandlerTestSuite) TestCreateContainer_InvalidColor() {
	c, w := suite.createAuthContext(http.MethodPost, "/api/containers", gin.H{"title": "Backlog", "color": "blue"}, suite.alice.ID)
	suite.containers.CreateContainer(c)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateContainer_Default() {
	title := "Todo"
	c, w := suite.createAuthContext(http.MethodPut, "/api/containers/1", gin.H{"title": title}, suite.alice.ID)
	suite.containers.UpdateContainer(withID(c, suite.open().ID))

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateContainer_NotOwner() {
	backlog := testutil.CreateContainer(suite.T(), suite.db, "Backlog", suite.alice.ID)

	c, w := suite.createAuthContext(http.MethodPut, "/api/containers/5", gin.H{"title": "Mine"}, suite.bob.ID)
	suite.containers.UpdateContainer(withID(c, backlog.ID))

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteContainer_InUse() {
	backlog := testutil.CreateContainer(suite.T(), suite.db, "Backlog", suite.alice.ID)
	testutil.CreateTask(suite.T(), suite.db, "Waiting", suite.alice.ID, backlog, 1024)

	c, w := suite.createAuthContext(http.MethodDelete, "/api/containers/5", nil, suite.alice.ID)
	suite.containers.DeleteContainer(withID(c, backlog.ID))

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteContainer_Success() {
	backlog := testutil.CreateContainer(suite.T(), suite.db, "Backlog", suite.alice.ID)

	c, w := suite.createAuthContext(http.MethodDelete, "/api/containers/5", nil, suite.alice.ID)
	suite.containers.DeleteContainer(withID(c, backlog.ID))

	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestReorderContainer_Success() {
	a := testutil.CreateTask(suite.T(), suite.db, "A", suite.alice.ID, suite.open(), 1024)
	b := testutil.CreateTask(suite.T(), suite.db, "B", suite.alice.ID, suite.open(), 2048)

	body := gin.H{"items": []gin.H{
		{"task_id": a.ID, "sort_index": 3072},
		{"task_id": b.ID, "sort_index": 512},
	}}
	c, w := suite.createAuthContext(http.MethodPost, "/api/containers/1/reorder", body, suite.alice.ID)
	suite.containers.ReorderContainer(withID(c, suite.open().ID))

	suite.Equal(http.StatusOK, w.Code)

	var response dto.BulkResultResponse
	suite.decode(w, &response)
	suite.Equal(int64(2), response.Modified)
}

func (suite *HandlerTestSuite) TestReorderContainer_TaskElsewhere() {
	a := testutil.CreateTask(suite.T(), suite.db, "A", suite.alice.ID, suite.inProgress(), 1024)

	body := gin.H{"items": []gin.H{{"task_id": a.ID, "sort_index": 1}}}
	c, w := suite.createAuthContext(http.MethodPost, "/api/containers/1/reorder", body, suite.alice.ID)
	suite.containers.ReorderContainer(withID(c, suite.open().ID))

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestReorderContainer_MissingSortIndex() {
	a := testutil.CreateTask(suite.T(), suite.db, "A", suite.alice.ID, suite.open(), 1024)

	body := gin.H{"items": []gin.H{{"task_id": a.ID}}}
	c, w := suite.createAuthContext(http.MethodPost, "/api/containers/1/reorder", body, suite.alice.ID)
	suite.containers.ReorderContainer(withID(c, suite.open().ID))

	suite.Equal(http.StatusBadRequest, w.Code)

	var unchanged models.Task
	suite.Require().NoError(suite.db.First(&unchanged, a.ID).Error)
	suite.Equal(1024.0, unchanged.SortIndex)
}
