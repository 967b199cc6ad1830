package services

import (
	"github.com/yukikurage/kanban-board-api/internal/constants"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

func (suite *ServiceTestSuite) TestSeedDefaults_Idempotent() {
	suite.Require().NoError(suite.containers.SeedDefaults(suite.ctx))

	containers, err := suite.containers.List(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(containers, len(constants.DefaultContainers))
	for i, d := range constants.DefaultContainers {
		suite.Equal(d.Title, containers[i].Title)
		suite.True(containers[i].IsDefault)
		suite.Nil(containers[i].OwnerID)
	}
}

func (suite *ServiceTestSuite) TestCreateContainer() {
	container, err := suite.containers.Create(suite.ctx, CreateContainerInput{
		Title:   "  Blocked  ",
		Color:   "#ff0000",
		OwnerID: suite.alice.ID,
	})
	suite.Require().NoError(err)
	suite.Equal("Blocked", container.Title)
	suite.Equal("#FF0000", container.Color)
	suite.False(container.IsDefault)
	suite.Require().NotNil(container.OwnerID)
	suite.Equal(suite.alice.ID, *container.OwnerID)

	noColor, err := suite.containers.Create(suite.ctx, CreateContainerInput{Title: "Later", OwnerID: suite.alice.ID})
	suite.Require().NoError(err)
	suite.Equal(constants.DefaultContainerColor, noColor.Color)
}

func (suite *ServiceTestSuite) TestCreateContainer_Validation() {
	_, err := suite.containers.Create(suite.ctx, CreateContainerInput{Title: "   ", OwnerID: suite.alice.ID})
	suite.assertCode(apierrors.ErrCodeInvalidInput, err)

	long := make([]byte, constants.MaxContainerTitleLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = suite.containers.Create(suite.ctx, CreateContainerInput{Title: string(long), OwnerID: suite.alice.ID})
	suite.assertCode(apierrors.ErrCodeInvalidInput, err)

	_, err = suite.containers.Create(suite.ctx, CreateContainerInput{Title: "Ok", Color: "red", OwnerID: suite.alice.ID})
	suite.assertCode(apierrors.ErrCodeInvalidInput, err)
}

func (suite *ServiceTestSuite) TestListContainers_DefaultsThenOwn() {
	mine := testutil.CreateContainer(suite.T(), suite.db, "Mine", suite.alice.ID)
	testutil.CreateContainer(suite.T(), suite.db, "Theirs", suite.bob.ID)

	containers, err := suite.containers.List(suite.ctx, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Require().Len(containers, 5)
	suite.Equal(mine.ID, containers[4].ID)
	for _, c := range containers[:4] {
		suite.True(c.IsDefault)
	}
}

func (suite *ServiceTestSuite) TestUpdateContainer_DefaultImmutable() {
	title := "Renamed"
	for _, requester := range []uint64{suite.alice.ID, suite.bob.ID, 0} {
		_, err := suite.containers.Update(suite.ctx, suite.open().ID, UpdateContainerInput{Title: &title}, requester)
		suite.ErrorIs(err, ErrDefaultContainerImmutable)

		err = suite.containers.Delete(suite.ctx, suite.open().ID, requester)
		suite.ErrorIs(err, ErrDefaultContainerImmutable)
	}
}

func (suite *ServiceTestSuite) TestUpdateContainer_OwnerOnly() {
	container := testutil.CreateContainer(suite.T(), suite.db, "Mine", suite.alice.ID)
	title := "Stolen"

	_, err := suite.containers.Update(suite.ctx, container.ID, UpdateContainerInput{Title: &title}, suite.bob.ID)
	suite.ErrorIs(err, ErrNotContainerOwner)

	_, err = suite.containers.Update(suite.ctx, 9999, UpdateContainerInput{Title: &title}, suite.alice.ID)
	suite.ErrorIs(err, ErrContainerNotFound)
}

func (suite *ServiceTestSuite) TestUpdateContainer_RenamePropagatesStatus() {
	container := testutil.CreateContainer(suite.T(), suite.db, "Blocked", suite.alice.ID)
	task := testutil.CreateTask(suite.T(), suite.db, "Stuck", suite.alice.ID, container, 1)

	title := "Waiting"
	color := "#123abc"
	updated, err := suite.containers.Update(suite.ctx, container.ID, UpdateContainerInput{Title: &title, Color: &color}, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Equal("Waiting", updated.Title)
	suite.Equal("#123ABC", updated.Color)

	suite.Equal("Waiting", suite.reloadTask(task.ID).Status)
}

func (suite *ServiceTestSuite) TestDeleteContainer() {
	container := testutil.CreateContainer(suite.T(), suite.db, "Blocked", suite.alice.ID)
	task := testutil.CreateTask(suite.T(), suite.db, "Stuck", suite.alice.ID, container, 1)

	err := suite.containers.Delete(suite.ctx, container.ID, suite.bob.ID)
	suite.ErrorIs(err, ErrNotContainerOwner)

	err = suite.containers.Delete(suite.ctx, container.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrContainerInUse)

	suite.Require().NoError(suite.db.Delete(task).Error)
	suite.Require().NoError(suite.containers.Delete(suite.ctx, container.ID, suite.alice.ID))

	_, err = suite.containers.FindVisible(suite.ctx, container.ID, suite.alice.ID)
	suite.ErrorIs(err, ErrContainerNotVisible)
}

func (suite *ServiceTestSuite) TestFindVisible() {
	theirs := testutil.CreateContainer(suite.T(), suite.db, "Theirs", suite.bob.ID)

	found, err := suite.containers.FindVisible(suite.ctx, suite.open().ID, suite.alice.ID)
	suite.Require().NoError(err)
	suite.Equal("Open", found.Title)

	_, err = suite.containers.FindVisible(suite.ctx, theirs.ID, suite.alice.ID)
	suite.assertCode(apierrors.ErrCodeConflict, err)

	_, err = suite.containers.FindVisible(suite.ctx, 9999, suite.alice.ID)
	suite.assertCode(apierrors.ErrCodeConflict, err)
}
