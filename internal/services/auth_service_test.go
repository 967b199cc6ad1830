package services

import (
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

func (suite *ServiceTestSuite) TestAuth_SignupLogin() {
	auth := NewAuthService(repository.NewUserRepository(suite.db))

	user, err := auth.Signup(suite.ctx, SignupInput{
		Username: " dave ",
		Password: "password123",
		Name:     "Dave",
		Email:    "dave@example.com",
	})
	suite.Require().NoError(err)
	suite.Equal("dave", user.Username)
	suite.Equal("Dave", user.DisplayName())
	suite.NotEqual("password123", user.PasswordHash)

	_, err = auth.Signup(suite.ctx, SignupInput{Username: "dave", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameTaken)

	_, err = auth.Signup(suite.ctx, SignupInput{Username: "erin", Password: "short"})
	suite.ErrorIs(err, ErrPasswordTooShort)

	_, err = auth.Signup(suite.ctx, SignupInput{Username: "erin", Password: "password123", Email: "not-an-email"})
	suite.ErrorIs(err, ErrInvalidEmail)

	_, err = auth.Signup(suite.ctx, SignupInput{Username: "ab", Password: "password123"})
	suite.ErrorIs(err, ErrUsernameLength)

	loggedIn, err := auth.Login(suite.ctx, LoginInput{Username: "dave", Password: "password123"})
	suite.Require().NoError(err)
	suite.Equal(user.ID, loggedIn.ID)

	_, err = auth.Login(suite.ctx, LoginInput{Username: "dave", Password: "wrong-password"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	_, err = auth.Login(suite.ctx, LoginInput{Username: "nobody", Password: "password123"})
	suite.ErrorIs(err, ErrInvalidCredentials)

	found, err := auth.GetUser(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal("dave", found.Username)

	_, err = auth.GetUser(suite.ctx, 9999)
	suite.ErrorIs(err, ErrUserNotFound)
}
