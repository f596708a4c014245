package services

import (
	"time"

	"github.com/yukikurage/report-hub-api/internal/models"
	"github.com/yukikurage/report-hub-api/internal/testutil"
)

func (s *ServiceTestSuite) TestBootstrapSuperadmin_OnlyOnce() {
	user, err := s.auth.BootstrapSuperadmin(s.ctx, BootstrapInput{FullName: "Root", Email: "root@example.test", Password: "longenough"})
	s.Require().NoError(err)
	s.Equal(models.RoleSuperadmin, user.RoleName())
	s.Nil(user.OrganizationID)

	_, err = s.auth.BootstrapSuperadmin(s.ctx, BootstrapInput{FullName: "Again", Email: "again@example.test", Password: "longenough"})
	s.ErrorIs(err, ErrSuperadminExists)

	_, err = s.auth.BootstrapSuperadmin(s.ctx, BootstrapInput{FullName: "Short", Email: "short@example.test", Password: "short"})
	s.ErrorIs(err, ErrPasswordTooShort)
}

func (s *ServiceTestSuite) TestLogin() {
	org := s.fx.Organization("Acme")
	s.fx.Member("member@acme.test", org)

	user, err := s.auth.Login(s.ctx, LoginInput{Email: " Member@Acme.test ", Password: testutil.Password})
	s.Require().NoError(err)
	s.Equal("member@acme.test", user.Email)

	_, err = s.auth.Login(s.ctx, LoginInput{Email: "member@acme.test", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.Login(s.ctx, LoginInput{Email: "nobody@acme.test", Password: testutil.Password})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceTestSuite) TestCompleteRegistration() {
	org := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", org)

	invite, err := s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "new@acme.test", OrganizationID: org.ID, Role: models.RoleUser})
	s.Require().NoError(err)

	_, err = s.auth.Login(s.ctx, LoginInput{Email: "new@acme.test", Password: ""})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.CompleteRegistration(s.ctx, RegisterInput{Token: "bogus", FullName: "New", Password: "longenough"})
	s.ErrorIs(err, ErrInvalidToken)

	user, err := s.auth.CompleteRegistration(s.ctx, RegisterInput{Token: invite.Token, FullName: "New User", Password: "longenough"})
	s.Require().NoError(err)
	s.Equal("New User", user.FullName)
	s.Nil(user.InviteToken)
	s.Equal(models.RoleIDUser, user.RoleID)
	s.Equal(org.ID, *user.OrganizationID)

	_, err = s.auth.Login(s.ctx, LoginInput{Email: "new@acme.test", Password: "longenough"})
	s.NoError(err)

	// the token is single use
	_, err = s.auth.CompleteRegistration(s.ctx, RegisterInput{Token: invite.Token, FullName: "Again", Password: "longenough"})
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *ServiceTestSuite) TestCompleteRegistration_ExpiredToken() {
	org := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", org)

	invite, err := s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "late@acme.test", OrganizationID: org.ID, Role: models.RoleUser})
	s.Require().NoError(err)

	s.auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = s.auth.CompleteRegistration(s.ctx, RegisterInput{Token: invite.Token, FullName: "Late", Password: "longenough"})
	s.ErrorIs(err, ErrTokenExpired)

	stored, err := s.userRepo.FindByID(s.ctx, invite.User.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.InviteToken)
	s.Equal(invite.Token, *stored.InviteToken)
	s.True(stored.IsPending())
}

func (s *ServiceTestSuite) TestPasswordReset() {
	acme := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", acme)
	member := s.fx.Member("member@acme.test", acme)
	foreignAdmin := s.fx.Admin("admin@globex.test", s.fx.Organization("Globex"))

	_, err := s.auth.IssuePasswordReset(s.ctx, principal(member), "admin@acme.test")
	s.ErrorIs(err, ErrAdminOnly)

	_, err = s.auth.IssuePasswordReset(s.ctx, principal(foreignAdmin), "member@acme.test")
	s.ErrorIs(err, ErrForeignOrganization)

	_, err = s.auth.IssuePasswordReset(s.ctx, principal(admin), "ghost@acme.test")
	s.ErrorIs(err, ErrUserNotFound)

	ticket, err := s.auth.IssuePasswordReset(s.ctx, principal(admin), "member@acme.test")
	s.Require().NoError(err)
	s.Equal(member.ID, ticket.UserID)

	s.ErrorIs(s.auth.ResetPassword(s.ctx, "bogus", "brand-new-pass"), ErrInvalidToken)
	s.Require().NoError(s.auth.ResetPassword(s.ctx, ticket.Token, "brand-new-pass"))

	_, err = s.auth.Login(s.ctx, LoginInput{Email: "member@acme.test", Password: testutil.Password})
	s.ErrorIs(err, ErrInvalidCredentials)
	_, err = s.auth.Login(s.ctx, LoginInput{Email: "member@acme.test", Password: "brand-new-pass"})
	s.NoError(err)

	s.ErrorIs(s.auth.ResetPassword(s.ctx, ticket.Token, "another-pass"), ErrInvalidToken)
}

func (s *ServiceTestSuite) TestPasswordReset_Expired() {
	acme := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", acme)
	s.fx.Member("member@acme.test", acme)

	ticket, err := s.auth.IssuePasswordReset(s.ctx, principal(admin), "member@acme.test")
	s.Require().NoError(err)

	s.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	s.ErrorIs(s.auth.ResetPassword(s.ctx, ticket.Token, "brand-new-pass"), ErrTokenExpired)
}
