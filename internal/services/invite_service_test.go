package services

import (
	"github.com/yukikurage/report-hub-api/internal/models"
)

func (s *ServiceTestSuite) TestCreateInvite_ReinviteOverwritesPendingUser() {
	acme := s.fx.Organization("Acme")
	globex := s.fx.Organization("Globex")
	superadmin := s.fx.Superadmin("root@example.test")

	first, err := s.invites.CreateInvite(s.ctx, principal(superadmin), CreateInviteInput{
		Email:          "New@Example.test",
		OrganizationID: acme.ID,
		Role:           models.RoleUser,
	})
	s.Require().NoError(err)
	s.Equal("new@example.test", first.User.Email)
	s.True(first.User.IsPending())

	before := s.count(&models.User{}, "1 = 1")

	second, err := s.invites.CreateInvite(s.ctx, principal(superadmin), CreateInviteInput{
		Email:          "new@example.test",
		OrganizationID: globex.ID,
		Role:           models.RoleAdmin,
	})
	s.Require().NoError(err)

	s.Equal(before, s.count(&models.User{}, "1 = 1"))
	s.Equal(first.User.ID, second.User.ID)
	s.NotEqual(first.Token, second.Token)

	stored, err := s.userRepo.FindByID(s.ctx, first.User.ID)
	s.Require().NoError(err)
	s.Equal(second.Token, *stored.InviteToken)
	s.Equal(globex.ID, *stored.OrganizationID)
	s.Equal(models.RoleIDAdmin, stored.RoleID)
}

func (s *ServiceTestSuite) TestCreateInvite_UserCannotInviteAdmin() {
	org := s.fx.Organization("Acme")
	member := s.fx.Member("member@acme.test", org)
	before := s.count(&models.User{}, "1 = 1")

	_, err := s.invites.CreateInvite(s.ctx, principal(member), CreateInviteInput{
		Email:          "boss@acme.test",
		OrganizationID: org.ID,
		Role:           models.RoleAdmin,
	})
	s.ErrorIs(err, ErrPermission)
	s.Equal(before, s.count(&models.User{}, "1 = 1"))

	_, err = s.invites.CreateInvite(s.ctx, principal(member), CreateInviteInput{
		Email:          "peer@acme.test",
		OrganizationID: org.ID,
		Role:           models.RoleUser,
	})
	s.ErrorIs(err, ErrInviteForbidden)
	s.Zero(s.count(&models.User{}, "email = ?", "peer@acme.test"))
}

func (s *ServiceTestSuite) TestCreateInvite_AdminRules() {
	acme := s.fx.Organization("Acme")
	globex := s.fx.Organization("Globex")
	admin := s.fx.Admin("admin@acme.test", acme)
	s.fx.Member("active@acme.test", acme)

	_, err := s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "a@acme.test", OrganizationID: acme.ID, Role: models.RoleAdmin})
	s.ErrorIs(err, ErrAdminInviteForbidden)

	_, err = s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "a@globex.test", OrganizationID: globex.ID, Role: models.RoleUser})
	s.ErrorIs(err, ErrForeignOrganization)

	_, err = s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "active@acme.test", OrganizationID: acme.ID, Role: models.RoleUser})
	s.ErrorIs(err, ErrEmailTaken)
	s.ErrorIs(err, ErrConflict)

	_, err = s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "a@acme.test", OrganizationID: acme.ID, Role: "Superadmin"})
	s.ErrorIs(err, ErrInvalidRole)

	_, err = s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "not-an-email", OrganizationID: acme.ID, Role: models.RoleUser})
	s.ErrorIs(err, ErrInvalidEmail)

	_, err = s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "a@acme.test", OrganizationID: acme.ID})
	s.ErrorIs(err, ErrInvalidRole)
	s.Zero(s.count(&models.User{}, "email = ?", "a@acme.test"))

	invite, err := s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{Email: "a@acme.test", OrganizationID: acme.ID, Role: models.RoleUser})
	s.Require().NoError(err)
	s.Equal(models.RoleIDUser, invite.User.RoleID)
	s.GreaterOrEqual(len(invite.Token), 32)
	s.True(invite.ExpiresAt.After(invite.User.CreatedAt))
}

func (s *ServiceTestSuite) TestCreateInvite_AdminCannotClaimForeignPendingUser() {
	acme := s.fx.Organization("Acme")
	globex := s.fx.Organization("Globex")
	superadmin := s.fx.Superadmin("root@example.test")
	admin := s.fx.Admin("admin@acme.test", acme)

	pending, err := s.invites.CreateInvite(s.ctx, principal(superadmin), CreateInviteInput{
		Email:          "boss@globex.test",
		OrganizationID: globex.ID,
		Role:           models.RoleAdmin,
	})
	s.Require().NoError(err)

	_, err = s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{
		Email:          "boss@globex.test",
		OrganizationID: acme.ID,
		Role:           models.RoleUser,
	})
	s.ErrorIs(err, ErrForeignOrganization)

	stored, err := s.userRepo.FindByID(s.ctx, pending.User.ID)
	s.Require().NoError(err)
	s.Equal(globex.ID, *stored.OrganizationID)
	s.Equal(models.RoleIDAdmin, stored.RoleID)
	s.Equal(pending.Token, *stored.InviteToken)

	again, err := s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{
		Email:          "invitee@acme.test",
		OrganizationID: acme.ID,
		Role:           models.RoleUser,
	})
	s.Require().NoError(err)
	reissued, err := s.invites.CreateInvite(s.ctx, principal(admin), CreateInviteInput{
		Email:          "invitee@acme.test",
		OrganizationID: acme.ID,
		Role:           models.RoleUser,
	})
	s.Require().NoError(err)
	s.Equal(again.User.ID, reissued.User.ID)
}
