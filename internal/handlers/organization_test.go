package handlers

import (
	"net/http"

	"github.com/yukikurage/report-hub-api/internal/dto"
	apierrors "github.com/yukikurage/report-hub-api/internal/errors"
	"github.com/yukikurage/report-hub-api/internal/models"
)

func (s *HandlerTestSuite) TestOrganizations_SuperadminOnly() {
	org := s.fx.Organization("Acme")
	cookies := s.login(s.fx.Admin("admin@acme.test", org))

	w := s.doJSON(http.MethodGet, "/api/organizations", nil, cookies)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(apierrors.ErrCodeForbidden, s.errorCode(w))

	w = s.doJSON(http.MethodPost, "/api/organizations", map[string]string{"name": "Globex"}, cookies)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerTestSuite) TestOrganizations_Lifecycle() {
	cookies := s.login(s.fx.Superadmin("root@example.test"))

	w := s.doJSON(http.MethodPost, "/api/organizations", map[string]string{
		"name":        "Globex",
		"admin_email": "boss@globex.test",
	}, cookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created dto.CreatedOrganizationDTO
	s.decode(w, &created)
	s.Equal("Globex", created.Organization.Name)
	s.Require().NotNil(created.AdminInvite)
	s.Equal(models.RoleAdmin, created.AdminInvite.User.Role)
	s.NotEmpty(created.AdminInvite.Token)

	w = s.doJSON(http.MethodPost, "/api/organizations", map[string]string{"name": "Globex"}, cookies)
	s.Equal(http.StatusConflict, w.Code)

	orgURL := "/api/organizations/" + created.Organization.ID
	w = s.doJSON(http.MethodPut, orgURL, map[string]string{"name": "Globex Corp"}, cookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var renamed dto.OrganizationDTO
	s.decode(w, &renamed)
	s.Equal("Globex Corp", renamed.Name)

	w = s.doJSON(http.MethodGet, orgURL+"/users", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var users dto.UserListResponse
	s.decode(w, &users)
	s.Equal(int64(1), users.Pagination.Total)
	s.True(users.Users[0].Pending)

	w = s.doJSON(http.MethodGet, "/api/organizations", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodDelete, orgURL, nil, cookies)
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodDelete, orgURL, nil, cookies)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestDeleteUser() {
	org := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", org)
	member := s.fx.Member("member@acme.test", org)

	w := s.doJSON(http.MethodDelete, "/api/users/"+admin.ID, nil, s.login(member))
	s.Equal(http.StatusForbidden, w.Code)

	cookies := s.login(admin)
	w = s.doJSON(http.MethodDelete, "/api/users/"+admin.ID, nil, cookies)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodDelete, "/api/users/"+member.ID, nil, cookies)
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodDelete, "/api/users/"+member.ID, nil, cookies)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestGroupsAndFolders() {
	org := s.fx.Organization("Acme")
	admin := s.fx.Admin("admin@acme.test", org)
	member := s.fx.Member("member@acme.test", org)
	cookies := s.login(admin)

	w := s.doJSON(http.MethodPost, "/api/groups", map[string]interface{}{
		"name":       "analysts",
		"member_ids": []string{member.ID},
	}, cookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var group dto.GroupDTO
	s.decode(w, &group)
	s.Require().Len(group.Members, 1)
	s.Equal(member.ID, group.Members[0].ID)

	w = s.doJSON(http.MethodPut, "/api/groups/"+group.ID+"/members", map[string]interface{}{
		"member_ids": []string{admin.ID, member.ID},
	}, cookies)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &group)
	s.Len(group.Members, 2)

	memberCookies := s.login(member)
	w = s.doJSON(http.MethodPost, "/api/groups", map[string]string{"name": "rogue"}, memberCookies)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.doJSON(http.MethodDelete, "/api/groups/"+group.ID, nil, cookies)
	s.Equal(http.StatusOK, w.Code)

	w = s.doJSON(http.MethodPost, "/api/folders", map[string]string{"name": "Finance"}, memberCookies)
	s.Require().Equal(http.StatusCreated, w.Code)

	var folder dto.FolderDTO
	s.decode(w, &folder)

	w = s.doJSON(http.MethodPost, "/api/folders", map[string]string{"name": "Finance"}, cookies)
	s.Equal(http.StatusConflict, w.Code)

	w = s.doJSON(http.MethodGet, "/api/folders", nil, cookies)
	s.Require().Equal(http.StatusOK, w.Code)

	var folders struct {
		Folders []dto.FolderDTO `json:"folders"`
	}
	s.decode(w, &folders)
	s.Len(folders.Folders, 1)

	w = s.doJSON(http.MethodDelete, "/api/folders/"+folder.ID, nil, cookies)
	s.Equal(http.StatusOK, w.Code)
}
