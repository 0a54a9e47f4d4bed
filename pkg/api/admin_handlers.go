package api

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/buildright/sitegate/pkg/auth"
	"github.com/buildright/sitegate/pkg/httputil"
	"github.com/buildright/sitegate/pkg/middleware"
	"github.com/buildright/sitegate/pkg/store"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Client      string `json:"client"`
	Status      string `json:"status"`
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteNotFound(w, what+" not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		httputil.WriteErrorCode(w, http.StatusConflict, "EMAIL_TAKEN", "email already registered")
	default:
		s.logger.WithError(err).Error("store operation failed")
		httputil.WriteInternalError(w)
	}
}

// listUsers returns all back-office accounts.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "users")
		return
	}
	httputil.WriteSuccess(w, "", users)
}

// createUser creates a back-office account with an explicit role.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteBadRequest(w, "password must be at least 8 characters")
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("password hash failed")
		httputil.WriteInternalError(w)
		return
	}

	user := &store.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.writeStoreError(w, err, "user")
		return
	}
	httputil.WriteCreated(w, "user created", user)
}

// getUser returns one user by ID.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	user, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "user")
		return
	}
	httputil.WriteSuccess(w, "", user)
}

// updateUser updates a user's profile, role, and optionally password.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid role")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "user")
		return
	}

	// The last superAdmin cannot demote itself out of existence via this
	// endpoint; the caller identity check keeps one root account reachable.
	if caller := middleware.IdentityFrom(r); caller != nil &&
		caller.ID == user.ID && user.Role == auth.RoleSuperAdmin && role != auth.RoleSuperAdmin {
		httputil.WriteBadRequest(w, "cannot demote your own superAdmin account")
		return
	}

	user.Email = req.Email
	user.Name = req.Name
	user.Role = role
	if req.Password != "" {
		if len(req.Password) < 8 {
			httputil.WriteBadRequest(w, "password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.WithError(err).Error("password hash failed")
			httputil.WriteInternalError(w)
			return
		}
		user.PasswordHash = string(hash)
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		s.writeStoreError(w, err, "user")
		return
	}
	httputil.WriteSuccess(w, "user updated", user)
}

// deleteUser removes a back-office account. Self-deletion is rejected.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if caller := middleware.IdentityFrom(r); caller != nil && caller.ID == id {
		httputil.WriteBadRequest(w, "cannot delete your own account")
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "user")
		return
	}
	httputil.WriteSuccess(w, "user deleted", nil)
}

// createContact receives a public contact-form submission. It sits on the
// API surface, so the global API limiter has already run.
func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Message, "message") {
		return
	}

	contact := &store.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   strings.TrimSpace(req.Phone),
		Message: req.Message,
	}
	if err := s.store.CreateContact(r.Context(), contact); err != nil {
		s.writeStoreError(w, err, "contact")
		return
	}
	httputil.WriteCreated(w, "thanks, we will be in touch", map[string]string{"id": contact.ID})
}

// listContacts returns contact submissions, newest first.
func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.ListContacts(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "contacts")
		return
	}
	httputil.WriteSuccess(w, "", contacts)
}

// getContact returns one contact submission.
func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	contact, err := s.store.GetContact(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "contact")
		return
	}
	httputil.WriteSuccess(w, "", contact)
}

// deleteContact removes a contact submission.
func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteContact(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "contact")
		return
	}
	httputil.WriteSuccess(w, "contact deleted", nil)
}

// listProjects returns all projects.
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "projects")
		return
	}
	httputil.WriteSuccess(w, "", projects)
}

// createProject creates a project.
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}
	if !validProjectStatus(req.Status) {
		httputil.WriteBadRequest(w, "invalid project status")
		return
	}

	project := &store.Project{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Client:      strings.TrimSpace(req.Client),
		Status:      req.Status,
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		s.writeStoreError(w, err, "project")
		return
	}
	httputil.WriteCreated(w, "project created", project)
}

// getProject returns one project.
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "project")
		return
	}
	httputil.WriteSuccess(w, "", project)
}

// updateProject updates a project's fields.
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req projectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}
	if !validProjectStatus(req.Status) {
		httputil.WriteBadRequest(w, "invalid project status")
		return
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "project")
		return
	}
	project.Title = strings.TrimSpace(req.Title)
	project.Description = req.Description
	project.Client = strings.TrimSpace(req.Client)
	project.Status = req.Status

	if err := s.store.UpdateProject(r.Context(), project); err != nil {
		s.writeStoreError(w, err, "project")
		return
	}
	httputil.WriteSuccess(w, "project updated", project)
}

// deleteProject removes a project.
func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "project")
		return
	}
	httputil.WriteSuccess(w, "project deleted", nil)
}

func validProjectStatus(status string) bool {
	switch status {
	case "", store.ProjectStatusPlanned, store.ProjectStatusActive, store.ProjectStatusCompleted:
		return true
	}
	return false
}
