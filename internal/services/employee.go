package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/data/repos"
	types "github.com/yungbote/meetingdesk-backend/internal/domain"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/dbctx"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

type EmployeeService interface {
	Create(dbc dbctx.Context, in EmployeeInput) (*types.Employee, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Employee, error)
	List(dbc dbctx.Context, opts repos.EmployeeListOptions) ([]*types.Employee, error)
	Update(dbc dbctx.Context, id uuid.UUID, in UpdateEmployeeInput) (*types.Employee, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type EmployeeInput struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
}

type UpdateEmployeeInput struct {
	Version    int     `json:"version"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Title      *string `json:"title,omitempty"`
	Department *string `json:"department,omitempty"`
}

type employeeService struct {
	db           *gorm.DB
	log          *logger.Logger
	employeeRepo repos.EmployeeRepo
}

func NewEmployeeService(db *gorm.DB, log *logger.Logger, employeeRepo repos.EmployeeRepo) EmployeeService {
	return &employeeService{
		db:           db,
		log:          log.With("service", "EmployeeService"),
		employeeRepo: employeeRepo,
	}
}

func (s *employeeService) Create(dbc dbctx.Context, in EmployeeInput) (*types.Employee, error) {
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return nil, apierr.Invalid("invalid_name", errors.New("first_name and last_name are required"))
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	e, err := s.employeeRepo.Create(dbc, &types.Employee{
		FirstName:  first,
		LastName:   last,
		Email:      email,
		Title:      strings.TrimSpace(in.Title),
		Department: strings.TrimSpace(in.Department),
	})
	if err != nil {
		return nil, emailTaken(err)
	}
	return e, nil
}

func (s *employeeService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Employee, error) {
	if err := requireID("employee_id", id); err != nil {
		return nil, err
	}
	e, err := s.employeeRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if e == nil {
		return nil, apierr.NotFound("employee")
	}
	return e, nil
}

func (s *employeeService) List(dbc dbctx.Context, opts repos.EmployeeListOptions) ([]*types.Employee, error) {
	out, err := s.employeeRepo.List(dbc, opts)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if out == nil {
		out = []*types.Employee{}
	}
	return out, nil
}

func (s *employeeService) Update(dbc dbctx.Context, id uuid.UUID, in UpdateEmployeeInput) (*types.Employee, error) {
	if _, err := s.Get(dbc, id); err != nil {
		return nil, err
	}
	if in.Version <= 0 {
		return nil, apierr.Invalid("invalid_version", errors.New("version is required"))
	}
	updates := map[string]interface{}{}
	for col, v := range map[string]*string{"first_name": in.FirstName, "last_name": in.LastName} {
		if v == nil {
			continue
		}
		name := strings.TrimSpace(*v)
		if name == "" {
			return nil, apierr.Invalid("invalid_name", fmt.Errorf("%s must not be empty", col))
		}
		updates[col] = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Department != nil {
		updates["department"] = strings.TrimSpace(*in.Department)
	}
	e, err := s.employeeRepo.UpdateWithVersion(dbc, id, in.Version, updates)
	if err != nil {
		return nil, emailTaken(versionError("employee", err))
	}
	if e == nil {
		return nil, apierr.NotFound("employee")
	}
	return e, nil
}

func (s *employeeService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if _, err := s.Get(dbc, id); err != nil {
		return err
	}
	if err := s.employeeRepo.SoftDeleteByID(dbc, id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	s.log.Info("employee deleted", "employee_id", id)
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apierr.Invalid("invalid_email", fmt.Errorf("%q is not a valid email address", raw))
	}
	return email, nil
}

func emailTaken(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierr.Conflict("email_taken", errors.New("an employee with this email already exists"))
	}
	return err
}
