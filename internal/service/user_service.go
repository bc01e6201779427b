package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"photo-share/internal/apperror"
	"photo-share/internal/auth"
	"photo-share/internal/domain"
	"photo-share/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = apperror.Unauthorized("Invalid credentials")
	// ErrUserAlreadyExists is returned when the email or username is taken.
	ErrUserAlreadyExists = apperror.Conflict("User already exists")
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

const passwordTooLongMessage = "Password must be at most 72 bytes long"

var registerMessages = map[string]string{
	"email":    "Invalid email format",
	"password": "Password must be at least 6 characters long",
	"name":     "Name is required",
	"username": "Username is required",
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Identity, error)
	VerifyCredentials(ctx context.Context, email, password string) (*domain.Identity, error)
}

type userService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	validate *validator.Validate
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher) UserService {
	return &userService{
		users:    users,
		hasher:   hasher,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validateRegistration(in); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, apperror.Internal("check existing user", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, apperror.Internal("create user", err)
	}

	return user.Identity(), nil
}

func (s *userService) validateRegistration(in RegisterInput) error {
	var fields []apperror.FieldError

	if err := s.validate.Struct(in); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return apperror.Internal("validate registration", err)
		}
		for _, fe := range invalid {
			fields = append(fields, apperror.FieldError{
				Field:   fe.Field(),
				Message: registerMessages[fe.Field()],
			})
		}
	}

	if len(in.Password) > maxPasswordBytes {
		fields = append(fields, apperror.FieldError{
			Field:   "password",
			Message: passwordTooLongMessage,
		})
	}

	if len(fields) == 0 {
		return nil
	}
	return apperror.Validation("Validation failed", fields...)
}

// VerifyCredentials is the credential check behind login. Unknown emails,
// wrong passwords and empty fields all return ErrInvalidCredentials.
func (s *userService) VerifyCredentials(ctx context.Context, email, password string) (*domain.Identity, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal("load user", err)
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user.Identity(), nil
}
