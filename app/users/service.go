package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/suportesmart/storefront/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSelfDeletion is returned when an admin tries to remove their own account.
	ErrSelfDeletion = errors.New("cannot delete your own account")
	// ErrPrimordialAdmin protects the oldest account from deletion.
	ErrPrimordialAdmin = errors.New("cannot delete the primary administrator")
)

const minPasswordLength = 6

type UserRepository interface {
	GetAllUsers() ([]models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	CreateUser(user *models.User) error
	DeleteUser(id uint) error
	LowestID() (uint, error)
}

// ValidationErrors maps form fields to user facing messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for field, msg := range v {
		msgs = append(msgs, field+": "+msg)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

type Service struct {
	repo UserRepository
	cost int
	log  logrus.FieldLogger
}

func NewService(repo UserRepository, logger logrus.FieldLogger) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost, log: logger}
}

func (s *Service) List() ([]models.User, error) {
	return s.repo.GetAllUsers()
}

// Create registers a back office account with a bcrypt hashed password.
func (s *Service) Create(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	errs := ValidationErrors{}
	if n := len([]rune(username)); n < 4 || n > 20 {
		errs["username"] = "Username must be between 4 and 20 characters."
	}
	if len(password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("Password must have at least %d characters.", minPasswordLength)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, Password: string(hash)}
	if err := s.repo.CreateUser(user); err != nil {
		if errors.Is(err, models.ErrDuplicateUsername) {
			return nil, ValidationErrors{"username": "This username is already taken. Choose another one."}
		}
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User %q created", user.Username)
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	user, err := s.repo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.log.WithField("username", username).Warn("Login failed: unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.log.WithField("username", username).Warn("Login failed: wrong password")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Delete removes the account id on behalf of the logged in admin actorID.
func (s *Service) Delete(actorID, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID {
		return nil, ErrSelfDeletion
	}

	lowest, err := s.repo.LowestID()
	if err != nil {
		return nil, err
	}
	if user.ID == lowest {
		return nil, ErrPrimordialAdmin
	}

	if err := s.repo.DeleteUser(id); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  id,
		"actor_id": actorID,
	}).Infof("User %q deleted", user.Username)
	return user, nil
}
