package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/donorhub/internal/entity"
	"anoa.com/donorhub/internal/modules/user/dto"
	"anoa.com/donorhub/internal/modules/user/repository"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	GoogleLogin(state string) string
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}

// DonorIndexer keeps the donor search index in step with new accounts.
type DonorIndexer interface {
	IndexDonor(ctx context.Context, user *entity.User, pledgedCents int64) error
}

type AuthOptions struct {
	Secret       string
	TokenTTL     time.Duration
	DefaultRole  string
	GoogleID     string
	GoogleSecret string
	GoogleRedir  string
	GoogleDomain string
}

type authService struct {
	repo         repository.UserRepository
	indexer      DonorIndexer
	opts         AuthOptions
	googleConfig *oauth2.Config
	userInfoURL  string
	log          *zap.Logger
	now          func() time.Time
}

func NewAuthService(repo repository.UserRepository, indexer DonorIndexer, opts AuthOptions, log *zap.Logger) AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.DefaultRole == "" {
		opts.DefaultRole = entity.RoleDonor
	}

	googleConfig := &oauth2.Config{
		ClientID:     opts.GoogleID,
		ClientSecret: opts.GoogleSecret,
		RedirectURL:  opts.GoogleRedir,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		repo:         repo,
		indexer:      indexer,
		opts:         opts,
		googleConfig: googleConfig,
		userInfoURL:  googleUserInfoURL,
		log:          log,
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.createDonor(ctx, &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	}, &entity.Profile{FullName: strings.TrimSpace(input.FullName)})
	if err != nil {
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GoogleLogin(state string) string {
	return s.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	info, err := s.fetchGoogleUser(ctx, s.googleConfig.Client(ctx, token))
	if err != nil {
		return nil, err
	}

	user, err := s.upsertGoogleUser(ctx, info)
	if err != nil {
		return nil, err
	}
	return s.buildAuthResponse(user)
}

func (s *authService) fetchGoogleUser(ctx context.Context, client *http.Client) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %s", resp.Status)
	}

	var info googleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

func (s *authService) upsertGoogleUser(ctx context.Context, info *googleUser) (*entity.User, error) {
	email := strings.ToLower(info.Email)
	if !info.VerifiedEmail {
		return nil, apperror.Forbidden("google email is not verified")
	}
	if s.opts.GoogleDomain != "" && !strings.HasSuffix(email, "@"+s.opts.GoogleDomain) {
		return nil, apperror.Forbidden("email domain must be @" + s.opts.GoogleDomain)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if user.GoogleID == nil || *user.GoogleID != info.ID {
			user.GoogleID = &info.ID
			if err := s.repo.Update(ctx, user, nil); err != nil {
				s.log.Warn("failed to link google account", zap.String("email", email), zap.Error(err))
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Google accounts get an unusable random password.
	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	username := strings.ReplaceAll(strings.Split(email, "@")[0], " ", "_")
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		username = username + "_" + uuid.NewString()[:4]
	}

	newUser := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		GoogleID:     &info.ID,
	}
	if info.Picture != "" {
		newUser.AvatarURL = &info.Picture
	}
	fullName := info.Name
	if fullName == "" {
		fullName = username
	}
	return s.createDonor(ctx, newUser, &entity.Profile{FullName: fullName})
}

func (s *authService) createDonor(ctx context.Context, user *entity.User, profile *entity.Profile) (*entity.User, error) {
	role, err := s.repo.FindRoleByName(ctx, s.opts.DefaultRole)
	if err != nil {
		return nil, fmt.Errorf("default role %q not found: %w", s.opts.DefaultRole, err)
	}
	user.RoleID = &role.ID
	user.Role = *role

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.Profile = profile

	if s.indexer != nil {
		if err := s.indexer.IndexDonor(ctx, user, 0); err != nil {
			s.log.Warn("failed to index donor", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}
	s.log.Info("donor registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := IssueToken(s.opts.Secret, user.ID, s.opts.TokenTTL, s.now())
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        user,
		Role:        &user.Role,
		Profile:     user.Profile,
	}, nil
}
