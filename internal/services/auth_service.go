package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/session"
	"github.com/tumbuhin/farmforecast/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

const (
	stubLocation    = "Belum diatur"
	defaultLocation = "Kecamatan Cianjur"
)

// AuthEvent is the payload of SIGNED_IN and SIGNED_OUT changes.
type AuthEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	profiles *store.Repository[models.Profile]
	pub      realtime.Publisher
}

func NewAuthService(db *gorm.DB, cfg *config.Config, pub realtime.Publisher) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		profiles: store.NewRepository[models.Profile](db, pub, store.Profiles),
		pub:      pub,
	}
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.New(),
		Email:    req.Email,
		Password: string(hash),
		Role:     "user",
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.createProfile(ctx, user.ID, user.Email, req.Name); err != nil {
		// The session lookup creates the profile on first use.
		slog.Error("failed to create profile on register", "user_id", user.ID.String(), "error", err)
	}

	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, err
	}
	s.publishAuth(ctx, realtime.EventSignedIn, &user)
	return resp, nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.generateTokenPair(ctx, &user)
	if err != nil {
		return nil, err
	}
	s.publishAuth(ctx, realtime.EventSignedIn, &user)
	return resp, nil
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)
	db := s.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND user_id = ?", tokenHash, userID).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err == nil {
		s.publishAuth(ctx, realtime.EventSignedOut, &user)
	}
	return nil
}

// VerifySession confirms the user behind a token still exists and refreshes
// the role from the database.
func (s *AuthService) VerifySession(ctx context.Context, sess *session.Session) (*session.Session, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", sess.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &session.Session{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		Verified: true,
	}, nil
}

// Session resolves the caller's profile within the profile deadline. A
// missing profile is created. When the lookup fails or times out, a stub
// profile built from the session is returned with Degraded set.
func (s *AuthService) Session(ctx context.Context, sess *session.Session) *dto.SessionResponse {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProfileTimeout)
	defer cancel()

	resp := &dto.SessionResponse{
		User: dto.UserResponse{ID: sess.UserID, Email: sess.Email, Role: sess.Role},
	}

	profile, err := s.profiles.Get(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		profile, err = s.createProfile(ctx, sess.UserID, sess.Email, "")
	}
	if err != nil {
		slog.Warn("profile lookup failed, using stub profile", "user_id", sess.UserID.String(), "error", err)
		resp.Profile = stubProfile(sess)
		resp.Degraded = true
		return resp
	}

	resp.Profile = toProfileResponse(profile, defaultLocation)
	return resp
}

func (s *AuthService) createProfile(ctx context.Context, userID uuid.UUID, email, name string) (*models.Profile, error) {
	if name == "" {
		name = emailLocalPart(email)
	}
	profile := &models.Profile{
		ID:       userID,
		Email:    email,
		Name:     name,
		JoinDate: time.Now().UTC(),
	}
	if err := s.profiles.Insert(ctx, profile); err != nil {
		// Lost a race with a concurrent create; read the winner.
		if existing, getErr := s.profiles.Get(ctx, userID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *AuthService) publishAuth(ctx context.Context, t realtime.EventType, user *models.User) {
	if s.pub == nil {
		return
	}
	change, err := realtime.NewChange(realtime.AuthChannel, t, AuthEvent{UserID: user.ID, Email: user.Email})
	if err == nil {
		err = s.pub.Publish(ctx, change)
	}
	if err != nil {
		slog.Warn("failed to publish auth event", "type", string(t), "user_id", user.ID.String(), "error", err)
	}
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func stubProfile(sess *session.Session) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:       sess.UserID,
		Email:    sess.Email,
		Name:     emailLocalPart(sess.Email),
		Location: stubLocation,
		JoinDate: time.Now().UTC(),
	}
}

func toProfileResponse(p *models.Profile, fallbackLocation string) dto.ProfileResponse {
	location := fallbackLocation
	if p.Location != nil && *p.Location != "" {
		location = *p.Location
	}
	return dto.ProfileResponse{
		ID:            p.ID,
		Email:         p.Email,
		Name:          p.Name,
		Location:      location,
		DistrictID:    p.DistrictID,
		JoinDate:      p.JoinDate,
		Contributions: p.Contributions,
		Rank:          p.Rank,
		AccuracyScore: p.AccuracyScore,
	}
}
