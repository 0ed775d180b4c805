package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/audit"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type UserInput struct {
	Username string
	Name     string
	Phone    string
	Password string
	ShopID   *uint
}

type Service struct {
	db     *gorm.DB
	secret string
	cost   int
	now    func() time.Time
}

func NewService(db *gorm.DB, secret string) *Service {
	return &Service{db: db, secret: secret, cost: bcrypt.DefaultCost, now: time.Now}
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperr.Validation(apperr.MsgPasswordTooShort, nil)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	return string(h), nil
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Shop").
		Where("username = ?", normalizeUsername(username)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.Unauthorized(apperr.MsgInvalidCredentials)
		}
		return "", nil, apperr.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Unauthorized(apperr.MsgInvalidCredentials)
	}

	token, err := GenerateToken(s.secret, &user, s.now())
	if err != nil {
		return "", nil, apperr.Internal(fmt.Errorf("sign token: %w", err))
	}
	return token, &user, nil
}

// RegisterAdmin creates the first admin account. It is refused once any
// admin exists.
func (s *Service) RegisterAdmin(ctx context.Context, in UserInput) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return apperr.Internal(err)
		}
		if count > 0 {
			return apperr.Forbidden(apperr.MsgAdminExists)
		}
		in.ShopID = nil
		u, err := s.create(tx, models.Actor{}, in, models.RoleAdmin)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account if the username is free. It
// reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, in UserInput) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", normalizeUsername(in.Username)).
		Count(&n).Error; err != nil {
		return false, apperr.Internal(err)
	}
	if n > 0 {
		return false, nil
	}
	in.ShopID = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.create(tx, models.Actor{}, in, models.RoleAdmin)
		return err
	})
	return err == nil, err
}

// CreateWorker adds a till account bound to one shop.
func (s *Service) CreateWorker(ctx context.Context, actor models.Actor, in UserInput) (*models.User, error) {
	if in.ShopID == nil {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "shop_id"})
	}
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Shop{}).Where("id = ?", *in.ShopID).Count(&n).Error; err != nil {
			return apperr.Internal(err)
		}
		if n == 0 {
			return apperr.NotFound(apperr.MsgShopNotFound, nil)
		}
		u, err := s.create(tx, actor, in, models.RoleWorker)
		user = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) create(tx *gorm.DB, actor models.Actor, in UserInput, role models.UserRole) (*models.User, error) {
	username := normalizeUsername(in.Username)
	if username == "" {
		return nil, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "username"})
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	var n int64
	if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if n > 0 {
		return nil, apperr.Conflict(apperr.MsgUsernameTaken, map[string]any{"Name": username})
	}

	user := models.User{
		Username:     username,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         role,
		ShopID:       in.ShopID,
	}
	if err := tx.Omit("Shop").Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(apperr.MsgUsernameTaken, map[string]any{"Name": username})
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}

	if err := audit.WriteLog(tx, audit.LogOptions{
		ShopID:      user.ShopID,
		Actor:       actor,
		EntityType:  "user",
		EntityID:    user.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("%s account %s created", role, username),
		After:       map[string]any{"id": user.ID, "username": username, "role": role, "shop_id": user.ShopID},
	}); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) ListWorkers(ctx context.Context, shopID *uint) ([]models.User, error) {
	q := s.db.WithContext(ctx).Preload("Shop").Where("role = ?", models.RoleWorker)
	if shopID != nil {
		q = q.Where("shop_id = ?", *shopID)
	}
	var out []models.User
	if err := q.Order("username").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Shop").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized(apperr.MsgInvalidToken)
		}
		return nil, apperr.Internal(err)
	}
	return &u, nil
}
