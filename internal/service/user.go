package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	db      *gorm.DB
	follows *FollowGuard
	recipes *RecipeService
}

func NewUserService(db *gorm.DB, follows *FollowGuard, recipes *RecipeService) *UserService {
	return &UserService{
		db:      db,
		follows: follows,
		recipes: recipes,
	}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := q.Order("username").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user"}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Subscriptions lists the authors viewer follows.
func (s *UserService) Subscriptions(ctx context.Context, viewer *models.User, limit, offset int) ([]models.User, int64, error) {
	following := s.db.Model(&models.Follow{}).Select("following_id").Where("user_id = ?", viewer.ID)
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)", following).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := q.Order("username").Limit(limit).Offset(offset).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return authors, total, nil
}

// Subscribe makes viewer follow the author.
func (s *UserService) Subscribe(ctx context.Context, viewer *models.User, authorID uuid.UUID) (*models.User, error) {
	if _, err := s.follows.Add(ctx, viewer.ID, authorID); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, authorID)
}

func (s *UserService) Unsubscribe(ctx context.Context, viewer *models.User, authorID uuid.UUID) error {
	return s.follows.Remove(ctx, viewer.ID, authorID)
}

// SubscriptionView renders an author the viewer follows, with up to
// recipesLimit of their newest recipes. A non-positive limit means all.
func (s *UserService) SubscriptionView(ctx context.Context, viewer *models.User, author *models.User, recipesLimit int) (types.SubscriptionResponse, error) {
	subscribed, err := s.follows.Exists(ctx, viewer.ID, author.ID)
	if err != nil {
		return types.SubscriptionResponse{}, err
	}

	recipes, count, err := s.recipes.ListByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return types.SubscriptionResponse{}, err
	}

	short := make([]types.ShortRecipeResponse, 0, len(recipes))
	for i := range recipes {
		short = append(short, types.NewShortRecipe(&recipes[i]))
	}

	return types.SubscriptionResponse{
		UserResponse: userResponse(author, subscribed),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}
