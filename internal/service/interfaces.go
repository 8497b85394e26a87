package service

import (
	"context"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetPassword(ctx context.Context, user *models.User, current, next string) error
	DeleteAccount(ctx context.Context, user *models.User, current string) error
}

// IUserService defines user listing and subscription operations
type IUserService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	Subscriptions(ctx context.Context, viewer *models.User, limit, offset int) ([]models.User, int64, error)
	Subscribe(ctx context.Context, viewer *models.User, authorID uuid.UUID) (*models.User, error)
	Unsubscribe(ctx context.Context, viewer *models.User, authorID uuid.UUID) error
	SubscriptionView(ctx context.Context, viewer *models.User, author *models.User, recipesLimit int) (types.SubscriptionResponse, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, author *models.User, req *types.RecipeRequest) (*models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, viewer *models.User, id uuid.UUID, req *types.RecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, viewer *models.User, id uuid.UUID) error
	ListRecipes(ctx context.Context, viewer *models.User, filter types.RecipeFilter) ([]models.Recipe, int64, error)
}

// ICatalogService defines read access to tags and ingredients
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
}

type IShoppingService interface {
	BuildShoppingList(ctx context.Context, user *models.User) ([]types.ShoppingItem, error)
}

type IViewService interface {
	User(ctx context.Context, viewer *models.User, u *models.User) (types.UserResponse, error)
	Users(ctx context.Context, viewer *models.User, users []models.User) ([]types.UserResponse, error)
	Recipe(ctx context.Context, viewer *models.User, r *models.Recipe) (types.RecipeResponse, error)
	Recipes(ctx context.Context, viewer *models.User, recipes []models.Recipe) ([]types.RecipeResponse, error)
}

// Relations adds and removes one kind of user relation.
type Relations[T any] interface {
	Add(ctx context.Context, owner, target uuid.UUID) (*T, error)
	Remove(ctx context.Context, owner, target uuid.UUID) error
	Exists(ctx context.Context, owner, target uuid.UUID) (bool, error)
}

var (
	_ IAuthService                        = (*AuthService)(nil)
	_ IUserService                        = (*UserService)(nil)
	_ IRecipeService                      = (*RecipeService)(nil)
	_ ICatalogService                     = (*CatalogService)(nil)
	_ IShoppingService                    = (*ShoppingService)(nil)
	_ IViewService                        = (*ViewService)(nil)
	_ Relations[models.Favorite]          = (*FavoriteGuard)(nil)
	_ Relations[models.ShoppingCartEntry] = (*CartGuard)(nil)
	_ Relations[models.Follow]            = (*FollowGuard)(nil)
	_ ImageStore                          = (*S3ImageStore)(nil)
	_ ImageStore                          = (*LocalImageStore)(nil)
)
