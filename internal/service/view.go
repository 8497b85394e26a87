package service

import (
	"context"
	"sort"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
)

// ViewService computes the viewer-relative fields of responses. Nothing
// here is persisted; an anonymous viewer sees false everywhere.
type ViewService struct {
	follows   *FollowGuard
	favorites *FavoriteGuard
	cart      *CartGuard
}

func NewViewService(follows *FollowGuard, favorites *FavoriteGuard, cart *CartGuard) *ViewService {
	return &ViewService{
		follows:   follows,
		favorites: favorites,
		cart:      cart,
	}
}

func (v *ViewService) IsFavorited(ctx context.Context, viewer *models.User, recipeID uuid.UUID) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return v.favorites.Exists(ctx, viewer.ID, recipeID)
}

func (v *ViewService) IsInShoppingCart(ctx context.Context, viewer *models.User, recipeID uuid.UUID) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return v.cart.Exists(ctx, viewer.ID, recipeID)
}

func (v *ViewService) IsSubscribed(ctx context.Context, viewer *models.User, authorID uuid.UUID) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	return v.follows.Exists(ctx, viewer.ID, authorID)
}

// User builds the public view of u as seen by viewer.
func (v *ViewService) User(ctx context.Context, viewer *models.User, u *models.User) (types.UserResponse, error) {
	subscribed, err := v.IsSubscribed(ctx, viewer, u.ID)
	if err != nil {
		return types.UserResponse{}, err
	}
	return userResponse(u, subscribed), nil
}

// Users builds views for a page of users with one relation lookup.
func (v *ViewService) Users(ctx context.Context, viewer *models.User, users []models.User) ([]types.UserResponse, error) {
	subscribed := map[uuid.UUID]bool{}
	if viewer != nil {
		ids := make([]uuid.UUID, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		var err error
		if subscribed, err = v.follows.TargetIDs(ctx, viewer.ID, ids); err != nil {
			return nil, err
		}
	}

	out := make([]types.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userResponse(&users[i], subscribed[users[i].ID]))
	}
	return out, nil
}

// Recipe builds the full view of r as seen by viewer.
func (v *ViewService) Recipe(ctx context.Context, viewer *models.User, r *models.Recipe) (types.RecipeResponse, error) {
	list, err := v.Recipes(ctx, viewer, []models.Recipe{*r})
	if err != nil {
		return types.RecipeResponse{}, err
	}
	return list[0], nil
}

// Recipes builds views for a page of preloaded recipes.
func (v *ViewService) Recipes(ctx context.Context, viewer *models.User, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	out := make([]types.RecipeResponse, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	favorited := map[uuid.UUID]bool{}
	inCart := map[uuid.UUID]bool{}
	subscribed := map[uuid.UUID]bool{}
	if viewer != nil {
		recipeIDs := make([]uuid.UUID, 0, len(recipes))
		authorIDs := make([]uuid.UUID, 0, len(recipes))
		for _, r := range recipes {
			recipeIDs = append(recipeIDs, r.ID)
			authorIDs = append(authorIDs, r.AuthorID)
		}

		var err error
		if favorited, err = v.favorites.TargetIDs(ctx, viewer.ID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = v.cart.TargetIDs(ctx, viewer.ID, recipeIDs); err != nil {
			return nil, err
		}
		if subscribed, err = v.follows.TargetIDs(ctx, viewer.ID, authorIDs); err != nil {
			return nil, err
		}
	}

	for i := range recipes {
		r := &recipes[i]

		var author types.UserResponse
		if r.Author != nil {
			author = userResponse(r.Author, subscribed[r.AuthorID])
		}

		lines := make([]types.RecipeIngredientResponse, 0, len(r.Ingredients))
		for _, line := range r.Ingredients {
			item := types.RecipeIngredientResponse{ID: line.IngredientID, Amount: line.Amount}
			if line.Ingredient != nil {
				item.Name = line.Ingredient.Name
				item.MeasurementUnit = line.Ingredient.MeasurementUnit
			}
			lines = append(lines, item)
		}
		sort.SliceStable(lines, func(a, b int) bool { return lines[a].Name < lines[b].Name })

		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}

		out = append(out, types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           author,
			Ingredients:      lines,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
			CreatedAt:        r.CreatedAt,
		})
	}
	return out, nil
}

func userResponse(u *models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}
