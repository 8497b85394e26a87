package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 300
	MinAmount      = 1
	MaxAmount      = math.MaxInt32
	maxNameLength  = 200
)

type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
	}
}

// CreateRecipe validates req and stores the recipe with its tags and
// ingredient lines in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, author *models.User, req *types.RecipeRequest) (*models.Recipe, error) {
	if author == nil {
		return nil, ErrForbidden
	}

	img, verr := validateRecipeRequest(req, true)
	tags, err := s.resolveReferences(ctx, req, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := &models.Recipe{
		Name:        strings.TrimSpace(req.Name),
		Text:        req.Text,
		Image:       imageURL,
		CookingTime: req.CookingTime,
		AuthorID:    author.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceRecipeContents(tx, recipe, tags, req.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).
		Str("recipe_id", recipe.ID.String()).
		Str("author_id", author.ID.String()).
		Msg("recipe created")

	return s.GetRecipe(ctx, recipe.ID)
}

// UpdateRecipe replaces the recipe's fields, tag set and ingredient lines.
// Only the author may update; the image is kept when none is submitted.
func (s *RecipeService) UpdateRecipe(ctx context.Context, viewer *models.User, id uuid.UUID, req *types.RecipeRequest) (*models.Recipe, error) {
	recipe, err := s.findRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer == nil || recipe.AuthorID != viewer.ID {
		return nil, ErrForbidden
	}

	img, verr := validateRecipeRequest(req, false)
	tags, err := s.resolveReferences(ctx, req, verr)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	imageURL := recipe.Image
	if img != nil {
		if imageURL, err = s.images.Save(ctx, img); err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(recipe).Omit(clause.Associations).Updates(map[string]interface{}{
			"name":         strings.TrimSpace(req.Name),
			"text":         req.Text,
			"image":        imageURL,
			"cooking_time": req.CookingTime,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return replaceRecipeContents(tx, recipe, tags, req.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, id)
}

// DeleteRecipe removes the recipe and everything hanging off it.
func (s *RecipeService) DeleteRecipe(ctx context.Context, viewer *models.User, id uuid.UUID) error {
	recipe, err := s.findRecipe(ctx, id)
	if err != nil {
		return err
	}
	if viewer == nil || recipe.AuthorID != viewer.ID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.RecipeIngredient{}, &models.Favorite{}, &models.ShoppingCartEntry{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete recipe dependents: %w", err)
			}
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

// GetRecipe loads a recipe with author, tags and ingredient lines.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "recipe"}
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// ListRecipes returns one page of recipes, newest first, and the total
// number of recipes matching filter. Viewer-relative filters are ignored
// for anonymous viewers.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer *models.User, filter types.RecipeFilter) ([]models.Recipe, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if viewer != nil && filter.IsFavorited {
		q = q.Where("recipes.id IN (?)",
			s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewer.ID))
	}
	if viewer != nil && filter.IsInShoppingCart {
		q = q.Where("recipes.id IN (?)",
			s.db.Model(&models.ShoppingCartEntry{}).Select("recipe_id").Where("user_id = ?", viewer.ID))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	// past the last page; also keeps (page-1)*limit from overflowing
	if int64(page-1) > total/int64(limit) {
		return nil, total, nil
	}

	var recipes []models.Recipe
	err := preloadRecipe(q).
		Order("recipes.created_at DESC").
		Order("recipes.id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

// ListByAuthor returns up to limit of the author's newest recipes and the
// author's recipe count. A non-positive limit returns all of them.
func (s *RecipeService) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]models.Recipe, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("author_id = ?", authorID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	list := q.Order("created_at DESC").Order("id")
	if limit > 0 {
		list = list.Limit(limit)
	}
	var recipes []models.Recipe
	if err := list.Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list author recipes: %w", err)
	}
	return recipes, total, nil
}

func (s *RecipeService) findRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "recipe"}
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

// resolveReferences loads the submitted tags and checks that every
// ingredient exists, recording unknown ids on verr.
func (s *RecipeService) resolveReferences(ctx context.Context, req *types.RecipeRequest, verr *ValidationError) ([]models.Tag, error) {
	db := s.db.WithContext(ctx)

	var tags []models.Tag
	if len(req.Tags) > 0 {
		if err := db.Where("id IN ?", req.Tags).Find(&tags).Error; err != nil {
			return nil, fmt.Errorf("failed to load tags: %w", err)
		}
		known := make(map[uuid.UUID]bool, len(tags))
		for _, t := range tags {
			known[t.ID] = true
		}
		for _, id := range req.Tags {
			if !known[id] {
				verr.Add("tags", fmt.Sprintf("tag %s does not exist", id))
			}
		}
	}

	if len(req.Ingredients) > 0 {
		ids := make([]uuid.UUID, 0, len(req.Ingredients))
		for _, line := range req.Ingredients {
			ids = append(ids, line.ID)
		}
		var found []uuid.UUID
		if err := db.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("failed to load ingredients: %w", err)
		}
		known := make(map[uuid.UUID]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				verr.Add("ingredients", fmt.Sprintf("ingredient %s does not exist", id))
			}
		}
	}

	return tags, nil
}

// validateRecipeRequest checks everything that does not need the store and
// decodes the image. The image is mandatory only on create.
func validateRecipeRequest(req *types.RecipeRequest, imageRequired bool) (*DecodedImage, *ValidationError) {
	verr := &ValidationError{}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		verr.Add("name", "this field is required")
	case len([]rune(name)) > maxNameLength:
		verr.Add("name", fmt.Sprintf("ensure this field has no more than %d characters", maxNameLength))
	}

	if req.CookingTime < MinCookingTime || req.CookingTime > MaxCookingTime {
		verr.Add("cooking_time", fmt.Sprintf("cooking time must be between %d and %d minutes", MinCookingTime, MaxCookingTime))
	}

	var img *DecodedImage
	switch {
	case req.Image != "":
		decoded, err := DecodeDataURI(req.Image)
		if err != nil {
			verr.Add("image", err.Error())
		}
		img = decoded
	case imageRequired:
		verr.Add("image", "this field is required")
	}

	if len(req.Tags) == 0 {
		verr.Add("tags", "at least one tag is required")
	} else if hasDuplicates(req.Tags) {
		verr.addCause("tags", ErrDuplicateTag)
	}

	if len(req.Ingredients) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
	} else {
		ids := make([]uuid.UUID, 0, len(req.Ingredients))
		for _, line := range req.Ingredients {
			ids = append(ids, line.ID)
			if line.Amount < MinAmount || line.Amount > MaxAmount {
				verr.Add("ingredients", fmt.Sprintf("amount must be between %d and %d", MinAmount, MaxAmount))
			}
		}
		if hasDuplicates(ids) {
			verr.addCause("ingredients", ErrDuplicateIngredient)
		}
	}

	return img, verr
}

// replaceRecipeContents sets the recipe's tag set and ingredient lines to
// exactly the given ones.
func replaceRecipeContents(tx *gorm.DB, recipe *models.Recipe, tags []models.Tag, lines []types.RecipeIngredientInput) error {
	if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("failed to set recipe tags: %w", err)
	}

	if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}

	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: line.ID,
			Amount:       line.Amount,
		})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		if isDuplicateKey(err) {
			return &ValidationError{
				Fields: map[string][]string{"ingredients": {ErrDuplicateIngredient.Error()}},
				Cause:  ErrDuplicateIngredient,
			}
		}
		return fmt.Errorf("failed to create recipe ingredients: %w", err)
	}
	return nil
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.slug") }).
		Preload("Ingredients.Ingredient")
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
