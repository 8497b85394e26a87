package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelationGuard adds and removes (owner, target) relation rows. The
// composite unique index on the relation table is what guarantees at most
// one row per pair; the pre-check only produces a friendlier error.
type RelationGuard[T any, P interface {
	*T
	models.Relation
}] struct {
	db         *gorm.DB
	target     interface{}
	targetName string
	selfCheck  bool

	duplicateMsg string
	missingMsg   string
}

// FollowGuard manages subscriptions between users.
type FollowGuard = RelationGuard[models.Follow, *models.Follow]

// FavoriteGuard manages favorite recipes.
type FavoriteGuard = RelationGuard[models.Favorite, *models.Favorite]

// CartGuard manages shopping cart entries.
type CartGuard = RelationGuard[models.ShoppingCartEntry, *models.ShoppingCartEntry]

func NewFollowGuard(db *gorm.DB) *FollowGuard {
	return &FollowGuard{
		db:           db,
		target:       &models.User{},
		targetName:   "user",
		selfCheck:    true,
		duplicateMsg: "you are already subscribed to this user",
		missingMsg:   "you are not subscribed to this user",
	}
}

func NewFavoriteGuard(db *gorm.DB) *FavoriteGuard {
	return &FavoriteGuard{
		db:           db,
		target:       &models.Recipe{},
		targetName:   "recipe",
		duplicateMsg: "recipe is already in favorites",
		missingMsg:   "recipe is not in favorites",
	}
}

func NewCartGuard(db *gorm.DB) *CartGuard {
	return &CartGuard{
		db:           db,
		target:       &models.Recipe{},
		targetName:   "recipe",
		duplicateMsg: "recipe is already in the shopping cart",
		missingMsg:   "recipe is not in the shopping cart",
	}
}

// Add creates the (owner, target) relation and returns the stored row.
func (g *RelationGuard[T, P]) Add(ctx context.Context, owner, target uuid.UUID) (*T, error) {
	if g.selfCheck && owner == target {
		return nil, &RelationError{Message: ErrSelfReference.Error(), Err: ErrSelfReference}
	}

	row := new(T)
	P(row).SetPair(owner, target)

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.requireTarget(tx, target); err != nil {
			return err
		}

		exists, err := g.exists(tx, owner, target)
		if err != nil {
			return err
		}
		if exists {
			return g.duplicate()
		}

		if err := tx.Create(row).Error; err != nil {
			if isDuplicateKey(err) {
				return g.duplicate()
			}
			return fmt.Errorf("failed to create %s relation: %w", g.targetName, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Remove deletes the (owner, target) relation.
func (g *RelationGuard[T, P]) Remove(ctx context.Context, owner, target uuid.UUID) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.requireTarget(tx, target); err != nil {
			return err
		}

		result := tx.Where(g.pair(owner, target)).Delete(new(T))
		if result.Error != nil {
			return fmt.Errorf("failed to delete %s relation: %w", g.targetName, result.Error)
		}
		if result.RowsAffected == 0 {
			return &RelationError{Message: g.missingMsg, Err: ErrNotFound}
		}
		return nil
	})
}

// Exists reports whether owner holds a relation to target.
func (g *RelationGuard[T, P]) Exists(ctx context.Context, owner, target uuid.UUID) (bool, error) {
	return g.exists(g.db.WithContext(ctx), owner, target)
}

// TargetIDs returns which of targets owner is related to.
func (g *RelationGuard[T, P]) TargetIDs(ctx context.Context, owner uuid.UUID, targets []uuid.UUID) (map[uuid.UUID]bool, error) {
	found := make(map[uuid.UUID]bool, len(targets))
	if len(targets) == 0 {
		return found, nil
	}

	col := P(new(T)).TargetColumn()
	var ids []uuid.UUID
	err := g.db.WithContext(ctx).
		Model(new(T)).
		Where("user_id = ?", owner).
		Where(col+" IN ?", targets).
		Pluck(col, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s relations: %w", g.targetName, err)
	}

	for _, id := range ids {
		found[id] = true
	}
	return found, nil
}

func (g *RelationGuard[T, P]) exists(db *gorm.DB, owner, target uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(new(T)).Where(g.pair(owner, target)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s relation: %w", g.targetName, err)
	}
	return count > 0, nil
}

func (g *RelationGuard[T, P]) requireTarget(tx *gorm.DB, target uuid.UUID) error {
	var count int64
	if err := tx.Model(g.target).Where("id = ?", target).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up %s: %w", g.targetName, err)
	}
	if count == 0 {
		return &NotFoundError{Entity: g.targetName}
	}
	return nil
}

func (g *RelationGuard[T, P]) pair(owner, target uuid.UUID) map[string]interface{} {
	cond := map[string]interface{}{"user_id": owner}
	cond[P(new(T)).TargetColumn()] = target
	return cond
}

func (g *RelationGuard[T, P]) duplicate() error {
	return &RelationError{Message: g.duplicateMsg, Err: ErrDuplicate}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
