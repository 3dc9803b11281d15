package recipe

import (
	"context"

	"gorm.io/gorm"

	"recipeshare/domain"
	"recipeshare/entities"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.Tag) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.Tag) error
		DeleteRecipe(ctx context.Context, id string) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*entities.Recipe, int64, error)
		GetFavoritedRecipeIDs(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, error)
		GetCartRecipeIDs(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, error)
		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) error
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)
		AddToCart(ctx context.Context, item *entities.ShoppingCart) error
		RemoveFromCart(ctx context.Context, userID, recipeID string) error
		IsInCart(ctx context.Context, userID, recipeID string) (bool, error)
		GetCartRecipes(ctx context.Context, userID string) ([]*entities.Recipe, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe row, its ingredient lines and its tag set
// as one transaction. The lines go in with a single bulk insert.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.Tag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Tags", "Ingredients").Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		return tx.Model(recipe).Association("Tags").Replace(tags)
	})
}

// UpdateRecipe applies replace semantics: the existing ingredient lines and
// the full tag set are discarded and re-created from the supplied ones. A
// partial list in the request fully replaces prior contents, never merges.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, lines []*entities.RecipeIngredient, tags []*entities.Tag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"image_url":    recipe.ImageURL,
			"cooking_time": recipe.CookingTime,
		}
		if err := tx.Model(&entities.Recipe{}).Where("id = ?", recipe.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		return tx.Model(recipe).Association("Tags").Replace(tags)
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Dependent rows go first so the delete behaves the same on stores
		// where FK cascades are not enforced.
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.ShoppingCart{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func applyRecipeFilter(db *gorm.DB, filter domain.RecipeFilter) *gorm.DB {
	query := db.Model(&entities.Recipe{})
	if filter.AuthorID != "" {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.FavoritedOnly && filter.UserID != "" {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", filter.UserID)
	}
	if filter.InCartOnly && filter.UserID != "" {
		query = query.
			Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
			Where("shopping_carts.user_id = ?", filter.UserID)
	}
	return query
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (filter.Page - 1) * filter.Limit

	if err := applyRecipeFilter(r.db.WithContext(ctx), filter).
		Distinct("recipes.id").
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := applyRecipeFilter(r.db.WithContext(ctx), filter).
		Distinct("recipes.*").
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Offset(offset).
		Limit(filter.Limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// GetFavoritedRecipeIDs answers which of the given recipes the user has
// favorited with one IN query, never a per-recipe lookup.
func (r *recipeRepository) GetFavoritedRecipeIDs(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, error) {
	favorited := make(map[string]bool)
	if userID == "" || len(recipeIDs) == 0 {
		return favorited, nil
	}

	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		favorited[id] = true
	}
	return favorited, nil
}

func (r *recipeRepository) GetCartRecipeIDs(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, error) {
	inCart := make(map[string]bool)
	if userID == "" || len(recipeIDs) == 0 {
		return inCart, nil
	}

	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		inCart[id] = true
	}
	return inCart, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddToCart(ctx context.Context, item *entities.ShoppingCart) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCart{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetCartRecipes returns the user's carted recipes with ingredient lines
// preloaded, ordered by when they were carted.
func (r *recipeRepository) GetCartRecipes(ctx context.Context, userID string) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	if err := r.db.WithContext(ctx).
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id").
		Where("shopping_carts.user_id = ?", userID).
		Preload("Ingredients.Ingredient").
		Order("shopping_carts.created_at asc").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
