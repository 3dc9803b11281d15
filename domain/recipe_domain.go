package domain

import (
	"errors"
)

// Bounds enforced before any write reaches the database.
const (
	CookingTimeMin = 1
	CookingTimeMax = 180

	IngredientAmountMin = 1
	IngredientAmountMax = 10000
)

var (
	MessageSuccessGetRecipes           = "success get recipes"
	MessageSuccessGetRecipeDetail      = "success get recipe detail"
	MessageSuccessCreateRecipe         = "recipe created successfully"
	MessageSuccessUpdateRecipe         = "recipe updated successfully"
	MessageSuccessDeleteRecipe         = "recipe deleted successfully"
	MessageSuccessAddFavorite          = "recipe added to favorites"
	MessageSuccessRemoveFavorite       = "recipe removed from favorites"
	MessageSuccessAddToShoppingCart    = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart       = "recipe removed from shopping cart"
	MessageSuccessDownloadShoppingCart = "shopping cart downloaded"

	MessageFailedGetRecipes           = "failed to get recipes"
	MessageFailedGetRecipeDetail      = "failed to get recipe detail"
	MessageFailedCreateRecipe         = "failed to create recipe"
	MessageFailedUpdateRecipe         = "failed to update recipe"
	MessageFailedDeleteRecipe         = "failed to delete recipe"
	MessageFailedAddFavorite          = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite       = "failed to remove recipe from favorites"
	MessageFailedAddToShoppingCart    = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart       = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShoppingCart = "failed to download shopping cart"

	ErrRecipeNotFound           = errors.New("recipe not found")
	ErrUnauthorizedRecipeAccess = errors.New("unauthorized access to recipe")
	ErrTagsRequired             = errors.New("at least one tag is required")
	ErrDuplicateTag             = errors.New("duplicate tag in request")
	ErrIngredientsRequired      = errors.New("at least one ingredient is required")
	ErrDuplicateIngredient      = errors.New("duplicate ingredient in request")
	ErrAmountOutOfRange         = errors.New("ingredient amount must be between 1 and 10000")
	ErrCookingTimeOutOfRange    = errors.New("cooking time must be between 1 and 180 minutes")
	ErrInvalidImageData         = errors.New("invalid base64 image data")
	ErrAlreadyFavorited         = errors.New("recipe already in favorites")
	ErrNotFavorited             = errors.New("recipe not in favorites")
	ErrAlreadyInShoppingCart    = errors.New("recipe already in shopping cart")
	ErrNotInShoppingCart        = errors.New("recipe not in shopping cart")
)

type (
	RecipeIngredientRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required"`
	}

	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		Image       string                    `json:"image" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Tags        []string                  `json:"tags" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,dive"`
	}

	UpdateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		Image       string                    `json:"image" validate:"omitempty"`
		CookingTime int                       `json:"cooking_time" validate:"required"`
		Tags        []string                  `json:"tags" validate:"required"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,dive"`
	}

	// RecipeFilter narrows a listing before derived flags are computed.
	RecipeFilter struct {
		AuthorID      string
		TagSlugs      []string
		FavoritedOnly bool
		InCartOnly    bool
		UserID        string
		Page          int
		Limit         int
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Name             string                     `json:"name"`
		Text             string                     `json:"text"`
		ImageURL         string                     `json:"image,omitempty"`
		CookingTime      int                        `json:"cooking_time"`
		Author           UserResponse               `json:"author"`
		Tags             []TagResponse              `json:"tags"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	}

	// RecipeSummary is the short form embedded in favorite, cart and
	// subscription responses.
	RecipeSummary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ImageURL    string `json:"image,omitempty"`
		CookingTime int    `json:"cooking_time"`
	}
)
