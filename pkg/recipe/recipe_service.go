package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recipeshare/domain"
	"recipeshare/entities"
	"recipeshare/internal/utils"
	"recipeshare/internal/utils/storage"
	"recipeshare/pkg/ingredient"
	"recipeshare/pkg/tag"
	"recipeshare/pkg/user"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID, role string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID, userID, role string) error
		GetRecipes(ctx context.Context, filter domain.RecipeFilter) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID, userID string) (domain.RecipeResponse, error)
		AddFavorite(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error)
		RemoveFavorite(ctx context.Context, userID, recipeID string) error
		AddToShoppingCart(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error)
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID string) error
		DownloadShoppingCart(ctx context.Context, userID string) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

// validateAggregate applies the canonical rule set for recipe writes: tag and
// ingredient lists must be non-empty, free of duplicates and resolve to
// existing rows, and every numeric field must be in range.
func (s *recipeService) validateAggregate(ctx context.Context, cookingTime int, tagIDs []string, lines []domain.RecipeIngredientRequest) ([]*entities.Tag, error) {
	if cookingTime < domain.CookingTimeMin || cookingTime > domain.CookingTimeMax {
		return nil, domain.ErrCookingTimeOutOfRange
	}

	if len(tagIDs) == 0 {
		return nil, domain.ErrTagsRequired
	}
	seenTags := make(map[string]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return nil, domain.ErrDuplicateTag
		}
		seenTags[id] = true
	}

	if len(lines) == 0 {
		return nil, domain.ErrIngredientsRequired
	}
	seenIngredients := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.Amount < domain.IngredientAmountMin || line.Amount > domain.IngredientAmountMax {
			return nil, domain.ErrAmountOutOfRange
		}
		if seenIngredients[line.ID] {
			return nil, domain.ErrDuplicateIngredient
		}
		seenIngredients[line.ID] = true
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, domain.ErrTagNotFound
	}

	ingredientIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		ingredientIDs = append(ingredientIDs, line.ID)
	}
	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, domain.ErrIngredientNotFound
	}

	return tags, nil
}

func buildIngredientLines(recipeID uuid.UUID, reqLines []domain.RecipeIngredientRequest) ([]*entities.RecipeIngredient, error) {
	lines := make([]*entities.RecipeIngredient, 0, len(reqLines))
	for _, line := range reqLines {
		ingredientUUID, err := uuid.Parse(line.ID)
		if err != nil {
			return nil, domain.ErrParseUUID
		}
		lines = append(lines, &entities.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: ingredientUUID,
			Amount:       line.Amount,
		})
	}
	return lines, nil
}

func (s *recipeService) uploadImage(recipeID uuid.UUID, data string) (string, error) {
	raw, ext, err := utils.DecodeBase64Image(data)
	if err != nil {
		return "", domain.ErrInvalidImageData
	}

	fileName := fmt.Sprintf("recipe-%s", recipeID.String())
	objectKey, err := s.s3.UploadBytes(fileName, raw, "recipes", ext)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	tags, err := s.validateAggregate(ctx, req.CookingTime, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	authorUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	imageURL, err := s.uploadImage(recipe.ID, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	recipe.ImageURL = imageURL

	lines, err := buildIngredientLines(recipe.ID, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, lines, tags); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID, role string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID && role != domain.RoleAdmin {
		return domain.RecipeResponse{}, domain.ErrUnauthorizedRecipeAccess
	}

	tags, err := s.validateAggregate(ctx, req.CookingTime, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime

	if req.Image != "" {
		imageURL, err := s.uploadImage(recipe.ID, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.ImageURL = imageURL
	}

	lines, err := buildIngredientLines(recipe.ID, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, lines, tags); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID, userID, role string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID && role != domain.RoleAdmin {
		return domain.ErrUnauthorizedRecipeAccess
	}

	if recipe.ImageURL != "" {
		objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL)
		if objectKey != "" {
			_ = s.s3.DeleteFile(objectKey)
		}
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

// relationFlags resolves is_favorited and is_in_shopping_cart for a page of
// recipes. Anonymous requesters short-circuit to all-false without touching
// the favorite or cart tables; authenticated ones cost one query per flag
// kind for the whole page.
func (s *recipeService) relationFlags(ctx context.Context, userID string, recipes []*entities.Recipe) (map[string]bool, map[string]bool, error) {
	if userID == "" {
		return map[string]bool{}, map[string]bool{}, nil
	}

	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID.String())
	}

	favorited, err := s.recipeRepository.GetFavoritedRecipeIDs(ctx, userID, ids)
	if err != nil {
		return nil, nil, err
	}
	inCart, err := s.recipeRepository.GetCartRecipeIDs(ctx, userID, ids)
	if err != nil {
		return nil, nil, err
	}
	return favorited, inCart, nil
}

func (s *recipeService) authorFlags(ctx context.Context, userID string, recipes []*entities.Recipe) (map[string]bool, error) {
	if userID == "" {
		return map[string]bool{}, nil
	}

	authorIDs := make([]string, 0, len(recipes))
	seen := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		id := r.AuthorID.String()
		if !seen[id] {
			seen[id] = true
			authorIDs = append(authorIDs, id)
		}
	}
	return s.userRepository.GetSubscribedAuthorIDs(ctx, userID, authorIDs)
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	favorited, inCart, err := s.relationFlags(ctx, filter.UserID, recipes)
	if err != nil {
		return nil, 0, err
	}
	subscribed, err := s.authorFlags(ctx, filter.UserID, recipes)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		id := r.ID.String()
		result = append(result, toRecipeResponse(r, favorited[id], inCart[id], subscribed[r.AuthorID.String()]))
	}
	return result, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	page := []*entities.Recipe{recipe}
	favorited, inCart, err := s.relationFlags(ctx, userID, page)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	subscribed, err := s.authorFlags(ctx, userID, page)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	id := recipe.ID.String()
	return toRecipeResponse(recipe, favorited[id], inCart[id], subscribed[recipe.AuthorID.String()]), nil
}

func (s *recipeService) AddFavorite(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, err
	}

	exists, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyFavorited
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	favorite := &entities.Favorite{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipe.ID,
	}
	if err := s.recipeRepository.AddFavorite(ctx, favorite); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeSummary{}, domain.ErrAlreadyFavorited
		}
		return domain.RecipeSummary{}, err
	}

	return toRecipeSummary(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFavorited
		}
		return err
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, err
	}

	exists, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyInShoppingCart
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeSummary{}, domain.ErrParseUUID
	}

	item := &entities.ShoppingCart{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipe.ID,
	}
	if err := s.recipeRepository.AddToCart(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeSummary{}, domain.ErrAlreadyInShoppingCart
		}
		return domain.RecipeSummary{}, err
	}

	return toRecipeSummary(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID string) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if err := s.recipeRepository.RemoveFromCart(ctx, userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotInShoppingCart
		}
		return err
	}
	return nil
}

// DownloadShoppingCart folds every ingredient line across the carted recipes
// into one report. Lines merge on (name, measurement unit) so that, say,
// salt in grams never merges with salt in teaspoons. Output keeps first-
// occurrence order; an empty cart yields an empty report.
func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) (string, error) {
	recipes, err := s.recipeRepository.GetCartRecipes(ctx, userID)
	if err != nil {
		return "", err
	}

	type ingredientKey struct {
		name string
		unit string
	}
	var order []ingredientKey
	totals := make(map[ingredientKey]int)

	for _, r := range recipes {
		for _, line := range r.Ingredients {
			if line.Ingredient == nil {
				continue
			}
			key := ingredientKey{name: line.Ingredient.Name, unit: line.Ingredient.MeasurementUnit}
			if _, ok := totals[key]; !ok {
				order = append(order, key)
			}
			totals[key] += line.Amount
		}
	}

	var b strings.Builder
	for _, key := range order {
		fmt.Fprintf(&b, "%s: %d %s\n", key.name, totals[key], key.unit)
	}
	return b.String(), nil
}

func toRecipeSummary(recipe *entities.Recipe) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func toRecipeResponse(recipe *entities.Recipe, isFavorited, isInCart, authorSubscribed bool) domain.RecipeResponse {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, domain.TagResponse{
			ID:    t.ID.String(),
			Name:  t.Name,
			Color: t.Color,
			Slug:  t.Slug,
		})
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		resp := domain.RecipeIngredientResponse{
			ID:     line.IngredientID.String(),
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			resp.Name = line.Ingredient.Name
			resp.MeasurementUnit = line.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, resp)
	}

	author := domain.UserResponse{IsSubscribed: authorSubscribed}
	if recipe.Author != nil {
		author.Email = recipe.Author.Email
		author.ID = recipe.Author.ID.String()
		author.Username = recipe.Author.Username
		author.FirstName = recipe.Author.FirstName
		author.LastName = recipe.Author.LastName
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Name:             recipe.Name,
		Text:             recipe.Text,
		ImageURL:         recipe.ImageURL,
		CookingTime:      recipe.CookingTime,
		Author:           author,
		Tags:             tags,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
	}
}
