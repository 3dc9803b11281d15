package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"recipeshare/domain"
	"recipeshare/entities"
	"recipeshare/pkg/ingredient"
	"recipeshare/pkg/tag"
	"recipeshare/pkg/user"
)

type fakeStorage struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (f *fakeStorage) UploadBytes(fileName string, data []byte, dir string, ext string) (string, error) {
	key := fmt.Sprintf("%s/%s.%s", dir, fileName, ext)
	f.uploads[key] = data
	return key, nil
}

func (f *fakeStorage) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (f *fakeStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCart{},
		&entities.Subscription{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (RecipeService, *gorm.DB, *fakeStorage) {
	t.Helper()

	db := setupTestDB(t)
	s3 := newFakeStorage()
	service := NewRecipeService(
		NewRecipeRepository(db),
		tag.NewTagRepository(db),
		ingredient.NewIngredientRepository(db),
		user.NewUserRepository(db),
		s3,
	)
	return service, db, s3
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	u := &entities.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedTag(t *testing.T, db *gorm.DB, name, slug string) *entities.Tag {
	t.Helper()
	tg := &entities.Tag{ID: uuid.New(), Name: name, Color: "#49B64E", Slug: slug}
	if err := db.Create(tg).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	return tg
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()
	ing := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return ing
}

func testImage() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
}

func createRequest(tagIDs []string, lines []domain.RecipeIngredientRequest) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       testImage(),
		CookingTime: 25,
		Tags:        tagIDs,
		Ingredients: lines,
	}
}

func TestCreateRecipe(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")
	milk := seedIngredient(t, db, "milk", "ml")

	req := createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{
			{ID: flour.ID.String(), Amount: 200},
			{ID: milk.ID.String(), Amount: 300},
		},
	)

	res, err := service.CreateRecipe(ctx, req, author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if res.Name != "Pancakes" {
		t.Errorf("name = %q, want %q", res.Name, "Pancakes")
	}
	if res.Author.ID != author.ID.String() {
		t.Errorf("author = %q, want %q", res.Author.ID, author.ID.String())
	}
	if len(res.Tags) != 1 || res.Tags[0].Slug != "breakfast" {
		t.Errorf("tags = %+v, want single breakfast tag", res.Tags)
	}
	if len(res.Ingredients) != 2 {
		t.Fatalf("ingredients = %d, want 2", len(res.Ingredients))
	}
	if !strings.HasPrefix(res.ImageURL, "https://cdn.test/recipes/") {
		t.Errorf("image url = %q, want uploaded link", res.ImageURL)
	}
	if res.IsFavorited || res.IsInShoppingCart {
		t.Errorf("fresh recipe flags should be false, got favorited=%v cart=%v", res.IsFavorited, res.IsInShoppingCart)
	}

	var lineCount int64
	db.Model(&entities.RecipeIngredient{}).Count(&lineCount)
	if lineCount != 2 {
		t.Errorf("ingredient lines = %d, want 2", lineCount)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	tagID := breakfast.ID.String()
	line := domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}

	tests := []struct {
		name    string
		mutate  func(*domain.CreateRecipeRequest)
		wantErr error
	}{
		{
			name:    "no tags",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Tags = nil },
			wantErr: domain.ErrTagsRequired,
		},
		{
			name:    "duplicate tags",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Tags = []string{tagID, tagID} },
			wantErr: domain.ErrDuplicateTag,
		},
		{
			name:    "unknown tag",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Tags = []string{uuid.NewString()} },
			wantErr: domain.ErrTagNotFound,
		},
		{
			name:    "no ingredients",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Ingredients = nil },
			wantErr: domain.ErrIngredientsRequired,
		},
		{
			name: "duplicate ingredients",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.RecipeIngredientRequest{line, line}
			},
			wantErr: domain.ErrDuplicateIngredient,
		},
		{
			name: "unknown ingredient",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.RecipeIngredientRequest{{ID: uuid.NewString(), Amount: 10}}
			},
			wantErr: domain.ErrIngredientNotFound,
		},
		{
			name: "amount zero",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 0}}
			},
			wantErr: domain.ErrAmountOutOfRange,
		},
		{
			name: "amount above max",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 10001}}
			},
			wantErr: domain.ErrAmountOutOfRange,
		},
		{
			name:    "cooking time zero",
			mutate:  func(r *domain.CreateRecipeRequest) { r.CookingTime = 0 },
			wantErr: domain.ErrCookingTimeOutOfRange,
		},
		{
			name:    "cooking time above max",
			mutate:  func(r *domain.CreateRecipeRequest) { r.CookingTime = 181 },
			wantErr: domain.ErrCookingTimeOutOfRange,
		},
		{
			name:    "invalid image",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Image = "not a data uri" },
			wantErr: domain.ErrInvalidImageData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest([]string{tagID}, []domain.RecipeIngredientRequest{line})
			tt.mutate(&req)

			_, err := service.CreateRecipe(ctx, req, author.ID.String())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	var recipeCount int64
	db.Model(&entities.Recipe{}).Count(&recipeCount)
	if recipeCount != 0 {
		t.Errorf("rejected writes persisted %d recipes, want 0", recipeCount)
	}
}

func TestStoreRejectsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)

	author := seedUser(t, db, "alice")
	flour := seedIngredient(t, db, "flour", "g")

	// writes that bypass the service still hit the column check constraints
	bad := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    author.ID,
		Name:        "raw write",
		Text:        "x",
		CookingTime: 99999,
	}
	if err := db.Create(bad).Error; err == nil {
		t.Error("recipe with cooking_time=99999 persisted, want constraint violation")
	}

	ok := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    author.ID,
		Name:        "raw write",
		Text:        "x",
		CookingTime: 60,
	}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("in-range recipe rejected: %v", err)
	}

	line := &entities.RecipeIngredient{
		ID:           uuid.New(),
		RecipeID:     ok.ID,
		IngredientID: flour.ID,
		Amount:       0,
	}
	if err := db.Create(line).Error; err == nil {
		t.Error("ingredient line with amount=0 persisted, want constraint violation")
	}

	line.Amount = 10001
	if err := db.Create(line).Error; err == nil {
		t.Error("ingredient line with amount=10001 persisted, want constraint violation")
	}

	line.Amount = 100
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("in-range ingredient line rejected: %v", err)
	}
}

func TestUpdateRecipeReplacesLines(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	dinner := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")
	milk := seedIngredient(t, db, "milk", "ml")
	sugar := seedIngredient(t, db, "sugar", "g")

	created, err := service.CreateRecipe(ctx, createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{
			{ID: flour.ID.String(), Amount: 100},
			{ID: milk.ID.String(), Amount: 200},
		},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	update := domain.UpdateRecipeRequest{
		Name:        "Sweet pancakes",
		Text:        "Mix, fry, serve.",
		CookingTime: 30,
		Tags:        []string{dinner.ID.String()},
		Ingredients: []domain.RecipeIngredientRequest{
			{ID: milk.ID.String(), Amount: 50},
			{ID: sugar.ID.String(), Amount: 70},
		},
	}

	updated, err := service.UpdateRecipe(ctx, created.ID, update, author.ID.String(), domain.RoleUser)
	if err != nil {
		t.Fatalf("update recipe: %v", err)
	}

	if updated.Name != "Sweet pancakes" || updated.CookingTime != 30 {
		t.Errorf("scalar fields not updated: %+v", updated)
	}
	if len(updated.Tags) != 1 || updated.Tags[0].Slug != "dinner" {
		t.Errorf("tags = %+v, want single dinner tag", updated.Tags)
	}

	amounts := make(map[string]int, len(updated.Ingredients))
	for _, line := range updated.Ingredients {
		amounts[line.Name] = line.Amount
	}
	if len(amounts) != 2 || amounts["milk"] != 50 || amounts["sugar"] != 70 {
		t.Errorf("ingredient lines = %v, want exactly milk=50 sugar=70", amounts)
	}

	// the old flour line must be gone, not merged
	var lineCount int64
	db.Model(&entities.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&lineCount)
	if lineCount != 2 {
		t.Errorf("stored lines = %d, want 2", lineCount)
	}
}

func TestUpdateRecipeAuthorization(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	tagIDs := []string{breakfast.ID.String()}
	lines := []domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 100}}

	created, err := service.CreateRecipe(ctx, createRequest(tagIDs, lines), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	update := domain.UpdateRecipeRequest{
		Name:        "Hijacked",
		Text:        "x",
		CookingTime: 5,
		Tags:        tagIDs,
		Ingredients: lines,
	}

	if _, err := service.UpdateRecipe(ctx, created.ID, update, other.ID.String(), domain.RoleUser); !errors.Is(err, domain.ErrUnauthorizedRecipeAccess) {
		t.Errorf("non-author update err = %v, want %v", err, domain.ErrUnauthorizedRecipeAccess)
	}

	if _, err := service.UpdateRecipe(ctx, created.ID, update, other.ID.String(), domain.RoleAdmin); err != nil {
		t.Errorf("admin update err = %v, want nil", err)
	}

	if err := service.DeleteRecipe(ctx, created.ID, other.ID.String(), domain.RoleUser); !errors.Is(err, domain.ErrUnauthorizedRecipeAccess) {
		t.Errorf("non-author delete err = %v, want %v", err, domain.ErrUnauthorizedRecipeAccess)
	}

	if _, err := service.UpdateRecipe(ctx, uuid.NewString(), update, author.ID.String(), domain.RoleUser); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("unknown recipe err = %v, want %v", err, domain.ErrRecipeNotFound)
	}
}

func TestDeleteRecipeRemovesDependents(t *testing.T) {
	t.Parallel()

	service, db, s3 := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx, createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 100}},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := service.AddFavorite(ctx, reader.ID.String(), created.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if _, err := service.AddToShoppingCart(ctx, reader.ID.String(), created.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	if err := service.DeleteRecipe(ctx, created.ID, author.ID.String(), domain.RoleUser); err != nil {
		t.Fatalf("delete recipe: %v", err)
	}

	for _, model := range []any{
		&entities.Recipe{}, &entities.RecipeIngredient{}, &entities.Favorite{}, &entities.ShoppingCart{},
	} {
		var count int64
		db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("%T rows after delete = %d, want 0", model, count)
		}
	}

	if len(s3.deleted) != 1 {
		t.Errorf("deleted objects = %d, want 1", len(s3.deleted))
	}
}

func TestFavoriteToggle(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx, createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 100}},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	summary, err := service.AddFavorite(ctx, reader.ID.String(), created.ID)
	if err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if summary.ID != created.ID {
		t.Errorf("summary id = %q, want %q", summary.ID, created.ID)
	}

	if _, err := service.AddFavorite(ctx, reader.ID.String(), created.ID); !errors.Is(err, domain.ErrAlreadyFavorited) {
		t.Errorf("second add err = %v, want %v", err, domain.ErrAlreadyFavorited)
	}

	detail, err := service.GetRecipeDetail(ctx, created.ID, reader.ID.String())
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if !detail.IsFavorited {
		t.Error("is_favorited = false after add, want true")
	}

	if err := service.RemoveFavorite(ctx, reader.ID.String(), created.ID); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	if err := service.RemoveFavorite(ctx, reader.ID.String(), created.ID); !errors.Is(err, domain.ErrNotFavorited) {
		t.Errorf("second remove err = %v, want %v", err, domain.ErrNotFavorited)
	}

	if _, err := service.AddFavorite(ctx, reader.ID.String(), uuid.NewString()); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("favorite unknown recipe err = %v, want %v", err, domain.ErrRecipeNotFound)
	}
}

func TestShoppingCartToggle(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx, createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 100}},
	), author.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := service.AddToShoppingCart(ctx, reader.ID.String(), created.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := service.AddToShoppingCart(ctx, reader.ID.String(), created.ID); !errors.Is(err, domain.ErrAlreadyInShoppingCart) {
		t.Errorf("second add err = %v, want %v", err, domain.ErrAlreadyInShoppingCart)
	}

	if err := service.RemoveFromShoppingCart(ctx, reader.ID.String(), created.ID); err != nil {
		t.Fatalf("remove from cart: %v", err)
	}
	if err := service.RemoveFromShoppingCart(ctx, reader.ID.String(), created.ID); !errors.Is(err, domain.ErrNotInShoppingCart) {
		t.Errorf("second remove err = %v, want %v", err, domain.ErrNotInShoppingCart)
	}
}

func TestGetRecipesFlagsAndFilters(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	dinner := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	lines := []domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 100}}

	pancakes, err := service.CreateRecipe(ctx, createRequest([]string{breakfast.ID.String()}, lines), alice.ID.String())
	if err != nil {
		t.Fatalf("create pancakes: %v", err)
	}

	stewReq := createRequest([]string{dinner.ID.String()}, lines)
	stewReq.Name = "Stew"
	stew, err := service.CreateRecipe(ctx, stewReq, bob.ID.String())
	if err != nil {
		t.Fatalf("create stew: %v", err)
	}

	if _, err := service.AddFavorite(ctx, bob.ID.String(), pancakes.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if _, err := service.AddToShoppingCart(ctx, bob.ID.String(), stew.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	all, count, err := service.GetRecipes(ctx, domain.RecipeFilter{UserID: bob.ID.String(), Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("get recipes: %v", err)
	}
	if count != 2 || len(all) != 2 {
		t.Fatalf("count = %d len = %d, want 2/2", count, len(all))
	}
	flags := make(map[string][2]bool, len(all))
	for _, r := range all {
		flags[r.ID] = [2]bool{r.IsFavorited, r.IsInShoppingCart}
	}
	if flags[pancakes.ID] != [2]bool{true, false} {
		t.Errorf("pancakes flags = %v, want favorited only", flags[pancakes.ID])
	}
	if flags[stew.ID] != [2]bool{false, true} {
		t.Errorf("stew flags = %v, want in cart only", flags[stew.ID])
	}

	byTag, _, err := service.GetRecipes(ctx, domain.RecipeFilter{TagSlugs: []string{"breakfast"}, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("filter by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != pancakes.ID {
		t.Errorf("tag filter returned %d recipes, want pancakes only", len(byTag))
	}

	byAuthor, _, err := service.GetRecipes(ctx, domain.RecipeFilter{AuthorID: bob.ID.String(), Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("filter by author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].ID != stew.ID {
		t.Errorf("author filter returned %d recipes, want stew only", len(byAuthor))
	}

	favorites, _, err := service.GetRecipes(ctx, domain.RecipeFilter{FavoritedOnly: true, UserID: bob.ID.String(), Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("filter favorited: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != pancakes.ID {
		t.Errorf("favorited filter returned %d recipes, want pancakes only", len(favorites))
	}
}

func TestGetRecipesAnonymous(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx, createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{{ID: flour.ID.String(), Amount: 100}},
	), alice.ID.String())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	if _, err := service.AddFavorite(ctx, bob.ID.String(), created.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	// anonymous requester: flags are false regardless of other users' relations
	recipes, _, err := service.GetRecipes(ctx, domain.RecipeFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("get recipes: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("len = %d, want 1", len(recipes))
	}
	r := recipes[0]
	if r.IsFavorited || r.IsInShoppingCart || r.Author.IsSubscribed {
		t.Errorf("anonymous flags = favorited=%v cart=%v subscribed=%v, want all false",
			r.IsFavorited, r.IsInShoppingCart, r.Author.IsSubscribed)
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	t.Parallel()

	service, db, _ := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	flourG := seedIngredient(t, db, "flour", "g")
	flourCups := seedIngredient(t, db, "flour", "cups")
	sugar := seedIngredient(t, db, "sugar", "g")

	pancakes, err := service.CreateRecipe(ctx, createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{
			{ID: flourG.ID.String(), Amount: 400},
			{ID: sugar.ID.String(), Amount: 50},
		},
	), alice.ID.String())
	if err != nil {
		t.Fatalf("create pancakes: %v", err)
	}

	breadReq := createRequest(
		[]string{breakfast.ID.String()},
		[]domain.RecipeIngredientRequest{
			{ID: flourG.ID.String(), Amount: 300},
			{ID: flourCups.ID.String(), Amount: 2},
		},
	)
	breadReq.Name = "Bread"
	bread, err := service.CreateRecipe(ctx, breadReq, alice.ID.String())
	if err != nil {
		t.Fatalf("create bread: %v", err)
	}

	if _, err := service.AddToShoppingCart(ctx, bob.ID.String(), pancakes.ID); err != nil {
		t.Fatalf("cart pancakes: %v", err)
	}
	if _, err := service.AddToShoppingCart(ctx, bob.ID.String(), bread.ID); err != nil {
		t.Fatalf("cart bread: %v", err)
	}

	report, err := service.DownloadShoppingCart(ctx, bob.ID.String())
	if err != nil {
		t.Fatalf("download cart: %v", err)
	}

	lines := strings.Split(strings.TrimRight(report, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("report lines = %d, want 3:\n%s", len(lines), report)
	}

	got := make(map[string]bool, len(lines))
	for _, line := range lines {
		got[line] = true
	}
	// same name in different units stays separate; same (name, unit) merges
	for _, want := range []string{"flour: 700 g", "sugar: 50 g", "flour: 2 cups"} {
		if !got[want] {
			t.Errorf("report missing line %q:\n%s", want, report)
		}
	}

	// empty cart produces an empty report
	empty, err := service.DownloadShoppingCart(ctx, alice.ID.String())
	if err != nil {
		t.Fatalf("download empty cart: %v", err)
	}
	if empty != "" {
		t.Errorf("empty cart report = %q, want empty string", empty)
	}
}
