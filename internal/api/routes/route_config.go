package routes

import (
	"github.com/gofiber/fiber/v2"

	"recipeshare/internal/api/handlers"
	"recipeshare/internal/middleware"
	"recipeshare/pkg/jwt"
)

type Config struct {
	App                 *fiber.App
	UserHandler         handlers.UserHandler
	TagHandler          handlers.TagHandler
	IngredientHandler   handlers.IngredientHandler
	RecipeHandler       handlers.RecipeHandler
	SubscriptionHandler handlers.SubscriptionHandler
	Middleware          middleware.Middleware
	JWTService          jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Tags()
	c.Ingredients()
	c.Recipes()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// user routes
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Post("/forget", c.UserHandler.ForgotPassword)
		user.Post("/reset", c.UserHandler.ResetPassword)
		user.Post("/logout", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Logout)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
		user.Post("/set_password", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.ChangePassword)
		user.Get("/subscriptions", c.Middleware.AuthMiddleware(c.JWTService), c.SubscriptionHandler.GetSubscriptions)
		user.Get("", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.UserHandler.GetUsers)
		user.Get("/:id", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.UserHandler.GetUserDetail)
		user.Post("/:id/subscribe", c.Middleware.AuthMiddleware(c.JWTService), c.SubscriptionHandler.Subscribe)
		user.Delete("/:id/subscribe", c.Middleware.AuthMiddleware(c.JWTService), c.SubscriptionHandler.Unsubscribe)
	}
}

func (c *Config) Tags() {
	tags := c.App.Group("/api/v1/tags")
	tags.Get("", c.TagHandler.GetTags)
	tags.Get("/:id", c.TagHandler.GetTagDetail)
}

func (c *Config) Ingredients() {
	ingredients := c.App.Group("/api/v1/ingredients")
	ingredients.Get("", c.IngredientHandler.GetIngredients)
	ingredients.Get("/:id", c.IngredientHandler.GetIngredientDetail)
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes")

	// reads allow anonymous access, flags resolve all-false
	recipes.Get("", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.RecipeHandler.GetRecipes)
	recipes.Get("/download_shopping_cart", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.DownloadShoppingCart)
	recipes.Get("/:id", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.RecipeHandler.GetRecipeDetail)

	recipes.Post("", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.CreateRecipe)
	recipes.Patch("/:id", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.UpdateRecipe)
	recipes.Delete("/:id", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.DeleteRecipe)

	recipes.Post("/:id/favorite", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.AddFavorite)
	recipes.Delete("/:id/favorite", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.RemoveFavorite)
	recipes.Post("/:id/shopping_cart", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.AddToShoppingCart)
	recipes.Delete("/:id/shopping_cart", c.Middleware.AuthMiddleware(c.JWTService), c.RecipeHandler.RemoveFromShoppingCart)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
