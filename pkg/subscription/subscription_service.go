package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recipeshare/domain"
	"recipeshare/entities"
	"recipeshare/pkg/user"
)

type (
	SubscriptionService interface {
		Subscribe(ctx context.Context, userID, authorID string) error
		Unsubscribe(ctx context.Context, userID, authorID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscribedAuthorResponse, int64, error)
	}

	subscriptionService struct {
		subscriptionRepository SubscriptionRepository
		userRepository         user.UserRepository
	}
)

func NewSubscriptionService(subscriptionRepository SubscriptionRepository, userRepository user.UserRepository) SubscriptionService {
	return &subscriptionService{
		subscriptionRepository: subscriptionRepository,
		userRepository:         userRepository,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID string) error {
	if userID == authorID {
		return domain.ErrSelfSubscribe
	}

	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	exists, err := s.subscriptionRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadySubscribed
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.ErrParseUUID
	}

	sub := &entities.Subscription{
		ID:       uuid.New(),
		UserID:   userUUID,
		AuthorID: authorUUID,
	}

	if err := s.subscriptionRepository.Subscribe(ctx, sub); err != nil {
		// The unique index resolves concurrent subscribe races; the loser
		// reports the same conflict as the pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := s.subscriptionRepository.Unsubscribe(ctx, userID, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	return nil
}

func (s *subscriptionService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.SubscribedAuthorResponse, int64, error) {
	authors, count, err := s.subscriptionRepository.GetSubscribedAuthors(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	authorIDs := make([]string, 0, len(authors))
	for _, a := range authors {
		authorIDs = append(authorIDs, a.ID.String())
	}

	recipes, err := s.subscriptionRepository.GetRecipesByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, 0, err
	}
	// recipesLimit caps the embedded summaries per author; zero embeds none.
	// A negative value means uncapped.
	recipesByAuthor := make(map[string][]domain.RecipeSummary)
	for _, r := range recipes {
		authorID := r.AuthorID.String()
		if recipesLimit >= 0 && len(recipesByAuthor[authorID]) >= recipesLimit {
			continue
		}
		recipesByAuthor[authorID] = append(recipesByAuthor[authorID], domain.RecipeSummary{
			ID:          r.ID.String(),
			Name:        r.Name,
			ImageURL:    r.ImageURL,
			CookingTime: r.CookingTime,
		})
	}

	recipeCounts, err := s.subscriptionRepository.CountRecipesByAuthors(ctx, authorIDs)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.SubscribedAuthorResponse, 0, len(authors))
	for _, a := range authors {
		id := a.ID.String()
		summaries := recipesByAuthor[id]
		if summaries == nil {
			summaries = []domain.RecipeSummary{}
		}
		result = append(result, domain.SubscribedAuthorResponse{
			UserResponse: domain.UserResponse{
				Email:        a.Email,
				ID:           id,
				Username:     a.Username,
				FirstName:    a.FirstName,
				LastName:     a.LastName,
				IsSubscribed: true,
			},
			Recipes:      summaries,
			RecipesCount: recipeCounts[id],
		})
	}

	return result, count, nil
}
