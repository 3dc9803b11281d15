package subscription

import (
	"context"

	"gorm.io/gorm"

	"recipeshare/entities"
)

type (
	SubscriptionRepository interface {
		Subscribe(ctx context.Context, sub *entities.Subscription) error
		Unsubscribe(ctx context.Context, userID, authorID string) error
		IsSubscribed(ctx context.Context, userID, authorID string) (bool, error)
		GetSubscribedAuthors(ctx context.Context, userID string, page, limit int) ([]*entities.User, int64, error)
		GetRecipesByAuthors(ctx context.Context, authorIDs []string) ([]*entities.Recipe, error)
		CountRecipesByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error)
	}

	subscriptionRepository struct {
		db *gorm.DB
	}
)

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, sub *entities.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, userID, authorID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&entities.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subscriptionRepository) IsSubscribed(ctx context.Context, userID, authorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *subscriptionRepository) GetSubscribedAuthors(ctx context.Context, userID string, page, limit int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Joins("JOIN subscriptions ON users.id = subscriptions.author_id").
		Where("subscriptions.user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Joins("JOIN subscriptions ON users.id = subscriptions.author_id").
		Where("subscriptions.user_id = ?", userID).
		Offset(offset).
		Limit(limit).
		Order("subscriptions.created_at desc").
		Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	return authors, count, nil
}

func (r *subscriptionRepository) GetRecipesByAuthors(ctx context.Context, authorIDs []string) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe
	if len(authorIDs) == 0 {
		return recipes, nil
	}
	if err := r.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// CountRecipesByAuthors aggregates per-author recipe counts in one grouped
// query. The count covers every recipe the author has, not just the page
// being rendered.
func (r *subscriptionRepository) CountRecipesByAuthors(ctx context.Context, authorIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID string
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Select("author_id, count(*) as total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}
