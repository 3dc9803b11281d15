package domain

import (
	"errors"
)

var (
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrSelfSubscribe     = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed = errors.New("already subscribed to this author")
	ErrNotSubscribed     = errors.New("not subscribed to this author")
)

// SubscribedAuthorResponse embeds at most recipes_limit recipe summaries,
// while RecipesCount is the author's full recipe count.
type SubscribedAuthorResponse struct {
	UserResponse
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}
