package feed

import (
	"context"
	"errors"
	"sync"

	"postovik/internal/domain"
	"postovik/internal/models"

	"github.com/rs/zerolog"
	"google.golang.org/api/blogger/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// BloggerSource читает последние посты блога через Blogger API v3.
// Ответ сервиса — JSON-объект с массивом items; структурные ошибки
// приходят отдельным error-объектом и мапятся в UpstreamError.
type BloggerSource struct {
	endpoint string
	logger   *zerolog.Logger

	mu       sync.Mutex
	services map[string]*blogger.Service // на каждый API-ключ свой сервис
}

func NewBloggerSource(endpoint string, logger *zerolog.Logger) *BloggerSource {
	return &BloggerSource{
		endpoint: endpoint,
		logger:   logger,
		services: make(map[string]*blogger.Service),
	}
}

func (s *BloggerSource) serviceFor(ctx context.Context, apiKey string) (*blogger.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc, ok := s.services[apiKey]; ok {
		return svc, nil
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	svc, err := blogger.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s.services[apiKey] = svc
	return svc, nil
}

// FetchRecent возвращает до maxResults последних постов, новые первыми
// (порядок отдает сам Blogger, мы его не пересортировываем).
func (s *BloggerSource) FetchRecent(ctx context.Context, creds domain.FeedCredentials, maxResults int) ([]models.FeedItem, error) {
	if maxResults <= 0 {
		maxResults = models.DefaultFetchPageSize
	}

	svc, err := s.serviceFor(ctx, creds.APIKey)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	list, err := svc.Posts.List(creds.FeedID).
		MaxResults(int64(maxResults)).
		FetchBodies(true).
		FetchImages(true).
		Status("LIVE").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{Code: apiErr.Code, Message: apiErr.Message}
		}
		return nil, &FetchError{Err: err}
	}

	items := make([]models.FeedItem, 0, len(list.Items))
	for _, post := range list.Items {
		if post == nil || post.Id == "" {
			continue
		}

		item := models.FeedItem{
			ID:       post.Id,
			Title:    post.Title,
			BodyHTML: post.Content,
			URL:      post.Url,
		}

		// Сначала структурное поле с картинками, потом скан тела
		if len(post.Images) > 0 && post.Images[0].Url != "" {
			item.ImageURL = post.Images[0].Url
		} else {
			item.ImageURL = FirstImageURL(post.Content)
		}

		items = append(items, item)
	}

	s.logger.Debug().Int("items", len(items)).Str("feed_id", creds.FeedID).Msg("feed fetched")
	return items, nil
}
