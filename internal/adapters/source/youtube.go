package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"focus-feed/internal/domain"
	"focus-feed/internal/infra/metrics"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTube — клиент YouTube Data API v3.
type YouTube struct {
	http    *http.Client
	baseURL string
	apiKey  string
	region  string
}

// NewYouTube создаёт клиента YouTube API.
func NewYouTube(apiKey, baseURL, region string, timeout time.Duration) *YouTube {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if region == "" {
		region = "US"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YouTube{
		http:    &http.Client{Timeout: timeout + 5*time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		region:  region,
	}
}

var _ domain.VideoSource = (*YouTube)(nil)

// Configured сообщает, задан ли API-ключ. Без ключа источник бесполезен
// и вызывающая сторона сразу подключает резервный.
func (y *YouTube) Configured() bool {
	return y.apiKey != ""
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type ytVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title                string    `json:"title"`
			Description          string    `json:"description"`
			ChannelID            string    `json:"channelId"`
			ChannelTitle         string    `json:"channelTitle"`
			PublishedAt          time.Time `json:"publishedAt"`
			Tags                 []string  `json:"tags"`
			DefaultLanguage      string    `json:"defaultLanguage"`
			DefaultAudioLanguage string    `json:"defaultAudioLanguage"`
			Thumbnails           map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
	} `json:"items"`
	NextPageToken string `json:"nextPageToken"`
}

type ytErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Search ищет видео по запросу и дотягивает детали вторым запросом:
// поисковая выдача не содержит длительность и статистику.
func (y *YouTube) Search(ctx context.Context, query string, maxResults int, pageToken string) (domain.VideoList, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("order", "relevance")
	params.Set("safeSearch", "moderate")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var search ytSearchResponse
	if err := y.get(ctx, "search", params, &search); err != nil {
		return domain.VideoList{}, err
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return domain.VideoList{NextPageToken: search.NextPageToken}, nil
	}

	videos, err := y.videosByIDs(ctx, ids)
	if err != nil {
		return domain.VideoList{}, err
	}
	return domain.VideoList{Items: videos, NextPageToken: search.NextPageToken}, nil
}

// MostPopular возвращает ленту популярного по региону.
func (y *YouTube) MostPopular(ctx context.Context, maxResults int, pageToken string) (domain.VideoList, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("chart", "mostPopular")
	params.Set("regionCode", y.region)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp ytVideosResponse
	if err := y.get(ctx, "videos", params, &resp); err != nil {
		return domain.VideoList{}, err
	}
	return domain.VideoList{Items: formatVideos(resp), NextPageToken: resp.NextPageToken}, nil
}

// VideoByID возвращает метаданные одного видео.
func (y *YouTube) VideoByID(ctx context.Context, videoID string) (domain.VideoMetadata, bool, error) {
	videos, err := y.videosByIDs(ctx, []string{videoID})
	if err != nil {
		return domain.VideoMetadata{}, false, err
	}
	if len(videos) == 0 {
		return domain.VideoMetadata{}, false, nil
	}
	return videos[0], true, nil
}

func (y *YouTube) videosByIDs(ctx context.Context, ids []string) ([]domain.VideoMetadata, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))

	var resp ytVideosResponse
	if err := y.get(ctx, "videos", params, &resp); err != nil {
		return nil, err
	}
	return formatVideos(resp), nil
}

func (y *YouTube) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if y.apiKey == "" {
		return fmt.Errorf("youtube: api key is empty")
	}
	params.Set("key", y.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("youtube: build request: %w", err)
	}

	start := time.Now()
	resp, err := y.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("youtube", endpoint, "", start, err)
		return fmt.Errorf("youtube: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("youtube", endpoint, "", start, err)
		return fmt.Errorf("youtube: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr ytErrorResponse
		if jsonErr := json.Unmarshal(body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("youtube: %s", apiErr.Error.Message)
		} else {
			err = fmt.Errorf("youtube: unexpected status %d", resp.StatusCode)
		}
		metrics.ObserveNetworkRequest("youtube", endpoint, "", start, err)
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.ObserveNetworkRequest("youtube", endpoint, "", start, err)
		return fmt.Errorf("youtube: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("youtube", endpoint, "", start, nil)
	return nil
}

func formatVideos(resp ytVideosResponse) []domain.VideoMetadata {
	videos := make([]domain.VideoMetadata, 0, len(resp.Items))
	for _, item := range resp.Items {
		duration := parseISODuration(item.ContentDetails.Duration)
		language := item.Snippet.DefaultLanguage
		if language == "" {
			language = item.Snippet.DefaultAudioLanguage
		}
		videos = append(videos, domain.VideoMetadata{
			ID:              item.ID,
			Title:           item.Snippet.Title,
			Description:     item.Snippet.Description,
			Tags:            item.Snippet.Tags,
			ChannelID:       item.Snippet.ChannelID,
			ChannelTitle:    item.Snippet.ChannelTitle,
			DurationSeconds: duration,
			Language:        language,
			ViewCount:       parseCount(item.Statistics.ViewCount),
			LikeCount:       parseCount(item.Statistics.LikeCount),
			PublishedAt:     item.Snippet.PublishedAt,
			ThumbnailURL:    bestThumbnail(item.Snippet.Thumbnails),
			IsShort:         isShort(duration, item.Snippet.Title),
		})
	}
	return videos
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration переводит длительность ISO 8601 (PT1H2M3S) в секунды.
func parseISODuration(duration string) int {
	m := isoDurationRe.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds
}

// isShort определяет Shorts по длительности и метке в заголовке.
func isShort(durationSeconds int, title string) bool {
	if durationSeconds > 0 && durationSeconds <= 60 {
		return true
	}
	return strings.Contains(strings.ToLower(title), "#short")
}

func parseCount(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

// bestThumbnail выбирает превью по убыванию качества.
func bestThumbnail(thumbnails map[string]struct {
	URL string `json:"url"`
}) string {
	for _, quality := range []string{"maxres", "high", "medium", "default"} {
		if t, ok := thumbnails[quality]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}
