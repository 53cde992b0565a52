package youtube

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
)

// Comment is one top-level comment thread on a video.
type Comment struct {
	ID        string
	Text      string
	Author    string
	ChannelID string
	LikeCount int64
}

// Page is one page of comment threads.
type Page struct {
	Comments      []Comment
	NextPageToken string
}

// VideoMeta is the slice of video metadata the pipelines care about.
type VideoMeta struct {
	Description    string
	CommentCount   int64
	OwnerChannelID string
}

// Client wraps the YouTube Data API for comment and metadata reads.
type Client struct {
	service *youtube.Service
}

func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key not configured")
	}

	svc, err := youtube.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}

	return &Client{service: svc}, nil
}

// VideoMeta fetches the description, comment count and owner channel for a
// video.
func (c *Client) VideoMeta(ctx context.Context, videoID string) (VideoMeta, error) {
	call := c.service.Videos.List([]string{"snippet", "statistics"}).Id(videoID).Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return VideoMeta{}, apperr.ErrBriefingFetchFailed.WithCause(fmt.Errorf("fetching video %s: %w", videoID, err))
	}
	if len(resp.Items) == 0 {
		return VideoMeta{}, apperr.ErrBriefingFetchFailed.WithCause(fmt.Errorf("video %s not found", videoID))
	}

	item := resp.Items[0]
	meta := VideoMeta{
		Description:    item.Snippet.Description,
		OwnerChannelID: item.Snippet.ChannelId,
	}
	if item.Statistics != nil {
		meta.CommentCount = int64(item.Statistics.CommentCount)
	}
	return meta, nil
}

// FetchPage returns one page of top-level comments. order is "relevance" or
// "time"; pass an empty pageToken for the first page.
func (c *Client) FetchPage(ctx context.Context, videoID, order, pageToken string, maxResults int64) (Page, error) {
	call := c.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		Order(order).
		TextFormat("plainText").
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return Page{}, apperr.ErrBriefingFetchFailed.WithCause(fmt.Errorf("fetching comments for %s: %w", videoID, err))
	}

	page := Page{NextPageToken: resp.NextPageToken}
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
			continue
		}
		top := thread.Snippet.TopLevelComment
		comment := Comment{
			ID:        top.Id,
			Text:      top.Snippet.TextDisplay,
			Author:    top.Snippet.AuthorDisplayName,
			LikeCount: top.Snippet.LikeCount,
		}
		if top.Snippet.AuthorChannelId != nil {
			comment.ChannelID = top.Snippet.AuthorChannelId.Value
		}
		page.Comments = append(page.Comments, comment)
	}
	return page, nil
}

// OwnerComments collects comments written by the video's own channel, up to
// the given cap. The owner usually pins the recipe in the first few pages.
func (c *Client) OwnerComments(ctx context.Context, videoID, ownerChannelID string, limit int) ([]Comment, error) {
	var owned []Comment
	pageToken := ""
	for len(owned) < limit {
		page, err := c.FetchPage(ctx, videoID, "relevance", pageToken, 100)
		if err != nil {
			return nil, err
		}
		for _, comment := range page.Comments {
			if comment.ChannelID == ownerChannelID {
				owned = append(owned, comment)
				if len(owned) == limit {
					break
				}
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return owned, nil
}
