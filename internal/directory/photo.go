package directory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
)

// MaxPhotoBytes is the largest photo Graph accepts for a user.
const MaxPhotoBytes = 4 << 20

// Photo is a profile picture as Graph serves it.
type Photo struct {
	ContentType string
	Data        []byte
}

// MyPhoto fetches the signed-in user's photo with a delegated token.
// Returns ErrNoPhoto when none is set.
func (c *Client) MyPhoto(ctx context.Context, token string) (*Photo, error) {
	return c.getPhoto(ctx, "my_photo", token, c.graph+"/me/photo/$value")
}

// UserPhoto fetches the photo of the user identified by key.
func (c *Client) UserPhoto(ctx context.Context, token, key string) (*Photo, error) {
	return c.getPhoto(ctx, "user_photo", token, c.graph+"/users/"+EscapeKey(key)+"/photo/$value")
}

// PutUserPhoto replaces the photo of the user identified by key.
func (c *Client) PutUserPhoto(ctx context.Context, token, key, contentType string, data []byte) error {
	const op = "put_photo"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.graph+"/users/"+EscapeKey(key)+"/photo/$value", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	err = c.do(op, req, nil)
	observe(op, err)
	return err
}

func (c *Client) getPhoto(ctx context.Context, op, token, rawURL string) (*Photo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var photo *Photo
	err = c.do(op, req, func(res *http.Response) error {
		data, err := io.ReadAll(io.LimitReader(res.Body, MaxPhotoBytes+1))
		if err != nil {
			return unreachable(op, err)
		}
		ct := res.Header.Get("Content-Type")
		if ct == "" {
			ct = "image/jpeg"
		}
		photo = &Photo{ContentType: ct, Data: data}
		return nil
	})

	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
		err = ErrNoPhoto
	}
	observe(op, err)
	if err != nil {
		return nil, err
	}
	return photo, nil
}
