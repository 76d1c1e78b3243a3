package profile

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sydneysamil/samil-web/internal/apperr"
	"github.com/sydneysamil/samil-web/internal/directory"
	"github.com/sydneysamil/samil-web/internal/logger"
	"github.com/sydneysamil/samil-web/internal/respond"
)

// Photo upload errors.
var (
	ErrPhotoType = apperr.New(http.StatusBadRequest,
		"Invalid content type. Use image/jpeg or image/png.")
	ErrPhotoEmpty = apperr.New(http.StatusBadRequest,
		"Missing photo bytes in request body.")
	ErrPhotoTooLarge = apperr.New(http.StatusRequestEntityTooLarge,
		"Photo exceeds the 4 MB limit.")
)

// maxUploadBytes leaves room for base64 text of a MaxPhotoBytes image.
const maxUploadBytes = directory.MaxPhotoBytes/3*4 + 1024

// handlePutPhoto replaces the caller's photo.  The body may be raw image
// bytes, a data: URL, or bare base64 text.
func (c *Component) handlePutPhoto(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "image/") {
		respond.Error(w, r, ErrPhotoType)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		respond.Error(w, r, apperr.Internal(directory.MsgPhotoUpdateFailed, err))
		return
	}
	if len(raw) > maxUploadBytes {
		respond.Error(w, r, ErrPhotoTooLarge)
		return
	}
	data := DecodePhoto(raw)
	switch {
	case len(data) == 0:
		respond.Error(w, r, ErrPhotoEmpty)
		return
	case len(data) > directory.MaxPhotoBytes:
		respond.Error(w, r, ErrPhotoTooLarge)
		return
	}

	p, token, ok := c.appToken(w, r)
	if !ok {
		return
	}
	if err := c.dir.PutUserPhoto(r.Context(), token, p.Key(), ct, data); err != nil {
		logger.FromContext(r.Context()).Warnw("photo update failed", "user", p.Key(), "err", err)
		respond.Error(w, r, directory.Problem(err, directory.MsgPhotoUpdateFailed))
		return
	}
	logger.FromContext(r.Context()).Infow("profile photo updated", "user", p.Key(), "bytes", len(data))
	respond.NoContent(w)
}

// DecodePhoto returns the image bytes carried by body.  A data: URL or
// text that decodes cleanly as base64 is decoded; anything else is taken
// as raw bytes.
func DecodePhoto(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.HasPrefix(trimmed, []byte("data:")) {
		_, payload, ok := bytes.Cut(trimmed, []byte(","))
		if !ok {
			return nil
		}
		if out, err := decodeBase64(payload); err == nil {
			return out
		}
		return nil
	}

	if out, err := decodeBase64(trimmed); err == nil && len(out) > 0 {
		return out
	}
	return body
}

var errNotBase64 = errors.New("not base64")

func decodeBase64(b []byte) ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, string(b))
	if s == "" {
		return nil, errNotBase64
	}
	if out, err := base64.StdEncoding.DecodeString(s); err == nil {
		return out, nil
	}
	if out, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return out, nil
	}
	return nil, errNotBase64
}
