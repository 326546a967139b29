package media

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialapp/internal/config"
)

const (
	imageKitAPIBase = "https://api.imagekit.io"
	imageKitAuthTTL = 30 * time.Minute
	imageKitTimeout = 15 * time.Second
)

type ImageKit struct {
	publicKey   string
	privateKey  string
	urlEndpoint string

	apiBase  string
	client   *http.Client
	now      func() time.Time
	newToken func() string
}

func NewImageKit(cfg config.ImageKitConfig) *ImageKit {
	return &ImageKit{
		publicKey:   cfg.PublicKey,
		privateKey:  cfg.PrivateKey,
		urlEndpoint: cfg.URLEndpoint,
		apiBase:     imageKitAPIBase,
		client:      &http.Client{Timeout: imageKitTimeout},
		now:         time.Now,
		newToken:    uuid.NewString,
	}
}

// UploadAuth signs token+expire with the private key (HMAC-SHA1, hex), which is
// what ImageKit's client-side upload expects.
func (k *ImageKit) UploadAuth(ctx context.Context) (*UploadAuth, error) {
	if k.privateKey == "" {
		return nil, fmt.Errorf("imagekit: private key is not configured")
	}
	token := k.newToken()
	expire := k.now().Add(imageKitAuthTTL).Unix()

	mac := hmac.New(sha1.New, []byte(k.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))

	return &UploadAuth{
		Token:       token,
		Expire:      expire,
		Signature:   hex.EncodeToString(mac.Sum(nil)),
		PublicKey:   k.publicKey,
		URLEndpoint: k.urlEndpoint,
	}, nil
}

// Delete removes a file. A file that is already gone is not an error.
func (k *ImageKit) Delete(ctx context.Context, fileID string) error {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return ErrEmptyFileID
	}

	endpoint := k.apiBase + "/v1/files/" + url.PathEscape(fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("imagekit: build request: %w", err)
	}
	req.SetBasicAuth(k.privateKey, "")

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("imagekit: delete %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		log.Printf("[media][imagekit] file %s already deleted", fileID)
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("imagekit: delete %s: status %d: %s", fileID, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
