package uploads

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chronicle-hq/chronicle/internal/common"
)

var ErrInvalidToken = errors.New("uploads: invalid or expired token")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitize(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// Service issues short-lived signed upload URLs and stores the raw bytes on
// disk. The token binds the upload slot (id + filename) so a PUT can only
// write the file it was signed for.
type Service struct {
	dir    string
	secret []byte
	ttl    time.Duration
}

func NewService(dir, secret string) *Service {
	return &Service{dir: dir, secret: []byte(secret), ttl: 10 * time.Minute}
}

type uploadClaims struct {
	FileID   string `json:"fid"`
	Filename string `json:"fn"`
	jwt.RegisteredClaims
}

// Sign allocates an upload slot and returns the pre-signed PUT url plus the
// public url the file will be served from.
func (s *Service) Sign(filename string) (uploadURL, fileURL string, err error) {
	if filename == "" {
		filename = "file.bin"
	}
	safe := sanitize(filename)
	id := common.NewID("up")[3:] // short random slug, no prefix in the path

	claims := uploadClaims{
		FileID:   id,
		Filename: safe,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", err
	}

	uploadURL = "/uploads/put?token=" + url.QueryEscape(token)
	fileURL = fmt.Sprintf("/uploads/%s-%s", id, safe)
	return uploadURL, fileURL, nil
}

// Put verifies the token and writes the body to the signed slot, returning
// the public file url.
func (s *Service) Put(token string, body []byte) (string, error) {
	var claims uploadClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.FileID == "" || claims.Filename == "" {
		return "", ErrInvalidToken
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s", claims.FileID, claims.Filename)
	if err := os.WriteFile(filepath.Join(s.dir, name), body, 0o644); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

// Dir is the directory uploaded files are served from.
func (s *Service) Dir() string { return s.dir }
