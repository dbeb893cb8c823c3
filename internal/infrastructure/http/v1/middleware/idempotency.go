package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fiskalis/internal/core/apperror"
	appctx "fiskalis/internal/core/context"
	"fiskalis/internal/infrastructure/storage/postgres"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

// Bodies above this size are rejected rather than hashed so a client
// cannot make the middleware buffer arbitrarily large payloads.
const maxIdempotencyBodyBytes = 1 << 20

var idempotentMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Idempotency replays the stored response when a mutating request is
// retried with the same X-Idempotency-Key. The key is scoped to the
// caller and the operation, and the request body hash guards against
// reusing a key with a different payload. Requests without the header
// pass through untouched.
func Idempotency(store *postgres.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !idempotentMethods[c.Request.Method] {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		userID := ""
		if user := appctx.GetUser(c.Request.Context()); user != nil {
			userID = user.UserID
		}

		requestHash, err := hashRequestBody(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
			} else {
				_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			}
			c.Abort()
			return
		}

		if replay != nil {
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		// The handler (or the error middleware on failure) completes
		// the key with the final response.
		c.Set("idempotency_key", key)
		c.Set("idempotency_store", store)

		c.Next()
	}
}

// hashRequestBody consumes the body, restores it for the handler, and
// returns its sha256 hex digest.
func hashRequestBody(c *gin.Context) (string, error) {
	limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return "", apperror.NewValidation("failed to read request body")
	}
	if len(body) > maxIdempotencyBodyBytes {
		appErr := apperror.NewValidation("request body too large for idempotency")
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		return "", appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
