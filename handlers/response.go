package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zconst"
	"github.com/Oudwins/zog/zhttp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
)

// queryError is a malformed query parameter.
type queryError struct {
	param string
	err   error
}

func (e *queryError) Error() string {
	return fmt.Sprintf("invalid query parameter %s: %v", e.param, e.err)
}

func (e *queryError) Unwrap() error {
	return e.err
}

// respondError maps store and request errors onto status codes. Anything
// unexpected is logged and answered with a generic 500.
func respondError(c *gin.Context, log *zap.Logger, kind string, err error) {
	var qe *queryError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": kind + " not found"})
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid data", "error": err.Error()})
	case errors.As(err, &qe):
		c.JSON(http.StatusBadRequest, gin.H{"message": qe.Error()})
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// bindInsert parses the request body with schema into dst. It writes the 400
// response itself and reports false when the body is rejected.
func bindInsert(c *gin.Context, schema *z.StructSchema, dst any) bool {
	if issues := schema.Parse(zhttp.Request(c.Request), dst); issues != nil {
		errs := z.Issues.SanitizeMap(issues)
		delete(errs, zconst.ISSUE_KEY_FIRST)
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  errs,
		})
		return false
	}
	return true
}

// bindPatch decodes a partial update. Unknown fields and values failing the
// patch's binding rules are rejected.
func bindPatch(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "error": err.Error()})
		return false
	}
	return true
}

// queryTime accepts RFC 3339 timestamps or calendar dates. A date used as an
// upper bound covers the whole day.
func queryTime(c *gin.Context, param string, endOfDay bool) (*time.Time, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(models.DateLayout, v, time.Local)
	if err != nil {
		return nil, &queryError{param: param, err: err}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryBool(c *gin.Context, param string) (*bool, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &queryError{param: param, err: err}
	}
	return &b, nil
}

func queryUint(c *gin.Context, param string) (*uint, error) {
	v := c.Query(param)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, &queryError{param: param, err: err}
	}
	id := uint(n)
	return &id, nil
}

func queryDate(c *gin.Context, param string) (string, error) {
	v := c.Query(param)
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse(models.DateLayout, v); err != nil {
		return "", &queryError{param: param, err: err}
	}
	return v, nil
}
