package handlers

import (
	"context"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// resource serves the five CRUD routes of one entity kind on top of the
// store. T is the record, I its insert type and P its patch type.
type resource[T any, I any, P any] struct {
	kind   string
	schema *z.StructSchema
	log    *zap.Logger

	list   func(c *gin.Context) ([]T, error)
	get    func(ctx context.Context, id uint) (*T, error)
	create func(ctx context.Context, in I) (*T, error)
	update func(ctx context.Context, id uint, p P) (*T, error)
	remove func(ctx context.Context, id uint) error

	// optional hooks, run after the store call succeeded
	afterCreate func(ctx context.Context, rec *T)
	afterUpdate func(ctx context.Context, before, after *T)
	afterDelete func(ctx context.Context, id uint)
}

func (r *resource[T, I, P]) register(g *gin.RouterGroup) {
	g.GET("", r.List)
	g.GET("/:id", r.Get)
	g.POST("", r.Create)
	g.PUT("/:id", r.Update)
	g.DELETE("/:id", r.Delete)
}

func (r *resource[T, I, P]) List(c *gin.Context) {
	items, err := r.list(c)
	if err != nil {
		respondError(c, r.log, r.kind, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, items)
}

func (r *resource[T, I, P]) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rec, err := r.get(c.Request.Context(), id)
	if err != nil {
		respondError(c, r.log, r.kind, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (r *resource[T, I, P]) Create(c *gin.Context) {
	var in I
	if !bindInsert(c, r.schema, &in) {
		return
	}
	ctx := c.Request.Context()
	rec, err := r.create(ctx, in)
	if err != nil {
		respondError(c, r.log, r.kind, err)
		return
	}
	if r.afterCreate != nil {
		r.afterCreate(ctx, rec)
	}
	c.JSON(http.StatusOK, rec)
}

func (r *resource[T, I, P]) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p P
	if !bindPatch(c, &p) {
		return
	}
	ctx := c.Request.Context()

	var before *T
	if r.afterUpdate != nil {
		prev, err := r.get(ctx, id)
		if err != nil {
			respondError(c, r.log, r.kind, err)
			return
		}
		before = prev
	}

	rec, err := r.update(ctx, id, p)
	if err != nil {
		respondError(c, r.log, r.kind, err)
		return
	}
	if r.afterUpdate != nil {
		r.afterUpdate(ctx, before, rec)
	}
	c.JSON(http.StatusOK, rec)
}

func (r *resource[T, I, P]) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := r.remove(ctx, id); err != nil {
		respondError(c, r.log, r.kind, err)
		return
	}
	if r.afterDelete != nil {
		r.afterDelete(ctx, id)
	}
	c.JSON(http.StatusOK, gin.H{"message": r.kind + " deleted successfully"})
}

// listAll adapts a store list call without filters.
func listAll[T any](fn func(ctx context.Context) ([]T, error)) func(c *gin.Context) ([]T, error) {
	return func(c *gin.Context) ([]T, error) {
		return fn(c.Request.Context())
	}
}
