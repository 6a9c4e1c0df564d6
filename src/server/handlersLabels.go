package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	app "recipeserv/src/app"
	db "recipeserv/src/repository"
)

const assignedOnlyQueryParam = "assigned_only"

type (
	// labelHandler serves the tag and ingredient endpoints, which differ only in their store.
	labelHandler[T db.Label] struct {
		store *db.LabelRepository[T]
		view  func(*T) labelResponse
	}

	labelRequest struct {
		Name *string `json:"name"`
	}
)

func newLabelHandler[T db.Label](store *db.LabelRepository[T], view func(*T) labelResponse) *labelHandler[T] {
	return &labelHandler[T]{store: store, view: view}
}

func (l *labelHandler[T]) register(group *gin.RouterGroup, path string) {
	group.GET(path+"/", l.List)
	group.POST(path+"/", l.Create)
	group.GET(path+"/:id/", l.Get)
	group.PUT(path+"/:id/", l.Update(false))
	group.PATCH(path+"/:id/", l.Update(true))
	group.DELETE(path+"/:id/", l.Delete)
}

func (l *labelHandler[T]) List(c *gin.Context) {
	assignedOnly, err := parseAssignedOnly(c)
	if err != nil {
		respondError(c, err)
		return
	}
	labels, err := l.store.List(c.Request.Context(), currentUser(c).ID, assignedOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	result := make([]labelResponse, 0, len(labels))
	for i := range labels {
		result = append(result, l.view(&labels[i]))
	}
	c.JSON(http.StatusOK, result)
}

func (l *labelHandler[T]) Create(c *gin.Context) {
	var request labelRequest
	if !bindJSON(c, &request) {
		return
	}
	if request.Name == nil {
		respondError(c, app.NewValidationError("name", "this field is required"))
		return
	}
	label, err := l.store.Create(c.Request.Context(), currentUser(c).ID, *request.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l.view(label))
}

func (l *labelHandler[T]) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	label, err := l.store.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l.view(label))
}

// Update renames a label. A partial update without a name returns the label unchanged.
func (l *labelHandler[T]) Update(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var request labelRequest
		if !bindJSON(c, &request) {
			return
		}
		owner := currentUser(c).ID
		var (
			label *T
			err   error
		)
		switch {
		case request.Name != nil:
			label, err = l.store.Update(c.Request.Context(), owner, id, *request.Name)
		case partial:
			label, err = l.store.Get(c.Request.Context(), owner, id)
		default:
			err = app.NewValidationError("name", "this field is required")
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, l.view(label))
	}
}

func (l *labelHandler[T]) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := l.store.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseAssignedOnly(c *gin.Context) (bool, error) {
	raw, ok := c.GetQuery(assignedOnlyQueryParam)
	if !ok || raw == "" {
		return false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return false, app.NewValidationError(assignedOnlyQueryParam, fmt.Sprintf("expected 0 or 1, got %q", raw))
	}
	return value != 0, nil
}

// pathID parses the :id segment; a malformed id is reported as 404 like any unknown row.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusNotFound, app.ErrNotFound.Error())
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, request any) bool {
	if err := c.ShouldBindJSON(request); err != nil {
		_ = c.Error(err)
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}
