package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"folio/internal/models"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxUploadMemory = 32 << 20

// respondError writes the backend's error shapes for store failures
func respondError(c *gin.Context, err error) {
	var fields fieldErrors
	var protected *protectedError

	switch {
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, fields)
	case errors.As(err, &protected):
		c.JSON(http.StatusConflict, gin.H{"detail": protected.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

func (s *Server) listProjects(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Projects())
}

func (s *Server) getProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.store.Project(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// searchProjects matches titles case-insensitively; an empty query matches nothing
func (s *Server) searchProjects(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		c.JSON(http.StatusOK, []models.Project{})
		return
	}
	c.JSON(http.StatusOK, s.store.Select(func(p models.Project) bool {
		return strings.Contains(strings.ToLower(p.Title), q)
	}, "-created_at"))
}

func (s *Server) filterProjects(c *gin.Context) {
	category, err := strconv.ParseInt(c.Query("category"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, []models.Project{})
		return
	}
	c.JSON(http.StatusOK, s.store.Select(func(p models.Project) bool {
		return p.Category == category
	}, "-created_at"))
}

func (s *Server) sortProjects(c *gin.Context) {
	sortBy := c.DefaultQuery("sort_by", "created_at")
	if !slices.Contains(SortFields, sortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"sort_by": []string{fmt.Sprintf("Cannot sort by %q.", sortBy)}})
		return
	}
	c.JSON(http.StatusOK, s.store.Select(nil, sortBy))
}

func (s *Server) createProject(c *gin.Context) {
	fields, ok := s.projectForm(c)
	if !ok {
		return
	}
	p, err := s.store.SaveProject(0, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	fields, ok := s.projectForm(c)
	if !ok {
		return
	}
	p, err := s.store.SaveProject(id, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteProject(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// projectForm parses the multipart project form. Uploaded bytes are discarded
// and only a /media path is kept.
func (s *Server) projectForm(c *gin.Context) (projectFields, bool) {
	var f projectFields
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Multipart form parse error - " + err.Error()})
		return f, false
	}

	errs := fieldErrors{}
	if v, ok := c.GetPostForm("title"); ok {
		f.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		f.Description = &v
	}
	if v, ok := c.GetPostForm("category"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs.add("category", "Incorrect type. Expected pk value.")
		} else {
			f.Category = &id
		}
	}
	if v, ok := c.GetPostForm("featured"); ok {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			errs.add("featured", "Must be a valid boolean.")
		} else {
			f.Featured = &featured
		}
	}
	if v, ok := c.GetPostForm("tools"); ok {
		var tools []string
		if err := json.Unmarshal([]byte(v), &tools); err != nil {
			errs.add("tools", "Value must be valid JSON.")
		} else {
			f.Tools = &tools
		}
	}
	if v, ok := c.GetPostForm("link"); ok {
		if v != "" {
			if u, err := url.ParseRequestURI(v); err != nil || u.Host == "" {
				errs.add("link", "Enter a valid URL.")
			}
		}
		f.Link = &v
	}
	if values, ok := c.GetPostFormArray("tags"); ok {
		tags := make([]int64, 0, len(values))
		for _, v := range values {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs.add("tags", "Incorrect type. Expected pk value.")
				continue
			}
			tags = append(tags, id)
		}
		f.Tags = &tags
	}

	if form := c.Request.MultipartForm; form != nil {
		if files := form.File["thumbnail"]; len(files) > 0 {
			thumb := mediaPath("thumbnails", files[0].Filename)
			f.Thumbnail = &thumb
		}
		for _, file := range form.File["images"] {
			f.Images = append(f.Images, mediaPath("images", file.Filename))
		}
	}

	if err := errs.err(); err != nil {
		c.JSON(http.StatusBadRequest, errs)
		return f, false
	}
	return f, true
}

func mediaPath(kind, filename string) string {
	return "/media/projects/" + kind + "/" + path.Base(filename)
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Categories())
}

func (s *Server) getCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := s.store.Category(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (s *Server) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}
	if req.Name == nil {
		c.JSON(http.StatusBadRequest, fieldErrors{"name": {"This field is required."}})
		return
	}

	var description string
	if req.Description != nil {
		description = *req.Description
	}
	var order int
	if req.Order != nil {
		order = *req.Order
	}

	category, err := s.store.CreateCategory(*req.Name, description, order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}

	category, err := s.store.UpdateCategory(id, req.Name, req.Description, req.Order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteCategory(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTags(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Tags())
}

func (s *Server) getTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tag, err := s.store.Tag(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (s *Server) createTag(c *gin.Context) {
	s.saveTag(c, 0, http.StatusCreated)
}

func (s *Server) updateTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.saveTag(c, id, http.StatusOK)
}

func (s *Server) saveTag(c *gin.Context, id int64, status int) {
	var req models.TagInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}
	tag, err := s.store.SaveTag(id, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, tag)
}

func (s *Server) deleteTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteTag(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) contact(c *gin.Context) {
	var msg models.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return
	}

	var verr *models.ValidationError
	if err := msg.Validate(); errors.As(err, &verr) {
		errs := fieldErrors{}
		for field, text := range verr.Fields {
			errs.add(field, text)
		}
		c.JSON(http.StatusBadRequest, errs)
		return
	}

	s.store.AddMessage(msg)
	if s.deliver != nil {
		if err := s.deliver(msg); err != nil {
			s.logger.Error("contact delivery failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully"})
}
