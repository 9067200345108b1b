package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/atelier"
	"github.com/dmitrymomot/atelier/internal/model"
	"github.com/dmitrymomot/atelier/internal/repository"
	"github.com/dmitrymomot/atelier/middlewares"
	"github.com/dmitrymomot/atelier/pkg/cas"
	"github.com/dmitrymomot/atelier/pkg/logger"
	"github.com/dmitrymomot/atelier/pkg/schema"
)

// uploadField is the multipart field an image is uploaded in.
const uploadField = "file"

// imageView is an image as the API returns it.
type imageView struct {
	model.Image
	URL string `json:"url"`
}

func viewImage(img model.Image) imageView {
	return imageView{Image: img, URL: model.PublicPath(img.StoredPath)}
}

// Images manages the shared image library.
type Images struct {
	base
	list *schema.Validator
}

// NewImages creates the image handler. Files are stored through the
// asset store injected into the App.
func NewImages(repo *repository.Repository, schemas *schema.Compiler, opts ...Option) *Images {
	h := &Images{base: newBase(repo, schemas, opts...)}
	h.list = h.listQuery([]string{"id", "filename", "size", "createdAt", "updatedAt"}, nil)
	return h
}

// Routes implements atelier.Handler.
func (h *Images) Routes(r atelier.Router) {
	r.Route("/api/images", func(r atelier.Router) {
		r.GET("/", h.auth, middlewares.ValidateQuery(h.list), h.index)
		r.POST("/", h.auth, h.upload)
		r.GET("/{id}", h.auth, h.show)
		r.DELETE("/{id}", h.auth, h.destroy)
		r.POST("/{id}/labels/{labelId}", h.auth, h.link)
		r.DELETE("/{id}/labels/{labelId}", h.auth, h.unlink)
	})
}

func (h *Images) index(c atelier.Context) (atelier.Result, error) {
	page, err := h.repo.ListImages(c, h.listParams(c))
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	out := model.Page[imageView]{Items: make([]imageView, 0, len(page.Items)), Total: page.Total}
	for _, img := range page.Items {
		out.Items = append(out.Items, viewImage(img))
	}
	return atelier.Respond, c.JSON(http.StatusOK, out)
}

// upload stores the file of the "file" part. Content already in the library
// returns the existing record.
func (h *Images) upload(c atelier.Context) (atelier.Result, error) {
	store := c.Assets()
	if store == nil {
		return atelier.Continue, atelier.ErrInternal
	}

	asset, err := store.IngestMultipart(c, c.Request(), uploadField)
	if errors.Is(err, cas.ErrFileTooLarge) {
		return atelier.Continue, atelier.ErrHitFileSizeLimit.With(store.MaxSize()).Wrap(err)
	}
	if err != nil {
		return atelier.Continue, apiError(err)
	}

	img, err := h.repo.GetImage(c, asset.ID)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, viewImage(*img))
}

func (h *Images) show(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	img, err := h.repo.GetImage(c, id)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusOK, viewImage(*img))
}

// destroy deletes the record, then its file. A file that cannot be removed
// is only logged; the sweeper does not touch canonical files, so it stays
// until removed by hand.
func (h *Images) destroy(c atelier.Context) (atelier.Result, error) {
	id, err := atelier.ParamID(c, "id")
	if err != nil {
		return atelier.Continue, err
	}
	asset, err := h.repo.DeleteImage(c, id)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	if store := c.Assets(); store != nil {
		if err := store.Remove(c, asset.StoredPath); err != nil {
			c.Logger().WarnContext(c, "image file not removed",
				slog.Int64("image_id", id),
				slog.String("path", asset.StoredPath),
				logger.Err(err),
			)
		}
	}
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}

func (h *Images) pair(c atelier.Context) (imageID, labelID int64, err error) {
	if imageID, err = atelier.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}
	if labelID, err = atelier.ParamID(c, "labelId"); err != nil {
		return 0, 0, err
	}
	return imageID, labelID, nil
}

func (h *Images) link(c atelier.Context) (atelier.Result, error) {
	imageID, labelID, err := h.pair(c)
	if err != nil {
		return atelier.Continue, err
	}
	if err := h.repo.LinkLabel(c, imageID, labelID); err != nil {
		return atelier.Continue, apiError(err)
	}
	img, err := h.repo.GetImage(c, imageID)
	if err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.JSON(http.StatusCreated, viewImage(*img))
}

func (h *Images) unlink(c atelier.Context) (atelier.Result, error) {
	imageID, labelID, err := h.pair(c)
	if err != nil {
		return atelier.Continue, err
	}
	if err := h.repo.UnlinkLabel(c, imageID, labelID); err != nil {
		return atelier.Continue, apiError(err)
	}
	return atelier.Respond, c.NoContent(http.StatusNoContent)
}
