package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/models"
	"kumoney/internal/services"
)

// PackageHandler serves the subscription package catalog.
type PackageHandler struct {
	catalog services.PackageCataloger
}

// NewPackageHandler creates a new PackageHandler
func NewPackageHandler(catalog services.PackageCataloger) *PackageHandler {
	return &PackageHandler{catalog: catalog}
}

type tierURI struct {
	Tier string `uri:"tier" binding:"required,tier"`
}

// PackageListResponse wraps the package list.
type PackageListResponse struct {
	Data []models.Package `json:"data"`
}

// ListPackages returns every active package
// @Summary     List packages
// @Description List subscription packages ordered free, pro, unlimited. A limit of -1 means unlimited.
// @Tags        packages
// @Produce     json
// @Success     200 {object} PackageListResponse "Packages"
// @Router      /packages [get]
func (h *PackageHandler) ListPackages(c *gin.Context) {
	c.JSON(http.StatusOK, PackageListResponse{Data: h.catalog.List()})
}

// GetPackage returns one package by tier
// @Summary     Get package
// @Description Get a subscription package by tier
// @Tags        packages
// @Produce     json
// @Param       tier path string true "Tier" Enums(free, pro, unlimited)
// @Success     200 {object} models.Package "Package"
// @Failure     400 {object} ErrorResponse "Invalid tier"
// @Failure     404 {object} ErrorResponse "Package not found"
// @Router      /packages/{tier} [get]
func (h *PackageHandler) GetPackage(c *gin.Context) {
	var uri tierURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid tier"))
		return
	}

	pkg, err := h.catalog.FindByTier(models.Tier(uri.Tier))
	if err != nil {
		if errors.Is(err, apperrors.ErrPackageNotFound) {
			respondWithError(c, apperrors.ErrUnknownTier)
			return
		}
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}
