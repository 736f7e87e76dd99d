package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"go.uber.org/zap"
)

type PackageHandler struct {
	packageService *service.PackageService
	logger         *zap.Logger
}

func NewPackageHandler(packageService *service.PackageService, logger *zap.Logger) *PackageHandler {
	return &PackageHandler{
		packageService: packageService,
		logger:         logger,
	}
}

func (h *PackageHandler) GetActivePackages(c *fiber.Ctx) error {
	packages, err := h.packageService.GetActivePackages(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(packages, "Packages retrieved successfully"))
}
