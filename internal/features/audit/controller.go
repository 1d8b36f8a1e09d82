package audit

import (
	"charity-admin/internal/common/pagination"
	"charity-admin/internal/common/response"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListLogs godoc
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Param        module query string false "Collection name, e.g. payments"
// @Param        recordId query string false "Record ID"
// @Param        action query string false "CREATE, UPDATE, DELETE, APPROVAL, STATUS, UPLOAD, CRON"
// @Success      200  {object} response.Envelope
// @Security     BearerAuth
// @Router       /api/audit [get]
func (ctrl *AuditController) ListLogs(c *fiber.Ctx) error {
	p := pagination.FromCtx(c)

	filters := map[string]interface{}{
		"module":   c.Query("module"),
		"recordId": c.Query("recordId"),
		"action":   c.Query("action"),
	}

	logs, total, err := ctrl.Service.ListLogs(c.UserContext(), filters, p)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, logs, len(logs), p, total)
}
