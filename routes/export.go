package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventsapi/export"
)

// GET /api/registration_export/
// Unpaginated; honours the same user/event filters as the registration list.
func (d *deps) exportRegistrations(c *gin.Context) {
	f, err := d.parseRegistrationFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := d.regs.ExportRows(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := d.exporter.Export(rows)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, export.ContentType, data)
}
