// Package api exposes the import workflow and the stored interventions over
// HTTP with fiber.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/insightdelivered/closure-importer/internal/config"
	"github.com/insightdelivered/closure-importer/internal/importer"
	"github.com/insightdelivered/closure-importer/internal/models"
	"github.com/insightdelivered/closure-importer/internal/store"
	"github.com/insightdelivered/closure-importer/internal/summary"
	"github.com/insightdelivered/closure-importer/internal/writer"
)

var errNoReport = errors.New("no report uploaded, use form field 'file' or 'text'")

// Version is reported by the health endpoint.
const Version = "1.0.0"

// recentImportsOnDashboard is how many batches the dashboard lists.
const recentImportsOnDashboard = 8

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Importer  *importer.Importer
	Store     *store.Store
	StaticDir string
	Log       *logrus.Logger
	Now       func() time.Time
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	if h.Log == nil {
		h.Log = logrus.StandardLogger()
	}
	if h.Now == nil {
		h.Now = time.Now
	}

	api := app.Group("/api")
	api.Get("/health", h.handleHealth)
	api.Post("/preview", h.handlePreview)
	api.Post("/import", h.handleImport)
	api.Get("/interventions", h.handleInterventions)
	api.Get("/clients", h.handleRecentClients)
	api.Get("/clients/:id", h.handleClient)
	api.Get("/dashboard", h.handleDashboard)
	api.Get("/imports", h.handleImports)
	api.Get("/export.csv", h.handleExportCSV)
	api.Get("/export.xlsx", h.handleExportXLSX)
	api.Get("/backup", h.handleBackup)
	api.Post("/restore", h.handleRestore)

	// Serve the web client; unknown non-API paths fall back to index.html
	if h.StaticDir != "" {
		app.Static("/", h.StaticDir)
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return writeError(c, fiber.StatusNotFound, "Not found.")
			}
			return c.SendFile(filepath.Join(h.StaticDir, "index.html"))
		})
	}
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

func (h *Handler) handlePreview(c *fiber.Ctx) error {
	docs, err := documentsFromRequest(c)
	if err != nil {
		return badRequest(c, err)
	}

	previews, err := h.Importer.Preview(c.UserContext(), docs)
	if err != nil {
		return h.internalError(c, "handlePreview", err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"previews": previews,
		"blocked":  importer.Blocked(previews),
	})
}

func (h *Handler) handleImport(c *fiber.Ctx) error {
	docs, err := documentsFromRequest(c)
	if err != nil {
		return badRequest(c, err)
	}

	previews, out, err := h.Importer.Import(c.UserContext(), docs)
	if errors.Is(err, importer.ErrBlocked) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success":  false,
			"error":    "Hay cierres con errores. Corrige los PDFs antes de importar.",
			"previews": previews,
			"blocked":  true,
		})
	}
	if err != nil {
		return h.internalError(c, "handleImport", err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"previews": previews,
		"outcome":  out,
	})
}

func (h *Handler) handleInterventions(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return badRequest(c, err)
	}
	filter.Client = c.Query("client")

	items, err := h.Store.Search(c.UserContext(), filter)
	if err != nil {
		return h.internalError(c, "handleInterventions", err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"interventions": items,
		"count":         len(items),
	})
}

func (h *Handler) handleClient(c *fiber.Ctx) error {
	filter, err := filterFromQuery(c)
	if err != nil {
		return badRequest(c, err)
	}
	clientID := c.Params("id")

	items, err := h.Store.ListByClient(c.UserContext(), clientID, filter)
	if err != nil {
		return h.internalError(c, "handleClient", err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"client":        summary.ForClient(clientID, items),
		"interventions": items,
	})
}

func (h *Handler) handleRecentClients(c *fiber.Ctx) error {
	items, err := h.Store.Search(c.UserContext(), store.Filter{Limit: 30})
	if err != nil {
		return h.internalError(c, "handleRecentClients", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"clients": summary.RecentClients(items),
	})
}

func (h *Handler) handleDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()

	dates, err := h.Store.DistinctDates(ctx)
	if err != nil {
		return h.internalError(c, "handleDashboard", err)
	}

	requested := c.Query("date")
	if requested == "" {
		if _, err := h.Store.MetaGet(ctx, store.MetaLastSelectedDate, &requested); err != nil {
			return h.internalError(c, "handleDashboard", err)
		}
	}
	date := summary.ResolveDate(requested, dates, h.Now().Format("2006-01-02"))
	if err := h.Store.MetaSet(ctx, store.MetaLastSelectedDate, date); err != nil {
		return h.internalError(c, "handleDashboard", err)
	}

	items, err := h.Store.ListByDate(ctx, date)
	if err != nil {
		return h.internalError(c, "handleDashboard", err)
	}
	recent, err := h.Store.RecentImports(ctx, recentImportsOnDashboard)
	if err != nil {
		return h.internalError(c, "handleDashboard", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"dates":   dates,
		"day":     summary.NewDay(date, items, recent),
	})
}

func (h *Handler) handleImports(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	imports, err := h.Store.RecentImports(c.UserContext(), limit)
	if err != nil {
		return h.internalError(c, "handleImports", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"imports": summary.ImportRows(imports),
	})
}

// exportItems selects a single date when date is given, otherwise a from/to range.
func (h *Handler) exportItems(c *fiber.Ctx) ([]models.Intervention, string, string, string, error) {
	date, from, to := c.Query("date"), c.Query("from"), c.Query("to")
	if date != "" {
		items, err := h.Store.ListByDate(c.UserContext(), date)
		return items, date, "", "", err
	}
	items, err := h.Store.Search(c.UserContext(), store.Filter{From: from, To: to})
	return items, "", from, to, err
}

func (h *Handler) handleExportCSV(c *fiber.Ctx) error {
	items, date, from, to, err := h.exportItems(c)
	if err != nil {
		return h.internalError(c, "handleExportCSV", err)
	}

	var buf bytes.Buffer
	w := &writer.CSVWriter{}
	if err := w.Write(&buf, items); err != nil {
		return h.internalError(c, "handleExportCSV", err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(writer.ExportFilename(date, from, to, "csv"))
	return c.Send(buf.Bytes())
}

func (h *Handler) handleExportXLSX(c *fiber.Ctx) error {
	items, date, from, to, err := h.exportItems(c)
	if err != nil {
		return h.internalError(c, "handleExportXLSX", err)
	}

	var buf bytes.Buffer
	w := &writer.XLSXWriter{}
	if err := w.Write(&buf, items); err != nil {
		return h.internalError(c, "handleExportXLSX", err)
	}

	c.Attachment(writer.ExportFilename(date, from, to, "xlsx"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}

func (h *Handler) handleBackup(c *fiber.Ctx) error {
	now := h.Now()
	dump, err := h.Store.Dump(c.UserContext(), now)
	if err != nil {
		return h.internalError(c, "handleBackup", err)
	}

	var buf bytes.Buffer
	if err := writer.WriteBackup(&buf, dump); err != nil {
		return h.internalError(c, "handleBackup", err)
	}

	c.Attachment(writer.BackupFilename(now))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (h *Handler) handleRestore(c *fiber.Ctx) error {
	var in io.Reader = bytes.NewReader(c.Body())
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, fmt.Errorf("failed to read upload: %w", err))
		}
		defer f.Close()
		in = f
	}

	dump, err := writer.ReadBackup(in)
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.Store.Replace(c.UserContext(), dump); err != nil {
		if dump.SchemaVersion > store.SchemaVersion {
			return badRequest(c, err)
		}
		return h.internalError(c, "handleRestore", err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"interventions": len(dump.Interventions),
		"imports":       len(dump.Imports),
	})
}

type textRequest struct {
	Text  string `json:"text" form:"text"`
	Label string `json:"label" form:"label"`
}

// documentsFromRequest reads uploaded "file" parts, or a text/label pair
// from a form or JSON body.
func documentsFromRequest(c *fiber.Ctx) ([]importer.Document, error) {
	var docs []importer.Document

	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["file"] {
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to read upload %q: %w", fh.Filename, err)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read upload %q: %w", fh.Filename, err)
			}

			doc := importer.Document{Label: fh.Filename}
			if strings.EqualFold(filepath.Ext(fh.Filename), ".txt") {
				doc.Text = string(data)
			} else {
				doc.Data = data
			}
			docs = append(docs, doc)
		}
		labels := form.Value["label"]
		for n, text := range form.Value["text"] {
			label := fmt.Sprintf("texto-%d", n+1)
			if n < len(labels) && labels[n] != "" {
				label = labels[n]
			}
			docs = append(docs, importer.Document{Label: label, Text: text})
		}
	} else {
		var req textRequest
		if err := c.BodyParser(&req); err != nil {
			return nil, fmt.Errorf("failed to parse request: %w", err)
		}
		if req.Text != "" {
			if req.Label == "" {
				req.Label = "texto-1"
			}
			docs = append(docs, importer.Document{Label: req.Label, Text: req.Text})
		}
	}

	if len(docs) == 0 {
		return nil, errNoReport
	}
	return docs, nil
}

func filterFromQuery(c *fiber.Ctx) (store.Filter, error) {
	f := store.Filter{
		Type: models.WorkType(strings.ToUpper(c.Query("type"))),
		From: c.Query("from"),
		To:   c.Query("to"),
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, fmt.Errorf("unknown type %q, use INSTALACION, REPARACION or MANTENIMIENTO", c.Query("type"))
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit %q", v)
		}
		f.Limit = n
	}
	return f, nil
}

func (h *Handler) internalError(c *fiber.Ctx, funcName string, err error) error {
	config.LogError(h.Log, "api", funcName, c.Path(), nil, err)
	return writeError(c, fiber.StatusInternalServerError, err.Error())
}

// badRequest answers 400 with err rendered as a sentence.
func badRequest(c *fiber.Ctx, err error) error {
	return writeError(c, fiber.StatusBadRequest, errorMessage(err))
}

// errorMessage capitalizes an error string and closes it with a period for
// display.
func errorMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// staticExists reports whether dir holds an index.html to serve.
func staticExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil
}
